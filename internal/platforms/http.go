package platforms

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nylund-us/broadcast-backend/internal/auth"
	"github.com/nylund-us/broadcast-backend/internal/organizations"
)

type Handler struct {
	repo *Repo
	orgs *organizations.Repo
}

func Register(rg *gin.RouterGroup, repo *Repo, orgs *organizations.Repo) {
	h := &Handler{repo: repo, orgs: orgs}

	rg.POST("", h.create)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.delete)
}

// RegisterOrgSubroutes mounts the per-organization platform listing.
func RegisterOrgSubroutes(orgGroup *gin.RouterGroup, repo *Repo, orgs *organizations.Repo) {
	h := &Handler{repo: repo, orgs: orgs}
	orgGroup.GET("/:id/platforms", h.listByOrg)
}

type createReq struct {
	Organization string `json:"organization" binding:"required"`
	Name         string `json:"name" binding:"required,min=2"`
	BaseURL      string `json:"base_url" binding:"required,min=10"`
	APIKey       string `json:"api_key"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Platform data not valid."})
		return
	}

	userID := auth.UserDBID(c)
	role, err := h.orgs.Role(c.Request.Context(), req.Organization, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	if role == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found."})
		return
	}
	if !organizations.CanManage(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to add platforms to this organization."})
		return
	}

	p, err := h.repo.Create(c.Request.Context(), req.Organization, strings.TrimSpace(req.Name), req.BaseURL, req.APIKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrPlatformNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Platform not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}

	userID := auth.UserDBID(c)
	role, err := h.orgs.Role(c.Request.Context(), p.OrganizationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "You aren't a member of this organization."})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) listByOrg(c *gin.Context) {
	orgID := c.Param("id")
	userID := auth.UserDBID(c)

	role, err := h.orgs.Role(c.Request.Context(), orgID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "You aren't a member of this organization."})
		return
	}

	items, err := h.repo.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	c.JSON(http.StatusOK, items)
}

type updateReq struct {
	Name    *string `json:"name"`
	BaseURL *string `json:"base_url"`
	APIKey  *string `json:"api_key"`
}

func (h *Handler) update(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid platform data."})
		return
	}
	if req.Name == nil && req.BaseURL == nil && req.APIKey == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No valid update properties specified."})
		return
	}
	if req.Name != nil && len(strings.TrimSpace(*req.Name)) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid platform data."})
		return
	}

	p, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrPlatformNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Platform doesn't exist."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}

	userID := auth.UserDBID(c)
	role, err := h.orgs.Role(c.Request.Context(), p.OrganizationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	if !organizations.CanManage(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to modify this platform."})
		return
	}

	updated, err := h.repo.Update(c.Request.Context(), p.ID, req.Name, req.BaseURL, req.APIKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update platform."})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) delete(c *gin.Context) {
	p, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrPlatformNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Platform not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}

	userID := auth.UserDBID(c)
	role, err := h.orgs.Role(c.Request.Context(), p.OrganizationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	if !organizations.CanManage(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to delete this platform."})
		return
	}

	if err := h.repo.Delete(c.Request.Context(), p.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete platform."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Platform deleted."})
}
