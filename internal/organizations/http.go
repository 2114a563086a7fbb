package organizations

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nylund-us/broadcast-backend/internal/auth"
)

type Handler struct {
	repo *Repo
}

func Register(rg *gin.RouterGroup, repo *Repo) {
	h := &Handler{repo: repo}

	rg.GET("", h.list)
	rg.POST("", h.create)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.delete)
	rg.DELETE("/:id/members/:user_id", h.removeMember)
}

func (h *Handler) list(c *gin.Context) {
	userID := auth.UserDBID(c)
	items, err := h.repo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	c.JSON(http.StatusOK, items)
}

type createReq struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Organization data not valid."})
		return
	}

	userID := auth.UserDBID(c)
	org, err := h.repo.Create(c.Request.Context(), userID, strings.TrimSpace(req.Name), req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	c.JSON(http.StatusCreated, org)
}

func (h *Handler) get(c *gin.Context) {
	orgID := c.Param("id")
	userID := auth.UserDBID(c)

	role, err := h.repo.Role(c.Request.Context(), orgID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	if role == "" {
		// Non-members learn nothing, not even that the org exists.
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found."})
		return
	}

	org, err := h.repo.Get(c.Request.Context(), orgID)
	if errors.Is(err, ErrOrgNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	c.JSON(http.StatusOK, org)
}

type updateReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) update(c *gin.Context) {
	orgID := c.Param("id")
	userID := auth.UserDBID(c)

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid organization data."})
		return
	}
	if req.Name != nil && len(strings.TrimSpace(*req.Name)) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid organization data."})
		return
	}

	role, err := h.repo.Role(c.Request.Context(), orgID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	if !CanManage(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to modify this organization."})
		return
	}

	org, err := h.repo.Update(c.Request.Context(), orgID, req.Name, req.Description)
	switch {
	case errors.Is(err, ErrNoValidFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No valid update properties specified."})
		return
	case errors.Is(err, ErrOrgNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization doesn't exist."})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update organization."})
		return
	}
	c.JSON(http.StatusOK, org)
}

func (h *Handler) delete(c *gin.Context) {
	orgID := c.Param("id")
	userID := auth.UserDBID(c)

	role, err := h.repo.Role(c.Request.Context(), orgID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	if role == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found."})
		return
	}
	if role != RoleOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to delete this organization."})
		return
	}

	err = h.repo.Delete(c.Request.Context(), orgID)
	switch {
	case errors.Is(err, ErrOrganizationNotEmpty):
		c.JSON(http.StatusConflict, gin.H{"error": "A server still exists in this organization."})
		return
	case errors.Is(err, ErrOrgNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found."})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete organization."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Organization removed."})
}

func (h *Handler) removeMember(c *gin.Context) {
	orgID := c.Param("id")
	memberID := c.Param("user_id")
	userID := auth.UserDBID(c)

	role, err := h.repo.Role(c.Request.Context(), orgID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	if role == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found."})
		return
	}
	if role != RoleOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to remove users from this organization."})
		return
	}

	if err := h.repo.RemoveMember(c.Request.Context(), orgID, memberID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove user from organization."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User removed from organization."})
}
