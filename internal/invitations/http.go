package invitations

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nylund-us/broadcast-backend/internal/auth"
	"github.com/nylund-us/broadcast-backend/internal/mailer"
	"github.com/nylund-us/broadcast-backend/internal/organizations"
	"github.com/nylund-us/broadcast-backend/internal/users"
)

type Handler struct {
	repo    *Repo
	orgs    *organizations.Repo
	users   *users.Repo
	mailer  *mailer.Mailer
	baseURL string
}

func Register(rg *gin.RouterGroup, repo *Repo, orgs *organizations.Repo, userRepo *users.Repo, m *mailer.Mailer, baseURL string) {
	h := &Handler{repo: repo, orgs: orgs, users: userRepo, mailer: m, baseURL: baseURL}

	rg.GET("", h.listMine)
	rg.GET("/:id", h.get)
	rg.POST("", h.create)
	rg.POST("/:id/accept", h.accept)
	rg.POST("/:id/decline", h.decline)
	rg.DELETE("/:id", h.delete)
}

// RegisterOrgSubroutes mounts the per-organization invitation listing.
func RegisterOrgSubroutes(orgGroup *gin.RouterGroup, repo *Repo, orgs *organizations.Repo) {
	h := &Handler{repo: repo, orgs: orgs}
	orgGroup.GET("/:id/invitations", h.listByOrg)
}

func (h *Handler) listMine(c *gin.Context) {
	email := auth.UserEmail(c)
	items, err := h.repo.ListForEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) get(c *gin.Context) {
	inv, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrInvitationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}

	// Only the sender and the addressee may view it.
	if inv.FromUserID != auth.UserDBID(c) && inv.Email != auth.UserEmail(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this invitation."})
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) listByOrg(c *gin.Context) {
	orgID := c.Param("id")
	userID := auth.UserDBID(c)

	role, err := h.orgs.Role(c.Request.Context(), orgID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	if !organizations.CanManage(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to get invitations in this organization."})
		return
	}

	items, err := h.repo.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	c.JSON(http.StatusOK, items)
}

type createReq struct {
	Email          string `json:"email" binding:"required,email"`
	OrganizationID string `json:"organization_id" binding:"required"`
	Role           string `json:"role"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invitation data not valid."})
		return
	}
	if req.Role == "" {
		req.Role = organizations.RoleMember
	}
	if !organizations.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invitation data not valid."})
		return
	}

	userID := auth.UserDBID(c)
	role, err := h.orgs.Role(c.Request.Context(), req.OrganizationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	if role == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found."})
		return
	}
	if !organizations.CanManage(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to invite users to this organization."})
		return
	}

	org, err := h.orgs.Get(c.Request.Context(), req.OrganizationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}

	// An addressee with an account who is already a member gets a
	// conflict instead of a pointless invitation.
	invitee, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, users.ErrUserNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	if invitee != nil {
		existing, err := h.orgs.Role(c.Request.Context(), req.OrganizationID, invitee.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
			return
		}
		if existing != "" {
			c.JSON(http.StatusConflict, gin.H{"error": "A user with that email is already in your organization."})
			return
		}
	}

	inv, err := h.repo.Create(c.Request.Context(), req.OrganizationID, userID, req.Email, req.Role)
	if errors.Is(err, ErrAlreadyInvited) {
		c.JSON(http.StatusConflict, gin.H{"error": "That user was already invited to this organization."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}

	if h.mailer != nil {
		err := h.mailer.Send(c.Request.Context(), req.Email, "Invitation to "+org.Name, "org-invite", map[string]string{
			"OrganizationName": org.Name,
			"URL":              h.baseURL + "/invite/" + inv.ID,
		})
		if err != nil {
			// The invitation row exists; the addressee can still find it
			// in-app, so a failed mail is not a failed request.
			log.Printf("[invitations] mail send failed for invite %s: %v", inv.ID, err)
		}
	}

	c.JSON(http.StatusCreated, inv)
}

func (h *Handler) accept(c *gin.Context) {
	inv, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrInvitationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}

	if inv.Email != auth.UserEmail(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invitation not valid for current user."})
		return
	}
	if inv.Status != StatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invitation is no longer pending."})
		return
	}

	userID := auth.UserDBID(c)
	existing, err := h.orgs.Role(c.Request.Context(), inv.OrganizationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept invitation."})
		return
	}
	if existing != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You are already a member of this organization."})
		return
	}

	if err := h.orgs.AddMember(c.Request.Context(), inv.OrganizationID, userID, inv.Role); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept invitation."})
		return
	}
	if err := h.repo.SetStatus(c.Request.Context(), inv.ID, StatusAccepted); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept invitation."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invitation accepted."})
}

func (h *Handler) decline(c *gin.Context) {
	inv, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrInvitationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}

	if inv.Email != auth.UserEmail(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invitation not valid for current user."})
		return
	}

	if err := h.repo.SetStatus(c.Request.Context(), inv.ID, StatusDeclined); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decline invitation."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invitation declined."})
}

func (h *Handler) delete(c *gin.Context) {
	inv, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrInvitationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}

	userID := auth.UserDBID(c)
	role, err := h.orgs.Role(c.Request.Context(), inv.OrganizationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	if !organizations.CanManage(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to remove invitations in this organization."})
		return
	}

	if err := h.repo.Delete(c.Request.Context(), inv.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete invitation."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invitation removed."})
}
