package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nylund-us/broadcast-backend/internal/auth"
	"github.com/nylund-us/broadcast-backend/internal/organizations"
	"github.com/nylund-us/broadcast-backend/internal/servers/domain"
)

// deploy provisions a new server in the organization named by the path.
func (h *Handler) deploy(c *gin.Context) {
	orgID := c.Param("id")
	userID := auth.UserDBID(c)

	role, err := h.orgs.Role(c.Request.Context(), orgID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	if role == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found."})
		return
	}
	if !organizations.CanManage(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to deploy servers in this organization."})
		return
	}

	server, err := h.orch.Deploy(c.Request.Context(), orgID)
	if err != nil {
		log.Printf("[servers] deploy failed for org %s: %v", orgID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deploy instance."})
		return
	}
	c.JSON(http.StatusCreated, server)
}

// gate loads the server and checks the caller's role in its organization.
// Returns nil after writing the error response when access is denied.
func (h *Handler) gate(c *gin.Context, serverID string, needManage bool) *domain.ServerWithInstance {
	server, err := h.orch.Get(c.Request.Context(), serverID, false)
	if errors.Is(err, domain.ErrServerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Server not found."})
		return nil
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return nil
	}

	userID := auth.UserDBID(c)
	role, err := h.orgs.Role(c.Request.Context(), server.OrganizationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return nil
	}
	if role == "" || (needManage && !organizations.CanManage(role)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to manage servers in this organization."})
		return nil
	}
	return server
}

func (h *Handler) command(c *gin.Context) {
	serverID := c.Param("id")
	cmd := c.Param("command")
	log.Printf("[servers] id=%s command=%q", serverID, cmd)

	if !domain.ValidCommand(cmd) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown command."})
		return
	}

	if h.gate(c, serverID, true) == nil {
		return
	}

	if err := h.orch.SendCommand(c.Request.Context(), serverID, cmd); err != nil {
		if errors.Is(err, domain.ErrServerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Server not found."})
			return
		}
		// Provider message passes through verbatim, as-is, unretried.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Command sent."})
}

func (h *Handler) get(c *gin.Context) {
	serverID := c.Param("id")
	populate := c.Query("populate") == "true"

	if h.gate(c, serverID, false) == nil {
		return
	}

	server, err := h.orch.Get(c.Request.Context(), serverID, populate)
	if errors.Is(err, domain.ErrServerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Server not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	c.JSON(http.StatusOK, server)
}

func (h *Handler) listByOrg(c *gin.Context) {
	orgID := c.Param("id")
	populate := c.Query("populate") == "true"
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

	servers, err := h.orch.ListByOrganization(c.Request.Context(), orgID, populate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unknown error occurred."})
		return
	}
	c.JSON(http.StatusOK, servers)
}

func (h *Handler) delete(c *gin.Context) {
	serverID := c.Param("id")

	if h.gate(c, serverID, true) == nil {
		return
	}

	if err := h.orch.Delete(c.Request.Context(), serverID); err != nil {
		if errors.Is(err, domain.ErrServerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Server not found."})
			return
		}
		log.Printf("[servers] delete failed for %s: %v", serverID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to terminate instance."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Server deleted."})
}
