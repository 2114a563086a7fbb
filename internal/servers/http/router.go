package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/nylund-us/broadcast-backend/internal/servers/domain"
)

// Orchestrator is implemented by service.Orchestrator.
type Orchestrator interface {
	Deploy(ctx context.Context, orgID string) (*domain.Server, error)
	Get(ctx context.Context, serverID string, populate bool) (*domain.ServerWithInstance, error)
	ListByOrganization(ctx context.Context, orgID string, populate bool) ([]domain.ServerWithInstance, error)
	SendCommand(ctx context.Context, serverID, command string) error
	Delete(ctx context.Context, serverID string) error
}

// RoleSource is implemented by organizations.Repo.
type RoleSource interface {
	Role(ctx context.Context, orgID, userID string) (string, error)
}

type Handler struct {
	orch Orchestrator
	orgs RoleSource
}

// Register mounts the server routes. The deploy route takes the target
// organization id as its path parameter, mirroring the command and get
// routes that take a server id.
func Register(rg *gin.RouterGroup, orch Orchestrator, orgs RoleSource) {
	h := &Handler{orch: orch, orgs: orgs}

	rg.POST("/:id", h.deploy)
	rg.POST("/:id/:command", h.command)
	rg.GET("/:id", h.get)
	rg.DELETE("/:id", h.delete)
}

// RegisterOrgSubroutes mounts the per-organization server listing.
func RegisterOrgSubroutes(orgGroup *gin.RouterGroup, orch Orchestrator, orgs RoleSource) {
	h := &Handler{orch: orch, orgs: orgs}
	orgGroup.GET("/:id/servers", h.listByOrg)
}
