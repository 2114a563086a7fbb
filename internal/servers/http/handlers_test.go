package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nylund-us/broadcast-backend/internal/auth"
	"github.com/nylund-us/broadcast-backend/internal/servers/domain"
)

type fakeOrchestrator struct {
	servers   map[string]domain.Server
	deployed  []string
	commands  []string
	deleted   []string
	deployErr error
	cmdErr    error
	deleteErr error
}

func (f *fakeOrchestrator) Deploy(ctx context.Context, orgID string) (*domain.Server, error) {
	if f.deployErr != nil {
		return nil, f.deployErr
	}
	f.deployed = append(f.deployed, orgID)
	return &domain.Server{ID: "srv-new", OrganizationID: orgID, InstanceID: "i-new"}, nil
}

func (f *fakeOrchestrator) Get(ctx context.Context, serverID string, populate bool) (*domain.ServerWithInstance, error) {
	srv, ok := f.servers[serverID]
	if !ok {
		return nil, domain.ErrServerNotFound
	}
	return &domain.ServerWithInstance{Server: srv}, nil
}

func (f *fakeOrchestrator) ListByOrganization(ctx context.Context, orgID string, populate bool) ([]domain.ServerWithInstance, error) {
	var out []domain.ServerWithInstance
	for _, srv := range f.servers {
		if srv.OrganizationID == orgID {
			out = append(out, domain.ServerWithInstance{Server: srv})
		}
	}
	return out, nil
}

func (f *fakeOrchestrator) SendCommand(ctx context.Context, serverID, command string) error {
	if f.cmdErr != nil {
		return f.cmdErr
	}
	f.commands = append(f.commands, serverID+" "+command)
	return nil
}

func (f *fakeOrchestrator) Delete(ctx context.Context, serverID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, serverID)
	return nil
}

// fakeRoles maps "orgID userID" to a role; anything else is a non-member.
type fakeRoles struct {
	roles map[string]string
}

func (f *fakeRoles) Role(ctx context.Context, orgID, userID string) (string, error) {
	return f.roles[orgID+" "+userID], nil
}

func newTestRouter(orch Orchestrator, roles RoleSource, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.CtxUserDBID, userID)
	})
	Register(r.Group("/servers"), orch, roles)
	RegisterOrgSubroutes(r.Group("/organizations"), orch, roles)
	return r
}

func do(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func seededFakes() (*fakeOrchestrator, *fakeRoles) {
	orch := &fakeOrchestrator{
		servers: map[string]domain.Server{
			"srv-1": {ID: "srv-1", OrganizationID: "org-1", InstanceID: "i-1"},
		},
	}
	roles := &fakeRoles{roles: map[string]string{
		"org-1 owner-user":  "owner",
		"org-1 admin-user":  "admin",
		"org-1 member-user": "member",
	}}
	return orch, roles
}

func TestDeployHandler(t *testing.T) {
	t.Run("admin deploys", func(t *testing.T) {
		orch, roles := seededFakes()
		r := newTestRouter(orch, roles, "admin-user")

		w := do(r, http.MethodPost, "/servers/org-1")
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, []string{"org-1"}, orch.deployed)

		var body domain.Server
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "i-new", body.InstanceID)
	})

	t.Run("plain member is forbidden", func(t *testing.T) {
		orch, roles := seededFakes()
		r := newTestRouter(orch, roles, "member-user")

		w := do(r, http.MethodPost, "/servers/org-1")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, orch.deployed)
	})

	t.Run("non-member sees not found", func(t *testing.T) {
		orch, roles := seededFakes()
		r := newTestRouter(orch, roles, "stranger")

		w := do(r, http.MethodPost, "/servers/org-1")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("deploy failure", func(t *testing.T) {
		orch, roles := seededFakes()
		orch.deployErr = errors.New("boom")
		r := newTestRouter(orch, roles, "owner-user")

		w := do(r, http.MethodPost, "/servers/org-1")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to deploy instance.")
	})
}

func TestCommandHandler(t *testing.T) {
	t.Run("admin sends stop", func(t *testing.T) {
		orch, roles := seededFakes()
		r := newTestRouter(orch, roles, "admin-user")

		w := do(r, http.MethodPost, "/servers/srv-1/stop")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"srv-1 stop"}, orch.commands)
	})

	t.Run("unknown command", func(t *testing.T) {
		orch, roles := seededFakes()
		r := newTestRouter(orch, roles, "admin-user")

		w := do(r, http.MethodPost, "/servers/srv-1/hibernate")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, orch.commands)
	})

	t.Run("member cannot send commands", func(t *testing.T) {
		orch, roles := seededFakes()
		r := newTestRouter(orch, roles, "member-user")

		w := do(r, http.MethodPost, "/servers/srv-1/start")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, orch.commands)
	})

	t.Run("provider error passes through", func(t *testing.T) {
		orch, roles := seededFakes()
		orch.cmdErr = errors.New("IncorrectInstanceState")
		r := newTestRouter(orch, roles, "owner-user")

		w := do(r, http.MethodPost, "/servers/srv-1/restart")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "IncorrectInstanceState")
	})
}

func TestGetHandler(t *testing.T) {
	t.Run("member reads server", func(t *testing.T) {
		orch, roles := seededFakes()
		r := newTestRouter(orch, roles, "member-user")

		w := do(r, http.MethodGet, "/servers/srv-1")
		require.Equal(t, http.StatusOK, w.Code)

		var body domain.ServerWithInstance
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "srv-1", body.ID)
	})

	t.Run("unknown server", func(t *testing.T) {
		orch, roles := seededFakes()
		r := newTestRouter(orch, roles, "member-user")

		w := do(r, http.MethodGet, "/servers/srv-404")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("outsider is forbidden", func(t *testing.T) {
		orch, roles := seededFakes()
		r := newTestRouter(orch, roles, "stranger")

		w := do(r, http.MethodGet, "/servers/srv-1")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestListByOrgHandler(t *testing.T) {
	t.Run("member lists", func(t *testing.T) {
		orch, roles := seededFakes()
		r := newTestRouter(orch, roles, "member-user")

		w := do(r, http.MethodGet, "/organizations/org-1/servers")
		require.Equal(t, http.StatusOK, w.Code)

		var body []domain.ServerWithInstance
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body, 1)
		assert.Equal(t, "srv-1", body[0].ID)
	})

	t.Run("outsider is forbidden", func(t *testing.T) {
		orch, roles := seededFakes()
		r := newTestRouter(orch, roles, "stranger")

		w := do(r, http.MethodGet, "/organizations/org-1/servers")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestDeleteHandler(t *testing.T) {
	t.Run("owner deletes", func(t *testing.T) {
		orch, roles := seededFakes()
		r := newTestRouter(orch, roles, "owner-user")

		w := do(r, http.MethodDelete, "/servers/srv-1")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"srv-1"}, orch.deleted)
	})

	t.Run("member cannot delete", func(t *testing.T) {
		orch, roles := seededFakes()
		r := newTestRouter(orch, roles, "member-user")

		w := do(r, http.MethodDelete, "/servers/srv-1")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, orch.deleted)
	})

	t.Run("termination failure", func(t *testing.T) {
		orch, roles := seededFakes()
		orch.deleteErr = errors.New("api error")
		r := newTestRouter(orch, roles, "owner-user")

		w := do(r, http.MethodDelete, "/servers/srv-1")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to terminate instance.")
	})
}
