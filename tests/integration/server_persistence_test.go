package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nylund-us/broadcast-backend/internal/organizations"
	"github.com/nylund-us/broadcast-backend/internal/servers/domain"
	"github.com/nylund-us/broadcast-backend/internal/servers/repository"
	"github.com/nylund-us/broadcast-backend/internal/users"
)

func TestServerRepo(t *testing.T) {
	pool := setupTestPostgres(t)
	ctx := context.Background()

	userRepo := users.NewRepo(pool)
	orgRepo := organizations.NewRepo(pool)
	serverRepo := repository.NewServerRepo(pool)

	owner := createUser(t, userRepo, "uid-owner", "owner@example.com")
	org, err := orgRepo.Create(ctx, owner, "Acme", "")
	require.NoError(t, err)
	org2, err := orgRepo.Create(ctx, owner, "Other", "")
	require.NoError(t, err)

	t.Run("create and get", func(t *testing.T) {
		id := uuid.New().String()
		created, err := serverRepo.Create(ctx, id, org.ID, "i-0abc123")
		require.NoError(t, err)
		assert.Equal(t, id, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		got, err := serverRepo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "i-0abc123", got.InstanceID)
		assert.Equal(t, org.ID, got.OrganizationID)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := serverRepo.Get(ctx, uuid.New().String())
		assert.ErrorIs(t, err, domain.ErrServerNotFound)
	})

	t.Run("list is scoped to the organization", func(t *testing.T) {
		_, err := serverRepo.Create(ctx, uuid.New().String(), org2.ID, "i-0other")
		require.NoError(t, err)

		servers, err := serverRepo.ListByOrganization(ctx, org.ID)
		require.NoError(t, err)
		require.Len(t, servers, 1)
		assert.Equal(t, "i-0abc123", servers[0].InstanceID)

		all, err := serverRepo.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("delete", func(t *testing.T) {
		id := uuid.New().String()
		_, err := serverRepo.Create(ctx, id, org.ID, "i-0gone")
		require.NoError(t, err)

		require.NoError(t, serverRepo.Delete(ctx, id))
		assert.ErrorIs(t, serverRepo.Delete(ctx, id), domain.ErrServerNotFound)
	})
}
