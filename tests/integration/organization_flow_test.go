package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nylund-us/broadcast-backend/internal/organizations"
	"github.com/nylund-us/broadcast-backend/internal/servers/repository"
	"github.com/nylund-us/broadcast-backend/internal/users"
)

func createUser(t *testing.T, repo *users.Repo, uid, email string) string {
	t.Helper()
	id, err := repo.EnsureUser(context.Background(), users.UpsertUser{
		FirebaseUID: uid,
		Email:       email,
		DisplayName: "Test " + uid,
	})
	require.NoError(t, err)
	return id
}

func TestOrganizationLifecycle(t *testing.T) {
	pool := setupTestPostgres(t)
	ctx := context.Background()

	userRepo := users.NewRepo(pool)
	orgRepo := organizations.NewRepo(pool)

	owner := createUser(t, userRepo, "uid-owner", "owner@example.com")
	other := createUser(t, userRepo, "uid-other", "other@example.com")

	t.Run("creator becomes owner", func(t *testing.T) {
		org, err := orgRepo.Create(ctx, owner, "Acme", "test org")
		require.NoError(t, err)

		role, err := orgRepo.Role(ctx, org.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, organizations.RoleOwner, role)

		role, err = orgRepo.Role(ctx, org.ID, other)
		require.NoError(t, err)
		assert.Empty(t, role, "non-member role must be the zero value")
	})

	t.Run("add and remove member", func(t *testing.T) {
		org, err := orgRepo.Create(ctx, owner, "Acme 2", "")
		require.NoError(t, err)

		require.NoError(t, orgRepo.AddMember(ctx, org.ID, other, organizations.RoleMember))
		// Adding again is a no-op, not an error.
		require.NoError(t, orgRepo.AddMember(ctx, org.ID, other, organizations.RoleMember))

		got, err := orgRepo.Get(ctx, org.ID)
		require.NoError(t, err)
		assert.Len(t, got.Members, 2)

		require.NoError(t, orgRepo.RemoveMember(ctx, org.ID, other))
		got, err = orgRepo.Get(ctx, org.ID)
		require.NoError(t, err)
		assert.Len(t, got.Members, 1)
	})

	t.Run("list for user", func(t *testing.T) {
		orgs, err := orgRepo.ListForUser(ctx, owner)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(orgs), 2)

		orgs, err = orgRepo.ListForUser(ctx, other)
		require.NoError(t, err)
		assert.Empty(t, orgs)
	})

	t.Run("update", func(t *testing.T) {
		org, err := orgRepo.Create(ctx, owner, "Before", "desc")
		require.NoError(t, err)

		name := "After"
		got, err := orgRepo.Update(ctx, org.ID, &name, nil)
		require.NoError(t, err)
		assert.Equal(t, "After", got.Name)
		assert.Equal(t, "desc", got.Description, "nil fields keep their value")

		_, err = orgRepo.Update(ctx, org.ID, nil, nil)
		assert.ErrorIs(t, err, organizations.ErrNoValidFields)
	})

	t.Run("delete refuses while servers exist", func(t *testing.T) {
		org, err := orgRepo.Create(ctx, owner, "With Server", "")
		require.NoError(t, err)

		serverRepo := repository.NewServerRepo(pool)
		srv, err := serverRepo.Create(ctx, "7b0e8f3c-2f6a-4d64-9c1e-000000000001", org.ID, "i-0abc")
		require.NoError(t, err)

		err = orgRepo.Delete(ctx, org.ID)
		assert.ErrorIs(t, err, organizations.ErrOrganizationNotEmpty)

		require.NoError(t, serverRepo.Delete(ctx, srv.ID))
		require.NoError(t, orgRepo.Delete(ctx, org.ID))

		_, err = orgRepo.Get(ctx, org.ID)
		assert.ErrorIs(t, err, organizations.ErrOrgNotFound)
	})
}
