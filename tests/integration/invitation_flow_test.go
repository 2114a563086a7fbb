package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nylund-us/broadcast-backend/internal/invitations"
	"github.com/nylund-us/broadcast-backend/internal/organizations"
	"github.com/nylund-us/broadcast-backend/internal/users"
)

func TestInvitationFlow(t *testing.T) {
	pool := setupTestPostgres(t)
	ctx := context.Background()

	userRepo := users.NewRepo(pool)
	orgRepo := organizations.NewRepo(pool)
	invRepo := invitations.NewRepo(pool)

	owner := createUser(t, userRepo, "uid-owner", "owner@example.com")
	invitee := createUser(t, userRepo, "uid-invitee", "invitee@example.com")

	org, err := orgRepo.Create(ctx, owner, "Acme", "")
	require.NoError(t, err)

	t.Run("create and read back", func(t *testing.T) {
		inv, err := invRepo.Create(ctx, org.ID, owner, "invitee@example.com", organizations.RoleMember)
		require.NoError(t, err)
		assert.Equal(t, invitations.StatusPending, inv.Status)

		got, err := invRepo.Get(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme", got.OrganizationName)
		assert.Equal(t, "invitee@example.com", got.Email)

		mine, err := invRepo.ListForEmail(ctx, "invitee@example.com")
		require.NoError(t, err)
		require.Len(t, mine, 1)

		byOrg, err := invRepo.ListByOrganization(ctx, org.ID)
		require.NoError(t, err)
		require.Len(t, byOrg, 1)
	})

	t.Run("duplicate pending invitation is rejected", func(t *testing.T) {
		_, err := invRepo.Create(ctx, org.ID, owner, "invitee@example.com", organizations.RoleMember)
		assert.ErrorIs(t, err, invitations.ErrAlreadyInvited)
	})

	t.Run("accept adds the member", func(t *testing.T) {
		mine, err := invRepo.ListForEmail(ctx, "invitee@example.com")
		require.NoError(t, err)
		require.Len(t, mine, 1)
		inv := mine[0]

		require.NoError(t, orgRepo.AddMember(ctx, org.ID, invitee, inv.Role))
		require.NoError(t, invRepo.SetStatus(ctx, inv.ID, invitations.StatusAccepted))

		role, err := orgRepo.Role(ctx, org.ID, invitee)
		require.NoError(t, err)
		assert.Equal(t, organizations.RoleMember, role)

		got, err := invRepo.Get(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, invitations.StatusAccepted, got.Status)
	})

	t.Run("member lookup by email backs the duplicate check", func(t *testing.T) {
		// The create handler resolves the addressee's email to a user
		// and refuses when that user already holds a role in the org.
		u, err := userRepo.GetByEmail(ctx, "invitee@example.com")
		require.NoError(t, err)
		assert.Equal(t, invitee, u.ID)

		role, err := orgRepo.Role(ctx, org.ID, u.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, role)

		_, err = userRepo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, users.ErrUserNotFound)
	})

	t.Run("accepted invitation no longer blocks a new one", func(t *testing.T) {
		inv, err := invRepo.Create(ctx, org.ID, owner, "invitee@example.com", organizations.RoleAdmin)
		require.NoError(t, err)
		require.NoError(t, invRepo.Delete(ctx, inv.ID))

		_, err = invRepo.Get(ctx, inv.ID)
		assert.ErrorIs(t, err, invitations.ErrInvitationNotFound)
	})
}
