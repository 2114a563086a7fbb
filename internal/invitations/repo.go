package invitations

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrAlreadyInvited     = errors.New("user already invited to this organization")
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

type Invitation struct {
	ID               string    `json:"id"`
	OrganizationID   string    `json:"organization_id"`
	OrganizationName string    `json:"organization_name,omitempty"`
	FromUserID       string    `json:"from_user_id"`
	FromDisplayName  string    `json:"from_display_name,omitempty"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, orgID, fromUserID, email, role string) (*Invitation, error) {
	const exists = `
select count(*) from invitations
where organization_id = $1::uuid and email = $2 and status = 'pending';
`
	var n int
	if err := r.db.QueryRow(ctx, exists, orgID, email).Scan(&n); err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrAlreadyInvited
	}

	const q = `
insert into invitations (organization_id, from_user_id, email, role)
values ($1::uuid, $2::uuid, $3, $4)
returning id::text, organization_id::text, from_user_id::text, email, role, status, created_at, updated_at;
`
	var inv Invitation
	err := r.db.QueryRow(ctx, q, orgID, fromUserID, email, role).
		Scan(&inv.ID, &inv.OrganizationID, &inv.FromUserID, &inv.Email, &inv.Role, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Invitation, error) {
	const q = `
select i.id::text, i.organization_id::text, o.name, i.from_user_id::text,
       coalesce(u.display_name, ''), i.email, i.role, i.status, i.created_at, i.updated_at
from invitations i
join organizations o on o.id = i.organization_id
join users u on u.id = i.from_user_id
where i.id = $1::uuid;
`
	var inv Invitation
	err := r.db.QueryRow(ctx, q, id).
		Scan(&inv.ID, &inv.OrganizationID, &inv.OrganizationName, &inv.FromUserID,
			&inv.FromDisplayName, &inv.Email, &inv.Role, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListForEmail returns every invitation addressed to the given email,
// newest first, with organization and sender names joined in.
func (r *Repo) ListForEmail(ctx context.Context, email string) ([]Invitation, error) {
	const q = `
select i.id::text, i.organization_id::text, o.name, i.from_user_id::text,
       coalesce(u.display_name, ''), i.email, i.role, i.status, i.created_at, i.updated_at
from invitations i
join organizations o on o.id = i.organization_id
join users u on u.id = i.from_user_id
where i.email = $1
order by i.created_at desc;
`
	rows, err := r.db.Query(ctx, q, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Invitation, 0, 8)
	for rows.Next() {
		var inv Invitation
		if err := rows.Scan(&inv.ID, &inv.OrganizationID, &inv.OrganizationName, &inv.FromUserID,
			&inv.FromDisplayName, &inv.Email, &inv.Role, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *Repo) ListByOrganization(ctx context.Context, orgID string) ([]Invitation, error) {
	const q = `
select i.id::text, i.organization_id::text, o.name, i.from_user_id::text,
       coalesce(u.display_name, ''), i.email, i.role, i.status, i.created_at, i.updated_at
from invitations i
join organizations o on o.id = i.organization_id
join users u on u.id = i.from_user_id
where i.organization_id = $1::uuid
order by i.created_at desc;
`
	rows, err := r.db.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Invitation, 0, 8)
	for rows.Next() {
		var inv Invitation
		if err := rows.Scan(&inv.ID, &inv.OrganizationID, &inv.OrganizationName, &inv.FromUserID,
			&inv.FromDisplayName, &inv.Email, &inv.Role, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *Repo) SetStatus(ctx context.Context, id, status string) error {
	const q = `
update invitations
set status = $2, updated_at = now()
where id = $1::uuid;
`
	ct, err := r.db.Exec(ctx, q, id, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrInvitationNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	const q = `delete from invitations where id = $1::uuid;`
	ct, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrInvitationNotFound
	}
	return nil
}
