package organizations

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Create inserts the organization and makes the creator its owner, in one
// transaction.
func (r *Repo) Create(ctx context.Context, userID, name, description string) (*Organization, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertOrg = `
insert into organizations (name, description)
values ($1, $2)
returning id::text, name, description, color, created_at, updated_at;
`
	var o Organization
	if err := tx.QueryRow(ctx, insertOrg, name, description).
		Scan(&o.ID, &o.Name, &o.Description, &o.Color, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	const insertOwner = `
insert into organization_members (organization_id, user_id, role)
values ($1::uuid, $2::uuid, 'owner');
`
	if _, err := tx.Exec(ctx, insertOwner, o.ID, userID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	o.Members = []Member{{UserID: userID, Role: RoleOwner}}
	return &o, nil
}

// ListForUser returns the organizations the user is a member of.
func (r *Repo) ListForUser(ctx context.Context, userID string) ([]Organization, error) {
	const q = `
select o.id::text, o.name, o.description, o.color, o.created_at, o.updated_at
from organizations o
join organization_members m on m.organization_id = o.id
where m.user_id = $1::uuid
order by o.created_at desc;
`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Organization, 0, 8)
	for rows.Next() {
		var o Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Description, &o.Color, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Get loads one organization with its member list.
func (r *Repo) Get(ctx context.Context, orgID string) (*Organization, error) {
	const q = `
select id::text, name, description, color, created_at, updated_at
from organizations
where id = $1::uuid;
`
	var o Organization
	err := r.db.QueryRow(ctx, q, orgID).
		Scan(&o.ID, &o.Name, &o.Description, &o.Color, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrgNotFound
	}
	if err != nil {
		return nil, err
	}

	const members = `
select m.user_id::text, coalesce(u.email, ''), coalesce(u.display_name, ''), m.role
from organization_members m
join users u on u.id = m.user_id
where m.organization_id = $1::uuid
order by m.created_at;
`
	rows, err := r.db.Query(ctx, members, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Email, &m.DisplayName, &m.Role); err != nil {
			return nil, err
		}
		o.Members = append(o.Members, m)
	}
	return &o, rows.Err()
}

// Role returns the caller's role in the organization, or "" when the user
// is not a member. The zero value lets the gate distinguish non-members
// without a second query.
func (r *Repo) Role(ctx context.Context, orgID, userID string) (string, error) {
	const q = `
select role from organization_members
where organization_id = $1::uuid and user_id = $2::uuid;
`
	var role string
	err := r.db.QueryRow(ctx, q, orgID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

func (r *Repo) Update(ctx context.Context, orgID string, name, description *string) (*Organization, error) {
	if name == nil && description == nil {
		return nil, ErrNoValidFields
	}

	const q = `
update organizations
set name = coalesce($2, name),
    description = coalesce($3, description),
    updated_at = now()
where id = $1::uuid
returning id::text, name, description, color, created_at, updated_at;
`
	var o Organization
	err := r.db.QueryRow(ctx, q, orgID, name, description).
		Scan(&o.ID, &o.Name, &o.Description, &o.Color, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrgNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Delete removes the organization. It refuses while any server row still
// references it: server rows are the only handle back to live instances.
func (r *Repo) Delete(ctx context.Context, orgID string) error {
	const countServers = `select count(*) from servers where organization_id = $1::uuid;`

	var n int
	if err := r.db.QueryRow(ctx, countServers, orgID).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrOrganizationNotEmpty
	}

	const del = `delete from organizations where id = $1::uuid;`
	ct, err := r.db.Exec(ctx, del, orgID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrOrgNotFound
	}
	return nil
}

func (r *Repo) AddMember(ctx context.Context, orgID, userID, role string) error {
	const q = `
insert into organization_members (organization_id, user_id, role)
values ($1::uuid, $2::uuid, $3)
on conflict (organization_id, user_id) do nothing;
`
	_, err := r.db.Exec(ctx, q, orgID, userID, role)
	return err
}

func (r *Repo) RemoveMember(ctx context.Context, orgID, userID string) error {
	const q = `
delete from organization_members
where organization_id = $1::uuid and user_id = $2::uuid;
`
	_, err := r.db.Exec(ctx, q, orgID, userID)
	return err
}
