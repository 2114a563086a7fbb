package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nylund-us/broadcast-backend/internal/servers/domain"
)

type ServerRepo struct {
	db *pgxpool.Pool
}

func NewServerRepo(db *pgxpool.Pool) *ServerRepo {
	return &ServerRepo{db: db}
}

const serverCols = `id::text, organization_id::text, instance_id, created_at, updated_at`

// Create persists the row after a successful launch; the id was allocated
// by the orchestrator up front.
func (r *ServerRepo) Create(ctx context.Context, id, orgID, instanceID string) (*domain.Server, error) {
	const q = `
insert into servers (id, organization_id, instance_id)
values ($1::uuid, $2::uuid, $3)
returning ` + serverCols + `;`

	var s domain.Server
	err := r.db.QueryRow(ctx, q, id, orgID, instanceID).
		Scan(&s.ID, &s.OrganizationID, &s.InstanceID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ServerRepo) Get(ctx context.Context, id string) (*domain.Server, error) {
	const q = `select ` + serverCols + ` from servers where id = $1::uuid;`

	var s domain.Server
	err := r.db.QueryRow(ctx, q, id).
		Scan(&s.ID, &s.OrganizationID, &s.InstanceID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrServerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ServerRepo) ListByOrganization(ctx context.Context, orgID string) ([]domain.Server, error) {
	const q = `
select ` + serverCols + ` from servers
where organization_id = $1::uuid
order by created_at desc;`

	rows, err := r.db.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Server, 0, 8)
	for rows.Next() {
		var s domain.Server
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.InstanceID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListAll feeds the reconciler's row-vs-inventory diff.
func (r *ServerRepo) ListAll(ctx context.Context) ([]domain.Server, error) {
	const q = `select ` + serverCols + ` from servers order by created_at;`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Server, 0, 32)
	for rows.Next() {
		var s domain.Server
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.InstanceID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ServerRepo) Delete(ctx context.Context, id string) error {
	const q = `delete from servers where id = $1::uuid;`
	ct, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrServerNotFound
	}
	return nil
}
