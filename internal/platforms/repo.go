package platforms

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrPlatformNotFound = errors.New("platform not found")

// Platform is an external streaming target an organization broadcasts to.
type Platform struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	BaseURL        string    `json:"base_url"`
	APIKey         string    `json:"api_key,omitempty"`
	Color          string    `json:"color"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

const platformCols = `id::text, organization_id::text, name, base_url, api_key, color, created_at, updated_at`

func (r *Repo) Create(ctx context.Context, orgID, name, baseURL, apiKey string) (*Platform, error) {
	const q = `
insert into platforms (organization_id, name, base_url, api_key)
values ($1::uuid, $2, $3, $4)
returning ` + platformCols + `;`

	var p Platform
	err := r.db.QueryRow(ctx, q, orgID, name, baseURL, apiKey).
		Scan(&p.ID, &p.OrganizationID, &p.Name, &p.BaseURL, &p.APIKey, &p.Color, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Platform, error) {
	const q = `select ` + platformCols + ` from platforms where id = $1::uuid;`

	var p Platform
	err := r.db.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.OrganizationID, &p.Name, &p.BaseURL, &p.APIKey, &p.Color, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlatformNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ListByOrganization(ctx context.Context, orgID string) ([]Platform, error) {
	const q = `
select ` + platformCols + ` from platforms
where organization_id = $1::uuid
order by created_at desc;`

	rows, err := r.db.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Platform, 0, 8)
	for rows.Next() {
		var p Platform
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.BaseURL, &p.APIKey, &p.Color, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Update(ctx context.Context, id string, name, baseURL, apiKey *string) (*Platform, error) {
	const q = `
update platforms
set name = coalesce($2, name),
    base_url = coalesce($3, base_url),
    api_key = coalesce($4, api_key),
    updated_at = now()
where id = $1::uuid
returning ` + platformCols + `;`

	var p Platform
	err := r.db.QueryRow(ctx, q, id, name, baseURL, apiKey).
		Scan(&p.ID, &p.OrganizationID, &p.Name, &p.BaseURL, &p.APIKey, &p.Color, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlatformNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	const q = `delete from platforms where id = $1::uuid;`
	ct, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrPlatformNotFound
	}
	return nil
}
