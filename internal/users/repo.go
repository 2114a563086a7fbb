package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type UpsertUser struct {
	FirebaseUID string
	Email       string
	DisplayName string
}

// EnsureUser creates the user row on first sight and refreshes profile
// fields afterwards. Returns the internal user id.
func (r *Repo) EnsureUser(ctx context.Context, u UpsertUser) (string, error) {
	if u.FirebaseUID == "" {
		return "", fmt.Errorf("firebase_uid required")
	}

	const q = `
insert into users (firebase_uid, email, display_name, updated_at)
values ($1, nullif($2,''), nullif($3,''), now())
on conflict (firebase_uid) do update
set
  email = coalesce(excluded.email, users.email),
  display_name = coalesce(excluded.display_name, users.display_name),
  updated_at = now()
returning id::text;
`
	var id string
	if err := r.db.QueryRow(ctx, q, u.FirebaseUID, u.Email, u.DisplayName).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

type User struct {
	ID          string `json:"id"`
	FirebaseUID string `json:"-"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// GetByEmail resolves an email to the local user, used by the invitation
// flow to detect addressees who already have an account.
func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
select id::text, firebase_uid, coalesce(email, ''), coalesce(display_name, '')
from users
where email = $1;
`
	var u User
	err := r.db.QueryRow(ctx, q, email).Scan(&u.ID, &u.FirebaseUID, &u.Email, &u.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
