package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/and161185/goph-auth/internal/errs"
	"github.com/and161185/goph-auth/internal/model"
	"github.com/jackc/pgx/v5"
)

// CredentialRepo implements CredentialRepository using PostgreSQL.
type CredentialRepo struct{ db *DB }

// NewCredentialRepo constructs a credential repository.
func NewCredentialRepo(db *DB) *CredentialRepo { return &CredentialRepo{db: db} }

const credentialColumns = `id, email, password_hash, refresh_token, last_login_at, created_at, updated_at, deleted_at`

// FindByEmail selects a live credential by email.
func (r *CredentialRepo) FindByEmail(ctx context.Context, email model.Email) (*model.Credential, error) {
	const q = `
SELECT ` + credentialColumns + `
FROM credentials WHERE email=$1 AND deleted_at IS NULL`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, email.String()))
}

// FindByID selects a live credential by id.
func (r *CredentialRepo) FindByID(ctx context.Context, id string) (*model.Credential, error) {
	const q = `
SELECT ` + credentialColumns + `
FROM credentials WHERE id=$1 AND deleted_at IS NULL`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, id))
}

// Save upserts the record by id. Timestamps come from the database.
func (r *CredentialRepo) Save(ctx context.Context, c *model.Credential) (*model.Credential, error) {
	const q = `
INSERT INTO credentials (id, email, password_hash, refresh_token, last_login_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  password_hash = EXCLUDED.password_hash,
  refresh_token = EXCLUDED.refresh_token,
  last_login_at = EXCLUDED.last_login_at,
  updated_at = now()
RETURNING created_at, updated_at`
	out := c.Clone()
	err := r.db.Pool.QueryRow(ctx, q, c.ID, c.Email.String(), c.PasswordHash, c.RefreshToken, c.LastLoginAt).
		Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errs.ErrAlreadyExists
		}
		return nil, err
	}
	return out, nil
}

// UpdateRefreshToken overwrites refresh_token. A missing row is not an error.
func (r *CredentialRepo) UpdateRefreshToken(ctx context.Context, id string, token *string) error {
	const q = `
UPDATE credentials SET refresh_token = $2, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`
	_, err := r.db.Pool.Exec(ctx, q, id, token)
	return err
}

// SwapRefreshToken rotates the token only if the stored value still equals oldToken.
func (r *CredentialRepo) SwapRefreshToken(ctx context.Context, id, oldToken, newToken string) (bool, error) {
	const q = `
UPDATE credentials SET refresh_token = $3, updated_at = now()
WHERE id = $1 AND refresh_token = $2 AND deleted_at IS NULL`
	tag, err := r.db.Pool.Exec(ctx, q, id, oldToken, newToken)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateLastLogin sets last_login_at.
func (r *CredentialRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	const q = `
UPDATE credentials SET last_login_at = $2, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`
	_, err := r.db.Pool.Exec(ctx, q, id, at)
	return err
}

func (r *CredentialRepo) scanOne(row pgx.Row) (*model.Credential, error) {
	var (
		c     model.Credential
		email string
	)
	err := row.Scan(&c.ID, &email, &c.PasswordHash, &c.RefreshToken, &c.LastLoginAt, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	e, err := model.NewEmail(email)
	if err != nil {
		return nil, err
	}
	c.Email = e
	return &c, nil
}
