package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knostfin/knost-backend/internal/domain"
)

// APITokenRepository implements domain.APITokenRepository using PostgreSQL
type APITokenRepository struct {
	pool *pgxpool.Pool
}

// NewAPITokenRepository creates a new APITokenRepository
func NewAPITokenRepository(pool *pgxpool.Pool) *APITokenRepository {
	return &APITokenRepository{pool: pool}
}

// GetByHash retrieves an active API token by its hash (for authentication)
func (r *APITokenRepository) GetByHash(ctx context.Context, hash string) (*domain.APIToken, error) {
	var (
		token      domain.APIToken
		lastUsedAt pgtype.Timestamptz
		revokedAt  pgtype.Timestamptz
		createdAt  pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, token_hash, last_used_at, revoked_at, created_at
		FROM api_tokens
		WHERE token_hash = $1 AND revoked_at IS NULL`,
		hash,
	).Scan(
		&token.ID, &token.UserID, &token.Name, &token.TokenHash,
		&lastUsedAt, &revokedAt, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAPITokenNotFound
		}
		return nil, err
	}

	if lastUsedAt.Valid {
		token.LastUsedAt = &lastUsedAt.Time
	}
	if revokedAt.Valid {
		token.RevokedAt = &revokedAt.Time
	}
	token.CreatedAt = createdAt.Time

	return &token, nil
}

// UpdateLastUsed updates the last_used_at timestamp for a token
func (r *APITokenRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE api_tokens
		SET last_used_at = now()
		WHERE id = $1`,
		id,
	)
	return err
}
