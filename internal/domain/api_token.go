package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAPITokenNotFound = errors.New("api token not found")

// APIToken maps a bearer token (stored hashed) to a user identity.
// Issuance and revocation happen outside this service.
type APIToken struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"userId"`
	Name       string     `json:"name"`
	TokenHash  string     `json:"-"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type APITokenRepository interface {
	GetByHash(ctx context.Context, tokenHash string) (*APIToken, error)
	UpdateLastUsed(ctx context.Context, id uuid.UUID) error
}
