package service

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/knostfin/knost-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

const tokenPrefix = "knost_"

// APITokenService validates bearer tokens for the auth middleware. Token
// issuance lives outside this service; only lookup by hash is needed here.
type APITokenService struct {
	repo domain.APITokenRepository
}

// NewAPITokenService creates a new APITokenService
func NewAPITokenService(repo domain.APITokenRepository) *APITokenService {
	return &APITokenService{repo: repo}
}

// ValidateToken resolves a bearer token to its stored record
func (s *APITokenService) ValidateToken(ctx context.Context, token string) (*domain.APIToken, error) {
	if len(token) < len(tokenPrefix) || token[:len(tokenPrefix)] != tokenPrefix {
		return nil, domain.ErrAPITokenNotFound
	}

	apiToken, err := s.repo.GetByHash(ctx, hashToken(token))
	if err != nil {
		return nil, err
	}

	// Last-used bookkeeping must not block the request path
	go func() {
		if updateErr := s.repo.UpdateLastUsed(context.Background(), apiToken.ID); updateErr != nil {
			log.Error().Err(updateErr).Str("token_id", apiToken.ID.String()).Msg("Failed to update last_used_at")
		}
	}()

	return apiToken, nil
}

// hashToken creates a SHA-256 hash of the token
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", hash)
}
