package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/knostfin/knost-backend/internal/domain"
	"github.com/knostfin/knost-backend/internal/testutil"
)

func TestHashToken(t *testing.T) {
	token := "knost_testtoken123"
	hash := hashToken(token)

	// SHA-256 produces 64 hex characters
	if len(hash) != 64 {
		t.Errorf("Expected hash length 64, got %d", len(hash))
	}

	// Same input should produce same hash
	hash2 := hashToken(token)
	if hash != hash2 {
		t.Error("Same token should produce same hash")
	}

	// Different input should produce different hash
	hash3 := hashToken("knost_differenttoken")
	if hash == hash3 {
		t.Error("Different tokens should produce different hashes")
	}
}

func TestValidateToken_InvalidFormat(t *testing.T) {
	repo := testutil.NewMockAPITokenRepository()
	service := NewAPITokenService(repo)

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"no prefix", "abc123"},
		{"wrong prefix", "wrong_abc123"},
		{"partial prefix", "knos_abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ValidateToken(context.Background(), tt.token)
			if err != domain.ErrAPITokenNotFound {
				t.Errorf("ValidateToken(%s) expected ErrAPITokenNotFound, got %v", tt.token, err)
			}
		})
	}
}

func TestValidateToken_Success(t *testing.T) {
	repo := testutil.NewMockAPITokenRepository()
	service := NewAPITokenService(repo)

	userID := uuid.New()
	token := "knost_sometoken"
	repo.ByHash[hashToken(token)] = &domain.APIToken{
		ID:     uuid.New(),
		UserID: userID,
		Name:   "CLI",
	}

	result, err := service.ValidateToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if result.UserID != userID {
		t.Errorf("Expected user %s, got %s", userID, result.UserID)
	}
}

func TestValidateToken_Unknown(t *testing.T) {
	repo := testutil.NewMockAPITokenRepository()
	service := NewAPITokenService(repo)

	_, err := service.ValidateToken(context.Background(), "knost_unknown")
	if err != domain.ErrAPITokenNotFound {
		t.Errorf("Expected ErrAPITokenNotFound, got %v", err)
	}
}

func TestValidateToken_Revoked(t *testing.T) {
	repo := testutil.NewMockAPITokenRepository()
	service := NewAPITokenService(repo)

	token := "knost_revoked"
	revokedAt := time.Now().Add(-time.Hour)
	repo.ByHash[hashToken(token)] = &domain.APIToken{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Name:      "Old CLI",
		RevokedAt: &revokedAt,
	}

	_, err := service.ValidateToken(context.Background(), token)
	if err != domain.ErrAPITokenNotFound {
		t.Errorf("Expected ErrAPITokenNotFound for revoked token, got %v", err)
	}
}
