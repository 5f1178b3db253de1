package annotate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"contentgroups/api/internal/auth"
)

// NonceStore makes edit-form tokens single use.
type NonceStore interface {
	SaveNonce(ctx context.Context, jti string, expiresAt time.Time) error
	ConsumeNonce(ctx context.Context, jti string) (bool, error)
}

// Tokens issues and verifies the authorization token carried by the edit
// form. Tokens are signed and bound to the document and the editor; with a
// NonceStore they are also consumed on first use.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	nonces NonceStore
	logger *zap.Logger
}

func NewTokens(secret string, ttl time.Duration, nonces NonceStore, logger *zap.Logger) *Tokens {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, nonces: nonces, logger: logger}
}

func (t *Tokens) Issue(ctx context.Context, documentID, actorID string) (string, error) {
	token, claims, err := auth.IssueNonce(t.secret, auth.ActionSaveContentGroup, documentID, actorID, t.ttl)
	if err != nil {
		return "", fmt.Errorf("issue form token: %w", err)
	}
	if t.nonces != nil {
		if err := t.nonces.SaveNonce(ctx, claims.JTI, time.Unix(claims.Exp, 0)); err != nil {
			return "", fmt.Errorf("remember form token: %w", err)
		}
	}
	return token, nil
}

// Verify reports whether token authorizes actorID to save documentID.
func (t *Tokens) Verify(ctx context.Context, token, documentID, actorID string) bool {
	if token == "" {
		return false
	}
	claims, err := auth.ParseNonce(t.secret, token, auth.ActionSaveContentGroup, documentID, actorID)
	if err != nil {
		t.logger.Debug("form token rejected", zap.String("document_id", documentID), zap.Error(err))
		return false
	}
	if t.nonces == nil {
		return true
	}
	consumed, err := t.nonces.ConsumeNonce(ctx, claims.JTI)
	if err != nil {
		t.logger.Warn("form token lookup failed", zap.String("document_id", documentID), zap.Error(err))
		return false
	}
	return consumed
}
