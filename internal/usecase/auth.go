package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"KryptoMarket/internal/domain/models"
	domrepo "KryptoMarket/internal/domain/repository"
	xhttp "KryptoMarket/pkg/http"

	"github.com/google/uuid"
)

// AuthUseCase tracks the nonce handshake of the external portfolio login.
// Nothing here authenticates a user; it only records what the callback reported.
type AuthUseCase struct {
	sessions domrepo.SessionStore
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthUseCase(sessions domrepo.SessionStore, ttl time.Duration) *AuthUseCase {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AuthUseCase{sessions: sessions, ttl: ttl, now: time.Now}
}

// IssueNonce starts a pending login session.
func (uc *AuthUseCase) IssueNonce(ctx context.Context) (models.LoginSession, error) {
	now := uc.now().UTC()
	s := models.LoginSession{
		Nonce:     uuid.NewString(),
		Status:    models.SessionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.sessions.Save(ctx, s, uc.ttl); err != nil {
		return models.LoginSession{}, err
	}
	return s, nil
}

func (uc *AuthUseCase) LoginStatus(ctx context.Context, nonce string) (models.LoginSession, error) {
	nonce = strings.TrimSpace(nonce)
	if nonce == "" {
		return models.LoginSession{}, xhttp.BadRequestError("nonce is required")
	}
	return uc.get(ctx, nonce)
}

// Callback records the status reported for nonce. state must echo the nonce.
func (uc *AuthUseCase) Callback(ctx context.Context, nonce, state, status string) (models.LoginSession, error) {
	if nonce == "" || state == "" || status == "" {
		return models.LoginSession{}, xhttp.BadRequestError("nonce, state and status are required")
	}
	if state != nonce {
		return models.LoginSession{}, xhttp.BadRequestError("invalid state parameter")
	}

	s, err := uc.get(ctx, nonce)
	if err != nil {
		return models.LoginSession{}, err
	}

	now := uc.now().UTC()
	remaining := uc.ttl - now.Sub(s.CreatedAt)
	if remaining <= 0 {
		return models.LoginSession{}, xhttp.NotFoundError("login session expired")
	}

	s.Status = status
	s.UpdatedAt = now
	if err := uc.sessions.Save(ctx, s, remaining); err != nil {
		return models.LoginSession{}, err
	}
	return s, nil
}

func (uc *AuthUseCase) get(ctx context.Context, nonce string) (models.LoginSession, error) {
	s, err := uc.sessions.Get(ctx, nonce)
	if errors.Is(err, domrepo.ErrSessionNotFound) {
		return models.LoginSession{}, xhttp.NotFoundError("login session not found")
	}
	return s, err
}
