package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Options struct {
	Secret string
	// IdleTTL is the sliding inactivity window.
	IdleTTL time.Duration
	// MaxAge bounds a session's total lifetime.
	MaxAge time.Duration
}

// Manager issues signed tokens that reference server-side sessions. The token only
// carries the session id, so revoking the record invalidates the token immediately.
type Manager struct {
	store   Store
	secret  []byte
	idleTTL time.Duration
	maxAge  time.Duration
	now     func() time.Time
}

type claims struct {
	Role entity.Role `json:"role"`
	jwt.RegisteredClaims
}

func NewManager(store Store, opts Options) *Manager {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 24 * time.Hour
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 7 * 24 * time.Hour
	}
	return &Manager{
		store:   store,
		secret:  []byte(opts.Secret),
		idleTTL: opts.IdleTTL,
		maxAge:  opts.MaxAge,
		now:     time.Now,
	}
}

// Issue opens a session for user and returns its token and absolute expiry.
func (m *Manager) Issue(ctx context.Context, user *entity.User) (string, time.Time, error) {
	now := m.now()
	s := &Session{
		ID:         randomID(),
		UserID:     user.ID,
		Role:       user.Role,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(m.maxAge),
	}
	if err := m.store.Create(ctx, s, m.idleTTL); err != nil {
		return "", time.Time{}, err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		_ = m.store.Delete(ctx, s.ID)
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, s.ExpiresAt, nil
}

// Resolve verifies token, loads its session and slides the inactivity window.
// Forged, unknown and expired tokens are reported as apperror.ErrUnauthorized.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	id, err := m.sessionID(token)
	if err != nil {
		return nil, err
	}

	s, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, apperror.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	now := m.now()
	if s.Expired(now, m.idleTTL) {
		_ = m.store.Delete(ctx, id)
		return nil, apperror.ErrUnauthorized
	}

	if err := m.store.Touch(ctx, id, now, m.idleTTL); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		slog.Warn("failed to touch session", "session_id", id, "error", err)
	}
	s.LastSeenAt = now
	return s, nil
}

func (m *Manager) Revoke(ctx context.Context, token string) error {
	id, err := m.sessionID(token)
	if err != nil {
		return err
	}
	return m.store.Delete(ctx, id)
}

// RevokeUser ends every session of userID, e.g. after a password reset.
func (m *Manager) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	return m.store.DeleteByUser(ctx, userID)
}

// Sweep removes expired sessions from the store.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	return m.store.SweepExpired(ctx, m.now(), m.idleTTL)
}

func (m *Manager) sessionID(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return "", apperror.ErrUnauthorized
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || c.ID == "" {
		return "", apperror.ErrUnauthorized
	}
	return c.ID, nil
}

func randomID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("session: crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}
