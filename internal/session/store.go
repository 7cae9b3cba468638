package session

import (
	"context"
	"errors"
	"time"

	"anoa.com/akademika/internal/entity"
	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side record behind an issued token.
type Session struct {
	ID         string      `json:"id"`
	UserID     uuid.UUID   `json:"user_id"`
	Role       entity.Role `json:"role"`
	CreatedAt  time.Time   `json:"created_at"`
	LastSeenAt time.Time   `json:"last_seen_at"`
	// ExpiresAt is the absolute cut-off regardless of activity.
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether s is past its absolute lifetime or idle for longer than idleTTL.
func (s *Session) Expired(now time.Time, idleTTL time.Duration) bool {
	if !now.Before(s.ExpiresAt) {
		return true
	}
	return idleTTL > 0 && !now.Before(s.LastSeenAt.Add(idleTTL))
}

// remaining is how long the record must be kept from now.
func (s *Session) remaining(now time.Time, idleTTL time.Duration) time.Duration {
	ttl := s.ExpiresAt.Sub(now)
	if idleTTL > 0 {
		if idle := s.LastSeenAt.Add(idleTTL).Sub(now); idle < ttl {
			ttl = idle
		}
	}
	return ttl
}

type Store interface {
	Create(ctx context.Context, s *Session, idleTTL time.Duration) error
	// Get returns ErrSessionNotFound for unknown or already-expired ids.
	Get(ctx context.Context, id string) (*Session, error)
	Touch(ctx context.Context, id string, seenAt time.Time, idleTTL time.Duration) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	// SweepExpired drops expired records and returns how many were removed.
	SweepExpired(ctx context.Context, now time.Time, idleTTL time.Duration) (int, error)
}
