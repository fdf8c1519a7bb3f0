package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSessionDenied is returned when a subject has no live session entry.
	ErrSessionDenied = errors.New("auth: session not valid in service store")
	// ErrRefreshTokenMismatch is returned when a presented refresh token is
	// not the one most recently issued to the subject.
	ErrRefreshTokenMismatch = errors.New("auth: refresh token not recognised")
)

// refreshKeyPrefix namespaces refresh token hashes away from session entries.
const refreshKeyPrefix = "refresh:"

// SessionGate decides whether a previously issued token may keep being used
// and refreshed, based on the session cache.
//
// In the default permissive mode Refresh never denies: it either extends the
// subject's entry or creates one. Strict mode only extends existing entries.
type SessionGate struct {
	validator *Validator
	store     Store
	ttl       time.Duration
	strict    bool
}

func NewSessionGate(v *Validator, store Store, ttl time.Duration, strict bool) (*SessionGate, error) {
	if v == nil || store == nil {
		return nil, errors.New("auth: session gate needs a validator and a store")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session ttl must be > 0")
	}
	return &SessionGate{validator: v, store: store, ttl: ttl, strict: strict}, nil
}

// Refresh decodes raw (ignoring expiry), then creates or extends the
// subject's entry. Safe for concurrent use; the store resolves races.
func (g *SessionGate) Refresh(ctx context.Context, raw string) (bool, error) {
	tok, err := g.validator.DecodeForRefresh(raw)
	if err != nil {
		return false, err
	}
	subject := tok.Subject()
	if subject == "" {
		return false, ErrMissingSubject
	}

	if g.strict {
		return g.store.Extend(ctx, subject, g.ttl)
	}
	if _, err := g.store.Touch(ctx, subject, raw, g.ttl); err != nil {
		return false, err
	}
	return true, nil
}

// Open records a freshly issued token for subject, used at login, and
// remembers a hash of its refresh token.
func (g *SessionGate) Open(ctx context.Context, subject, raw, refreshToken string) error {
	if subject == "" {
		return ErrMissingSubject
	}
	if _, err := g.store.Touch(ctx, subject, raw, g.ttl); err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	return g.Rotate(ctx, subject, refreshToken)
}

// Rotate replaces the refresh token hash held for subject. Only the hash is
// stored.
func (g *SessionGate) Rotate(ctx context.Context, subject, refreshToken string) error {
	if subject == "" {
		return ErrMissingSubject
	}
	if refreshToken == "" {
		return ErrRefreshTokenMismatch
	}
	if err := g.store.Put(ctx, refreshKeyPrefix+subject, hashRefreshToken(refreshToken), g.ttl); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// Redeem checks presented against the subject's current refresh token, then
// extends the session. Callers must Rotate after reissuing.
func (g *SessionGate) Redeem(ctx context.Context, subject, presented string) error {
	if subject == "" {
		return ErrMissingSubject
	}
	stored, ok, err := g.store.Get(ctx, refreshKeyPrefix+subject)
	if err != nil {
		return err
	}
	if !ok || subtle.ConstantTimeCompare([]byte(stored), []byte(hashRefreshToken(presented))) != 1 {
		return ErrRefreshTokenMismatch
	}
	return g.Renewable(ctx, subject)
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Renewable extends subject's entry and reports ErrSessionDenied when there
// is none. A live entry is the authority for refreshing a token.
func (g *SessionGate) Renewable(ctx context.Context, subject string) error {
	if subject == "" {
		return ErrMissingSubject
	}
	ok, err := g.store.Extend(ctx, subject, g.ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionDenied
	}
	return nil
}
