// Package session persists the authenticated session: access and refresh
// tokens, the signed-in user and the bookkeeping flags the HTTP client uses
// when the backend rejects a token.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/five82/harmonic/internal/model"
)

// Storage keys.
const (
	KeyAccessToken             = "accessToken"
	KeyRefreshToken            = "refreshToken"
	KeyUser                    = "user"
	KeyTokenVerificationFailed = "token_verification_failed"
	KeyLastRefreshAttempt      = "lastTokenRefreshAttempt"
)

// AuthKeys are removed when the session is torn down.
var AuthKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser, KeyLastRefreshAttempt}

// Manager reads and writes the session through a Storage.
type Manager struct {
	storage Storage
	now     func() time.Time
}

// NewManager wraps storage.
func NewManager(storage Storage) *Manager {
	return &Manager{storage: storage, now: time.Now}
}

// Storage returns the underlying storage.
func (m *Manager) Storage() Storage { return m.storage }

func (m *Manager) get(ctx context.Context, key string) (string, error) {
	v, err := m.storage.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// Token returns the stored access token or "".
func (m *Manager) Token(ctx context.Context) (string, error) {
	return m.get(ctx, KeyAccessToken)
}

// RefreshToken returns the stored refresh token or "".
func (m *Manager) RefreshToken(ctx context.Context) (string, error) {
	return m.get(ctx, KeyRefreshToken)
}

// User returns the stored user, or nil when nobody is signed in.
func (m *Manager) User(ctx context.Context) (*model.User, error) {
	raw, err := m.get(ctx, KeyUser)
	if err != nil || raw == "" {
		return nil, err
	}
	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode stored user: %w", err)
	}
	return &u, nil
}

// Save stores a fresh login or refresh result and clears the
// verification-failed flag.
func (m *Manager) Save(ctx context.Context, res model.AuthResult) error {
	if res.Token == "" {
		return errors.New("save session: empty token")
	}
	if err := m.storage.Set(ctx, KeyAccessToken, res.Token); err != nil {
		return err
	}
	if res.RefreshToken != "" {
		if err := m.storage.Set(ctx, KeyRefreshToken, res.RefreshToken); err != nil {
			return err
		}
	}
	if res.User.ID != 0 || res.User.Username != "" {
		raw, err := json.Marshal(res.User)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		if err := m.storage.Set(ctx, KeyUser, string(raw)); err != nil {
			return err
		}
	}
	return m.storage.Delete(ctx, KeyTokenVerificationFailed)
}

// UpdateTokens replaces the tokens after a refresh, keeping the stored user.
func (m *Manager) UpdateTokens(ctx context.Context, token, refresh string) error {
	if token == "" {
		return errors.New("update tokens: empty token")
	}
	if err := m.storage.Set(ctx, KeyAccessToken, token); err != nil {
		return err
	}
	if refresh != "" {
		return m.storage.Set(ctx, KeyRefreshToken, refresh)
	}
	return nil
}

// Clear removes every auth key. The verification flag is left alone so the
// caller can still see why the session ended.
func (m *Manager) Clear(ctx context.Context) error {
	return m.storage.Delete(ctx, AuthKeys...)
}

// Invalidate tears down the session after the backend rejected the token and
// records token_verification_failed = "true".
func (m *Manager) Invalidate(ctx context.Context) error {
	if err := m.Clear(ctx); err != nil {
		return err
	}
	return m.storage.Set(ctx, KeyTokenVerificationFailed, "true")
}

// VerificationFailed reports whether the last session was invalidated.
func (m *Manager) VerificationFailed(ctx context.Context) (bool, error) {
	v, err := m.get(ctx, KeyTokenVerificationFailed)
	return v == "true", err
}

// RecordRefreshAttempt stores the current time as the last refresh attempt.
func (m *Manager) RecordRefreshAttempt(ctx context.Context) error {
	return m.storage.Set(ctx, KeyLastRefreshAttempt, strconv.FormatInt(m.now().UnixMilli(), 10))
}

// LastRefreshAttempt returns the time of the last refresh attempt, or zero.
func (m *Manager) LastRefreshAttempt(ctx context.Context) (time.Time, error) {
	raw, err := m.get(ctx, KeyLastRefreshAttempt)
	if err != nil || raw == "" {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms), nil
}

// IsDemo reports whether the stored session is a locally minted demo
// session. Demo sessions issued by the backend behave like normal logins.
func (m *Manager) IsDemo(ctx context.Context) (bool, error) {
	token, err := m.Token(ctx)
	if err != nil || token == "" {
		return false, err
	}
	return IsDemoToken(token), nil
}
