package session

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/harmonic/internal/model"
)

func storages(t *testing.T) map[string]Storage {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"sqlite": sqlite,
	}
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, st := range storages(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Get(ctx, "missing")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, st.Set(ctx, "a", "1"))
			require.NoError(t, st.Set(ctx, "a", "2"))
			require.NoError(t, st.Set(ctx, "b", "3"))

			v, err := st.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "2", v)

			require.NoError(t, st.Delete(ctx, "a", "b", "never-set"))
			_, err = st.Get(ctx, "b")
			assert.ErrorIs(t, err, ErrNotFound)
			require.NoError(t, st.Delete(ctx))
		})
	}
}

func TestSQLiteStoragePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	first, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, KeyAccessToken, "tok"))
	require.NoError(t, first.Close())

	second, err := OpenSQLite(path)
	require.NoError(t, err)
	defer second.Close()
	v, err := second.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", v)
}

func TestManagerSaveAndClear(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStorage()
	m := NewManager(st)

	require.NoError(t, st.Set(ctx, KeyTokenVerificationFailed, "true"))
	err := m.Save(ctx, model.AuthResult{
		Token:        "access",
		RefreshToken: "refresh",
		User:         model.User{ID: 3, Username: "ada", Email: "ada@example.com"},
	})
	require.NoError(t, err)

	token, err := m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access", token)
	refresh, err := m.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refresh)
	user, err := m.User(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ada", user.Username)

	failed, err := m.VerificationFailed(ctx)
	require.NoError(t, err)
	assert.False(t, failed, "save clears the verification flag")

	require.NoError(t, m.RecordRefreshAttempt(ctx))
	require.NoError(t, m.Clear(ctx))
	assert.Empty(t, st.Keys())

	user, err = m.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestManagerSaveRejectsEmptyToken(t *testing.T) {
	m := NewManager(NewMemoryStorage())
	assert.Error(t, m.Save(context.Background(), model.AuthResult{}))
	assert.Error(t, m.UpdateTokens(context.Background(), "", "r"))
}

func TestManagerInvalidate(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStorage()
	m := NewManager(st)
	require.NoError(t, m.Save(ctx, model.AuthResult{Token: "a", RefreshToken: "r", User: model.User{ID: 1, Username: "x"}}))

	require.NoError(t, m.Invalidate(ctx))

	keys := st.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{KeyTokenVerificationFailed}, keys)
	failed, err := m.VerificationFailed(ctx)
	require.NoError(t, err)
	assert.True(t, failed)
}

func TestManagerRefreshAttempt(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStorage())
	fixed := time.UnixMilli(1_700_000_000_000)
	m.now = func() time.Time { return fixed }

	last, err := m.LastRefreshAttempt(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	require.NoError(t, m.RecordRefreshAttempt(ctx))
	last, err = m.LastRefreshAttempt(ctx)
	require.NoError(t, err)
	assert.True(t, last.Equal(fixed))
}

func TestDemoSession(t *testing.T) {
	now := time.Now()
	res, err := NewDemoSession(now)
	require.NoError(t, err)
	assert.True(t, res.User.IsDemo)
	assert.Equal(t, DemoUserID, res.User.ID)
	assert.True(t, IsDemoToken(res.Token))
	assert.True(t, IsDemoToken(res.RefreshToken))
	assert.False(t, IsDemoToken("not-a-jwt"))

	exp, ok := TokenExpiry(res.Token)
	require.True(t, ok)
	assert.WithinDuration(t, now.Add(time.Hour), exp, time.Second)
	assert.False(t, ExpiresWithin(res.Token, now, 30*time.Second))
	assert.True(t, ExpiresWithin(res.Token, now.Add(time.Hour), 30*time.Second))

	later := now.Add(2 * time.Hour)
	fresh, err := RefreshDemoSession(res.RefreshToken, later)
	require.NoError(t, err)
	exp, ok = TokenExpiry(fresh)
	require.True(t, ok)
	assert.WithinDuration(t, later.Add(time.Hour), exp, time.Second)

	_, err = RefreshDemoSession(res.Token, later)
	assert.Error(t, err, "access tokens cannot refresh")
	_, err = RefreshDemoSession(res.RefreshToken, now.Add(48*time.Hour))
	assert.Error(t, err, "expired refresh token")
}

func TestManagerIsDemo(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStorage())
	demo, err := m.IsDemo(ctx)
	require.NoError(t, err)
	assert.False(t, demo)

	res, err := NewDemoSession(time.Now())
	require.NoError(t, err)
	require.NoError(t, m.Save(ctx, res))
	demo, err = m.IsDemo(ctx)
	require.NoError(t, err)
	assert.True(t, demo)
}

func TestTokenExpiryOpaque(t *testing.T) {
	_, ok := TokenExpiry("opaque-token")
	assert.False(t, ok)
	assert.False(t, ExpiresWithin("opaque-token", time.Now(), time.Minute))
}
