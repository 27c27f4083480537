package actions

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/five82/harmonic/internal/events"
	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/model"
	"github.com/five82/harmonic/internal/response"
	"github.com/five82/harmonic/internal/services"
	"github.com/five82/harmonic/internal/session"
	"github.com/five82/harmonic/internal/state"
)

type recorder struct {
	*state.Store
	names []string
}

func (r *recorder) Dispatch(a state.Action) {
	r.names = append(r.names, a.Name())
	r.Store.Dispatch(a)
}

type fixture struct {
	actions *Actions
	store   *recorder
	session *session.Manager
	bus     *events.Bus
}

func newFixture(t *testing.T, handler http.HandlerFunc) fixture {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sess := session.NewManager(session.NewMemoryStorage())
	bus := &events.Bus{}
	client, err := httpclient.New(httpclient.Options{
		BaseURL:      server.URL,
		Retry:        httpclient.RetryPolicy{Statuses: httpclient.DefaultRetryStatuses},
		CacheEnabled: true,
		CacheTTL:     time.Minute,
		Session:      sess,
		Bus:          bus,
	})
	require.NoError(t, err)

	rec := &recorder{Store: &state.Store{}}
	return fixture{
		actions: New(rec, services.New(client, sess, nil), nil),
		store:   rec,
		session: sess,
		bus:     bus,
	}
}

func TestDemoLoginThenFetchUniverses_Deduplicates(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/demo-login" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "/api/universes", r.URL.Path)
		assert.Contains(t, r.Header.Get("Authorization"), "Bearer ")
		_, _ = io.WriteString(w, `{"universes":[
			{"id":1,"name":"Aurora"},
			{"id":2,"name":"Borealis"},
			{"id":1,"name":"Aurora v2"}
		]}`)
	})
	ctx := context.Background()

	res, err := f.actions.DemoLogin(ctx)
	require.NoError(t, err)

	token, _ := f.session.Token(ctx)
	assert.Equal(t, res.Token, token)
	user, _ := f.session.User(ctx)
	require.NotNil(t, user)
	assert.True(t, user.IsDemo)

	_, err = f.actions.FetchUniverses(ctx)
	require.NoError(t, err)

	snap := f.store.Snapshot()
	assert.True(t, snap.Auth.IsAuthenticated)
	assert.True(t, snap.Auth.IsDemo)
	require.Len(t, snap.Universes.Items, 2)
	assert.Equal(t, int64(1), snap.Universes.Items[0].ID)
	assert.Equal(t, "Aurora v2", snap.Universes.Items[0].Name)
	assert.Equal(t, state.StatusSucceeded, snap.Universes.Status)
	assert.Equal(t, []string{
		"auth/demoLogin/pending",
		"auth/demoLogin/fulfilled",
		"universes/fetchUniverses/pending",
		"universes/fetchUniverses/fulfilled",
	}, f.store.names)
}

func TestDemoLoginThenFetchUniverses_TokenCheckingBackend(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/auth/demo-login":
			_, _ = io.WriteString(w, `{"data":{"access_token":"issued","refresh_token":"r","user":{"id":5,"username":"guest"}}}`)
		case r.Header.Get("Authorization") != "Bearer issued":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Signature verification failed"}`)
		default:
			_, _ = io.WriteString(w, `{"universes":[{"id":1,"name":"Aurora"}]}`)
		}
	})
	ctx := context.Background()

	_, err := f.actions.DemoLogin(ctx)
	require.NoError(t, err)
	_, err = f.actions.FetchUniverses(ctx)
	require.NoError(t, err)

	snap := f.store.Snapshot()
	assert.True(t, snap.Auth.IsAuthenticated)
	assert.True(t, snap.Auth.IsDemo)
	require.Len(t, snap.Universes.Items, 1)
	assert.Equal(t, "Aurora", snap.Universes.Items[0].Name)
}

func TestCreateScene_AppendsToBothViewsAndSelects(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/universes/7/scenes":
			_, _ = io.WriteString(w, `{"scenes":[{"id":1,"universe_id":7,"name":"Prologue","scene_order":0}]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/scenes":
			var in services.SceneInput
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"scene": model.Scene{ID: 42, UniverseID: in.UniverseID, Name: in.Name, SceneOrder: 1},
			})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	_, err := f.actions.FetchScenes(ctx, 7)
	require.NoError(t, err)
	scene, err := f.actions.CreateScene(ctx, services.SceneInput{UniverseID: 7, Name: "Intro"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), scene.ID)

	snap := f.store.Snapshot()
	require.Len(t, snap.Scenes.Scenes, 2)
	assert.Equal(t, "Intro", snap.Scenes.Scenes[1].Name)
	indexed := snap.ScenesFor(7)
	require.Len(t, indexed, 2)
	assert.Equal(t, int64(42), indexed[1].ID)
	assert.Equal(t, int64(42), snap.Scenes.CurrentID)
	current, ok := snap.CurrentScene()
	require.True(t, ok)
	assert.Equal(t, "Intro", current.Name)
}

func TestRejectedActionCarriesFailure(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"universe not found"}`)
	})

	_, err := f.actions.FetchUniverse(context.Background(), 9)
	require.Error(t, err)

	snap := f.store.Snapshot()
	assert.Equal(t, state.StatusFailed, snap.Universes.Status)
	require.NotNil(t, snap.Universes.Error)
	assert.Equal(t, "universe not found", snap.Universes.Error.Message)
	assert.Equal(t, http.StatusNotFound, snap.Universes.Error.Status)
	assert.Equal(t, response.KindClient, snap.Universes.Error.Kind)
	assert.Equal(t, []string{"universes/fetchUniverse/pending", "universes/fetchUniverse/rejected"}, f.store.names)
}

func TestValidationFailureIsRejectedWithoutRequest(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	_, err := f.actions.CreateScene(context.Background(), services.SceneInput{UniverseID: 7})
	require.Error(t, err)
	snap := f.store.Snapshot()
	require.NotNil(t, snap.Scenes.Error)
	assert.Equal(t, "name is required", snap.Scenes.Error.Message)
}

func TestDeleteUniverseDropsItsScenes(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/universes":
			_, _ = io.WriteString(w, `[{"id":3,"name":"Doomed"}]`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/universes/3/scenes":
			_, _ = io.WriteString(w, `[{"id":8,"universe_id":3}]`)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/universes/3":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	_, err := f.actions.FetchUniverses(ctx)
	require.NoError(t, err)
	f.actions.SelectUniverse(3)
	_, err = f.actions.FetchScenes(ctx, 3)
	require.NoError(t, err)

	require.NoError(t, f.actions.DeleteUniverse(ctx, 3))
	snap := f.store.Snapshot()
	assert.Empty(t, snap.Universes.Items)
	assert.Zero(t, snap.Universes.CurrentID)
	assert.Empty(t, snap.Scenes.Scenes)
}

func TestLogoutResetsState(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	ctx := context.Background()
	_, err := f.actions.DemoLogin(ctx)
	require.NoError(t, err)

	require.NoError(t, f.actions.Logout(ctx))
	snap := f.store.Snapshot()
	assert.False(t, snap.Auth.IsAuthenticated)
	assert.Nil(t, snap.Auth.User)
	token, _ := f.session.Token(ctx)
	assert.Empty(t, token)
}

func TestWatchSignOut(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var store state.Store
	a := New(&store, nil, nil)
	bus := &events.Bus{}
	store.Dispatch(state.Action{Type: state.AuthLogin, Lifecycle: state.Fulfilled, Payload: model.AuthResult{User: model.User{ID: 1}}})

	changed, cancelSub := store.Subscribe()
	defer cancelSub()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.WatchSignOut(ctx, bus)
	}()

	require.Eventually(t, func() bool {
		bus.Publish(events.Event{Topic: events.TopicSignOut, Status: http.StatusUnauthorized, Message: "Token has expired"})
		select {
		case <-changed:
			return !store.Snapshot().Auth.IsAuthenticated
		case <-time.After(10 * time.Millisecond):
			return false
		}
	}, time.Second, 20*time.Millisecond)

	snap := store.Snapshot()
	assert.True(t, snap.Auth.VerificationFailed)
	require.NotNil(t, snap.Auth.Error)
	assert.Equal(t, "Token has expired", snap.Auth.Error.Message)

	cancel()
	<-done
}
