package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/harmonic/internal/events"
	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/model"
	"github.com/five82/harmonic/internal/response"
	"github.com/five82/harmonic/internal/session"
)

type fixture struct {
	svc     *Services
	client  *httpclient.Client
	session *session.Manager
}

func newFixture(t *testing.T, handler http.HandlerFunc) fixture {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sess := session.NewManager(session.NewMemoryStorage())
	client, err := httpclient.New(httpclient.Options{
		BaseURL:      server.URL,
		Retry:        httpclient.RetryPolicy{MaxRetries: 0, Statuses: httpclient.DefaultRetryStatuses},
		CacheEnabled: true,
		CacheTTL:     time.Minute,
		Session:      sess,
		Bus:          &events.Bus{},
	})
	require.NoError(t, err)
	return fixture{svc: New(client, sess, nil), client: client, session: sess}
}

func TestUniverseList_AcceptsResponseShapes(t *testing.T) {
	shapes := map[string]string{
		"keyed":       `{"universes":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}`,
		"data keyed":  `{"data":{"universes":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}}`,
		"data array":  `{"data":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}`,
		"nested data": `{"data":{"data":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}}`,
		"bare array":  `[{"id":1,"name":"A"},{"id":2,"name":"B"}]`,
	}
	for name, body := range shapes {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/universes", r.URL.Path)
				_, _ = io.WriteString(w, body)
			})
			got, err := f.svc.Universes.List(context.Background())
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "B", got[1].Name)
		})
	}
}

func TestUniverseGet_UnwrapsSingleResource(t *testing.T) {
	for _, body := range []string{
		`{"universe":{"id":7,"name":"Seven"}}`,
		`{"data":{"universe":{"id":7,"name":"Seven"}}}`,
		`{"data":{"data":{"universe":{"id":7,"name":"Seven"}}}}`,
		`{"id":7,"name":"Seven"}`,
	} {
		f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/universes/7", r.URL.Path)
			_, _ = io.WriteString(w, body)
		})
		got, err := f.svc.Universes.Get(context.Background(), 7)
		require.NoError(t, err, body)
		assert.Equal(t, int64(7), got.ID, body)
		assert.Equal(t, "Seven", got.Name, body)
	}
}

func TestUniverseCreate_ValidatesBeforeSending(t *testing.T) {
	var hits atomic.Int32
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })

	_, err := f.svc.Universes.Create(context.Background(), UniverseInput{})
	var rerr *response.Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, response.KindClient, rerr.Kind)
	assert.Equal(t, "name is required", rerr.Message)
	assert.Zero(t, hits.Load())
}

func TestInvalidIDIsClientError(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	_, err := f.svc.Universes.Get(context.Background(), 0)
	assert.Equal(t, response.KindClient, response.KindOf(err))
	_, err = f.svc.Scenes.ListByUniverse(context.Background(), -4)
	assert.Equal(t, response.KindClient, response.KindOf(err))
}

func TestSceneCreate_PostsAndInvalidatesUniverseScenes(t *testing.T) {
	var listHits atomic.Int32
	var posted SceneInput
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/universes/7/scenes":
			listHits.Add(1)
			_, _ = io.WriteString(w, `{"scenes":[]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/scenes":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"scene":{"id":31,"name":"Intro"}}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	_, err := f.svc.Scenes.ListByUniverse(ctx, 7)
	require.NoError(t, err)
	scene, err := f.svc.Scenes.Create(ctx, SceneInput{UniverseID: 7, Name: "Intro"})
	require.NoError(t, err)
	assert.Equal(t, int64(31), scene.ID)
	assert.Equal(t, int64(7), scene.UniverseID, "universe id filled from the request")
	assert.Equal(t, SceneInput{UniverseID: 7, Name: "Intro"}, posted)

	_, err = f.svc.Scenes.ListByUniverse(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int32(2), listHits.Load())
}

func TestSceneCreate_Validation(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := f.svc.Scenes.Create(context.Background(), SceneInput{Name: "Intro"})
	assert.Equal(t, "universe_id is required", response.MessageOf(err))
}

func TestAuthLogin_StoresSession(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":{"access_token":"tok","refresh_token":"ref","user":{"id":4,"username":"ada","email":"ada@example.com"}}}`)
	})
	ctx := context.Background()
	res, err := f.svc.Auth.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "ada", res.User.Username)

	token, _ := f.session.Token(ctx)
	refresh, _ := f.session.RefreshToken(ctx)
	user, _ := f.session.User(ctx)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "ref", refresh)
	require.NotNil(t, user)
	assert.Equal(t, int64(4), user.ID)
}

func TestAuthLogin_Validation(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := f.svc.Auth.Login(context.Background(), LoginRequest{Email: "nope"})
	assert.Equal(t, "email must be a valid email; password is required", response.MessageOf(err))
}

func TestAuthDemoLoginAndLogout(t *testing.T) {
	var logoutCalls atomic.Int32
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/demo-login":
			http.NotFound(w, r)
		case "/api/auth/logout":
			logoutCalls.Add(1)
		}
	})
	ctx := context.Background()

	res, err := f.svc.Auth.DemoLogin(ctx)
	require.NoError(t, err)
	assert.True(t, res.User.IsDemo)
	demo, err := f.session.IsDemo(ctx)
	require.NoError(t, err)
	assert.True(t, demo)

	me, err := f.svc.Auth.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.User.Username, me.Username)

	require.NoError(t, f.svc.Auth.Logout(ctx))
	token, _ := f.session.Token(ctx)
	assert.Empty(t, token)
	assert.Zero(t, logoutCalls.Load(), "demo logout stays local")
}

func TestAuthDemoLogin_UsesServerIssuedTokens(t *testing.T) {
	var demoCalls atomic.Int32
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/auth/demo-login":
			demoCalls.Add(1)
			assert.Empty(t, r.Header.Get("Authorization"))
			_, _ = io.WriteString(w, `{"token":"server-issued","refresh_token":"server-refresh","user":{"id":9,"username":"guest"}}`)
		case r.Header.Get("Authorization") != "Bearer server-issued":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Signature verification failed"}`)
		case r.URL.Path == "/api/universes":
			_, _ = io.WriteString(w, `{"universes":[{"id":1,"name":"Aurora"}]}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	res, err := f.svc.Auth.DemoLogin(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), demoCalls.Load())
	assert.Equal(t, "server-issued", res.Token)
	assert.True(t, res.User.IsDemo)
	assert.Equal(t, "guest", res.User.Username)

	local, err := f.session.IsDemo(ctx)
	require.NoError(t, err)
	assert.False(t, local, "server demo sessions use the normal auth paths")

	got, err := f.svc.Universes.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	token, _ := f.session.Token(ctx)
	assert.Equal(t, "server-issued", token)
	failed, _ := f.session.VerificationFailed(ctx)
	assert.False(t, failed)
}

func TestAuthDemoLogin_FallsBackOnlyWhenEndpointUnavailable(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented} {
		f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		res, err := f.svc.Auth.DemoLogin(context.Background())
		require.NoError(t, err, status)
		assert.True(t, session.IsDemoToken(res.Token), status)
	}

	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"demo disabled"}`)
	})
	_, err := f.svc.Auth.DemoLogin(context.Background())
	require.Error(t, err)
	assert.Equal(t, "demo disabled", response.MessageOf(err))
	token, _ := f.session.Token(context.Background())
	assert.Empty(t, token)
}

func TestPhysicsSet_UpdatesActiveSet(t *testing.T) {
	var updated PhysicsInput
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/scenes/3/physics-parameters":
			_, _ = io.WriteString(w, `{"physics_parameters":[
				{"id":10,"scene_id":3,"version":1,"is_active":false,"parameters":{}},
				{"id":11,"scene_id":3,"version":2,"is_active":true,"parameters":{"gravity":{"value":9.8,"unit":"m/s2","min":0,"max":50,"enabled":true}}}
			]}`)
		case r.Method == http.MethodPut && r.URL.Path == "/api/physics-parameters/11":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&updated))
			_, _ = io.WriteString(w, `{"physics_parameters":{"id":11,"scene_id":3,"version":2,"is_active":true}}`)
		default:
			http.NotFound(w, r)
		}
	})

	got, err := f.svc.Physics.Set(context.Background(), 3, map[string]float64{"gravity": 1.6, "friction": 0.2})
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ID)
	assert.Equal(t, 1.6, updated.Parameters["gravity"].Value)
	assert.Equal(t, "m/s2", updated.Parameters["gravity"].Unit)
	assert.Equal(t, 0.2, updated.Parameters["friction"].Value)
	assert.True(t, updated.IsActive)
}

func TestPhysicsSet_DeactivatesOtherActiveSets(t *testing.T) {
	var mu sync.Mutex
	puts := map[string]PhysicsInput{}
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/scenes/3/physics-parameters":
			_, _ = io.WriteString(w, `{"physics_parameters":[
				{"id":10,"scene_id":3,"version":1,"is_active":true,"parameters":{"gravity":{"value":9.8}}},
				{"id":11,"scene_id":3,"version":2,"is_active":true,"parameters":{"gravity":{"value":3.7}}}
			]}`)
		case r.Method == http.MethodPut:
			var in PhysicsInput
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			mu.Lock()
			puts[r.URL.Path] = in
			mu.Unlock()
			id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/physics-parameters/"))
			version := map[int]int{10: 1, 11: 2}[id]
			_ = json.NewEncoder(w).Encode(map[string]any{"physics_parameters": map[string]any{
				"id": id, "scene_id": 3, "version": version, "is_active": in.IsActive, "parameters": in.Parameters,
			}})
		default:
			http.NotFound(w, r)
		}
	})

	got, err := f.svc.Physics.Set(context.Background(), 3, map[string]float64{"gravity": 1.6})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.True(t, got.IsActive)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, puts, 2)
	assert.True(t, puts["/api/physics-parameters/10"].IsActive)
	assert.Equal(t, 1.6, puts["/api/physics-parameters/10"].Parameters["gravity"].Value)
	assert.False(t, puts["/api/physics-parameters/11"].IsActive)
	assert.Equal(t, 3.7, puts["/api/physics-parameters/11"].Parameters["gravity"].Value)
}

func TestPhysicsActivate_SwitchesActiveVersion(t *testing.T) {
	var mu sync.Mutex
	puts := map[string]bool{}
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/scenes/3/physics-parameters":
			_, _ = io.WriteString(w, `{"physics_parameters":[
				{"id":10,"scene_id":3,"version":1,"is_active":true,"parameters":{}},
				{"id":11,"scene_id":3,"version":2,"is_active":false,"parameters":{}},
				{"id":12,"scene_id":3,"version":3,"is_active":false,"parameters":{}}
			]}`)
		case r.Method == http.MethodPut:
			var in PhysicsInput
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			mu.Lock()
			puts[r.URL.Path] = in.IsActive
			mu.Unlock()
			_, _ = io.WriteString(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	})

	got, err := f.svc.Physics.Activate(context.Background(), 3, 2)
	require.NoError(t, err)
	mu.Lock()
	assert.Equal(t, map[string]bool{
		"/api/physics-parameters/10": false,
		"/api/physics-parameters/11": true,
	}, puts)
	mu.Unlock()
	assert.Equal(t, 2, got.Version)
	assert.True(t, got.IsActive)

	_, err = f.svc.Physics.Activate(context.Background(), 3, 9)
	require.Error(t, err)
	assert.Equal(t, "physics version 9 not found", response.MessageOf(err))
}

func TestPhysicsCreate_RejectsOutOfRange(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := f.svc.Physics.Create(context.Background(), PhysicsInput{
		SceneID:    3,
		Parameters: map[string]model.PhysicsParameter{"gravity": {Value: 99, Min: 0, Max: 50}},
	})
	assert.Equal(t, "gravity must be between 0 and 50", response.MessageOf(err))
}

func TestAudioGenerate(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/universes/5/generate-music", r.URL.Path)
		_, _ = io.WriteString(w, `{"audio_track":{"id":2,"algorithm":"harmonic","duration":30}}`)
	})
	track, err := f.svc.Audio.Generate(context.Background(), 5, MusicRequest{Algorithm: "harmonic", Duration: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(5), track.UniverseID)
	assert.Equal(t, 30*time.Second, track.DurationValue())

	_, err = f.svc.Audio.Generate(context.Background(), 5, MusicRequest{Algorithm: "dubstep", Duration: 30})
	assert.Equal(t, response.KindClient, response.KindOf(err))
}

func TestSystemHealth(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"healthy","version":"1.2"}`)
	})
	h, err := f.svc.System.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Healthy())
	assert.Equal(t, "1.2", h.Version)
}

func TestServerErrorsSurfaceAsResponseErrors(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"message":"maintenance"}`)
	})
	_, err := f.svc.Notes.ListByUniverse(context.Background(), 1)
	var rerr *response.Error
	require.True(t, errors.As(err, &rerr))
	assert.True(t, rerr.ServerError())
	assert.Equal(t, "maintenance", rerr.Message)
}
