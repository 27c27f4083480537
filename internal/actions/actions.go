// Package actions holds the async operations the UI and CLI trigger. Each one
// dispatches a pending action, calls a domain service, and then dispatches
// exactly one fulfilled or rejected action carrying the result or failure.
package actions

import (
	"context"

	"go.uber.org/zap"

	"github.com/five82/harmonic/internal/events"
	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/model"
	"github.com/five82/harmonic/internal/response"
	"github.com/five82/harmonic/internal/services"
	"github.com/five82/harmonic/internal/state"
)

// Dispatcher receives actions. *state.Store satisfies it.
type Dispatcher interface {
	Dispatch(state.Action)
}

// Actions binds a dispatcher to the domain services.
type Actions struct {
	store Dispatcher
	svc   *services.Services
	log   *zap.Logger
}

// New returns an Actions. A nil logger disables logging.
func New(store Dispatcher, svc *services.Services, logger *zap.Logger) *Actions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Actions{store: store, svc: svc, log: logger.Named("actions")}
}

// run is the common pending → call → fulfilled/rejected sequence.
func run[T any](a *Actions, typ string, call func() (T, error), payload func(T) any) (T, error) {
	a.store.Dispatch(state.Action{Type: typ, Lifecycle: state.Pending})
	out, err := call()
	if err != nil {
		fail := state.FailureFrom(err)
		a.log.Debug("action rejected",
			zap.String("action", typ),
			zap.String("message", fail.Message),
			zap.Int("status", fail.Status),
		)
		a.store.Dispatch(state.Action{Type: typ, Lifecycle: state.Rejected, Error: fail})
		var zero T
		return zero, err
	}
	var p any = out
	if payload != nil {
		p = payload(out)
	}
	a.store.Dispatch(state.Action{Type: typ, Lifecycle: state.Fulfilled, Payload: p})
	return out, nil
}

// Login signs in with credentials.
func (a *Actions) Login(ctx context.Context, req services.LoginRequest) (model.AuthResult, error) {
	return run(a, state.AuthLogin, func() (model.AuthResult, error) {
		return a.svc.Auth.Login(ctx, req)
	}, nil)
}

// Register creates an account and signs in.
func (a *Actions) Register(ctx context.Context, req services.RegisterRequest) (model.AuthResult, error) {
	return run(a, state.AuthRegister, func() (model.AuthResult, error) {
		return a.svc.Auth.Register(ctx, req)
	}, nil)
}

// DemoLogin starts a local demo session.
func (a *Actions) DemoLogin(ctx context.Context) (model.AuthResult, error) {
	return run(a, state.AuthDemoLogin, func() (model.AuthResult, error) {
		return a.svc.Auth.DemoLogin(ctx)
	}, nil)
}

// CheckAuth validates the stored session and loads the user.
func (a *Actions) CheckAuth(ctx context.Context) (model.User, error) {
	return run(a, state.AuthCheck, func() (model.User, error) {
		return a.svc.Auth.Validate(ctx)
	}, nil)
}

// Logout ends the session. The state is reset even when the backend call
// fails.
func (a *Actions) Logout(ctx context.Context) error {
	_, err := run(a, state.AuthLogout, func() (struct{}, error) {
		return struct{}{}, a.svc.Auth.Logout(ctx)
	}, func(struct{}) any { return nil })
	return err
}

// FetchUniverses loads the user's universes.
func (a *Actions) FetchUniverses(ctx context.Context, opts ...httpclient.RequestOption) ([]model.Universe, error) {
	return run(a, state.UniversesFetch, func() ([]model.Universe, error) {
		return a.svc.Universes.List(ctx, opts...)
	}, nil)
}

// FetchUniverse loads one universe and makes it current.
func (a *Actions) FetchUniverse(ctx context.Context, id int64) (model.Universe, error) {
	return run(a, state.UniverseFetch, func() (model.Universe, error) {
		return a.svc.Universes.Get(ctx, id)
	}, nil)
}

// CreateUniverse creates a universe and makes it current.
func (a *Actions) CreateUniverse(ctx context.Context, in services.UniverseInput) (model.Universe, error) {
	return run(a, state.UniverseCreate, func() (model.Universe, error) {
		return a.svc.Universes.Create(ctx, in)
	}, nil)
}

// UpdateUniverse saves changes to a universe.
func (a *Actions) UpdateUniverse(ctx context.Context, id int64, in services.UniverseInput) (model.Universe, error) {
	return run(a, state.UniverseUpdate, func() (model.Universe, error) {
		return a.svc.Universes.Update(ctx, id, in)
	}, nil)
}

// DeleteUniverse removes a universe and its scenes from state.
func (a *Actions) DeleteUniverse(ctx context.Context, id int64) error {
	_, err := run(a, state.UniverseDelete, func() (int64, error) {
		return id, a.svc.Universes.Delete(ctx, id)
	}, nil)
	return err
}

// SelectUniverse changes the current universe. Zero clears it.
func (a *Actions) SelectUniverse(id int64) {
	a.store.Dispatch(state.Action{Type: state.UniverseSelect, Payload: id})
}

// FetchScenes loads the scenes of a universe.
func (a *Actions) FetchScenes(ctx context.Context, universeID int64, opts ...httpclient.RequestOption) ([]model.Scene, error) {
	return run(a, state.ScenesFetch, func() ([]model.Scene, error) {
		return a.svc.Scenes.ListByUniverse(ctx, universeID, opts...)
	}, func(scenes []model.Scene) any {
		return state.ScenesPayload{UniverseID: universeID, Scenes: scenes}
	})
}

// CreateScene creates a scene and makes it current.
func (a *Actions) CreateScene(ctx context.Context, in services.SceneInput) (model.Scene, error) {
	return run(a, state.SceneCreate, func() (model.Scene, error) {
		return a.svc.Scenes.Create(ctx, in)
	}, nil)
}

// UpdateScene saves changes to a scene.
func (a *Actions) UpdateScene(ctx context.Context, id int64, in services.SceneInput) (model.Scene, error) {
	return run(a, state.SceneUpdate, func() (model.Scene, error) {
		return a.svc.Scenes.Update(ctx, id, in)
	}, nil)
}

// DeleteScene removes a scene.
func (a *Actions) DeleteScene(ctx context.Context, id, universeID int64) error {
	_, err := run(a, state.SceneDelete, func() (state.SceneRef, error) {
		return state.SceneRef{ID: id, UniverseID: universeID}, a.svc.Scenes.Delete(ctx, id, universeID)
	}, nil)
	return err
}

// SelectScene changes the current scene. Zero clears it.
func (a *Actions) SelectScene(id int64) {
	a.store.Dispatch(state.Action{Type: state.SceneSelect, Payload: id})
}

// WatchSignOut dispatches AuthSignedOut for every forced sign-out published
// on bus until ctx is done or the bus closes.
func (a *Actions) WatchSignOut(ctx context.Context, bus *events.Bus) {
	ch, cancel := bus.Subscribe(events.TopicSignOut)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			a.log.Info("session ended by server", zap.String("message", evt.Message))
			a.store.Dispatch(state.Action{
				Type:  state.AuthSignedOut,
				Error: &state.Failure{Message: evt.Message, Status: evt.Status, Kind: response.KindAuth},
			})
		}
	}
}
