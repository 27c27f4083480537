package state

import (
	"github.com/five82/harmonic/internal/model"
	"github.com/five82/harmonic/internal/response"
)

// Lifecycle is the stage of an async action.
type Lifecycle int

const (
	// Plain actions are synchronous and carry their payload directly.
	Plain Lifecycle = iota
	Pending
	Fulfilled
	Rejected
)

func (l Lifecycle) String() string {
	switch l {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return ""
	}
}

// Action types.
const (
	AuthLogin     = "auth/login"
	AuthRegister  = "auth/register"
	AuthDemoLogin = "auth/demoLogin"
	AuthCheck     = "auth/checkAuth"
	AuthLogout    = "auth/logout"
	AuthSignedOut = "auth/signedOut"

	UniversesFetch  = "universes/fetchUniverses"
	UniverseFetch   = "universes/fetchUniverse"
	UniverseCreate  = "universes/createUniverse"
	UniverseUpdate  = "universes/updateUniverse"
	UniverseDelete  = "universes/deleteUniverse"
	UniverseSelect  = "universes/selectUniverse"
	UniverseDismiss = "universes/clearError"

	ScenesFetch  = "scenes/fetchScenes"
	SceneCreate  = "scenes/createScene"
	SceneUpdate  = "scenes/updateScene"
	SceneDelete  = "scenes/deleteScene"
	SceneSelect  = "scenes/selectScene"
	SceneDismiss = "scenes/clearError"
)

// Action is dispatched to the Store. Payload types by action:
//
//	auth login/register/demo/check fulfilled  model.AuthResult or model.User
//	universes fetch fulfilled                 []model.Universe
//	universe fetch/create/update fulfilled    model.Universe
//	universe delete fulfilled                 int64 (id)
//	universe select                           int64 (id, 0 clears)
//	scenes fetch fulfilled                    ScenesPayload
//	scene create/update fulfilled             model.Scene
//	scene delete fulfilled                    SceneRef
//	scene select                              int64 (id, 0 clears)
type Action struct {
	Type      string
	Lifecycle Lifecycle
	Payload   any
	Error     *Failure
}

// Name returns "type/lifecycle", or just the type for plain actions.
func (a Action) Name() string {
	if a.Lifecycle == Plain {
		return a.Type
	}
	return a.Type + "/" + a.Lifecycle.String()
}

// ScenesPayload is the result of fetching one universe's scenes.
type ScenesPayload struct {
	UniverseID int64
	Scenes     []model.Scene
}

// SceneRef identifies a deleted scene.
type SceneRef struct {
	ID         int64
	UniverseID int64
}

// Failure is the error carried by a rejected action.
type Failure struct {
	Message string
	Status  int
	Kind    response.Kind
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	return f.Message
}

// FailureFrom converts a service error into a Failure.
func FailureFrom(err error) *Failure {
	if err == nil {
		return nil
	}
	return &Failure{
		Message: response.MessageOf(err),
		Status:  response.StatusOf(err),
		Kind:    response.KindOf(err),
	}
}
