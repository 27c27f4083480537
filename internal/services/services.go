// Package services wraps the HTTP client in one façade per backend resource.
//
// Every method returns (T, error). Errors are always *response.Error so
// callers can branch on Kind and Status; input validation failures are
// reported as KindClient before anything is sent.
package services

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/response"
	"github.com/five82/harmonic/internal/session"
)

// Doer is the part of *httpclient.Client the services use.
type Doer interface {
	Do(ctx context.Context, method, path string, body any, opts ...httpclient.RequestOption) ([]byte, error)
	ClearCache()
}

var _ Doer = (*httpclient.Client)(nil)

// Services groups the resource façades.
type Services struct {
	Auth        *AuthService
	Universes   *UniverseService
	Scenes      *SceneService
	Physics     *PhysicsService
	Characters  *CharacterService
	Notes       *NoteService
	Audio       *AudioService
	Storyboards *StoryboardService
	Users       *UserService
	System      *SystemService
}

// New builds every service on top of client. sess receives tokens on login.
func New(client Doer, sess *session.Manager, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := base{client: client, log: logger.Named("services")}
	return &Services{
		Auth:        &AuthService{base: b, session: sess},
		Universes:   &UniverseService{base: b},
		Scenes:      &SceneService{base: b},
		Physics:     &PhysicsService{base: b},
		Characters:  &CharacterService{base: b},
		Notes:       &NoteService{base: b},
		Audio:       &AudioService{base: b},
		Storyboards: &StoryboardService{base: b},
		Users:       &UserService{base: b},
		System:      &SystemService{base: b},
	}
}

type base struct {
	client Doer
	log    *zap.Logger
}

// call sends a request and decodes the payload found under key into dest.
func (b base) call(ctx context.Context, method, path string, body any, key string, dest any, opts ...httpclient.RequestOption) error {
	data, err := b.client.Do(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	if err := response.Decode(data, key, dest); err != nil {
		return &response.Error{Kind: response.KindClient, Method: method, URL: path, Message: "unexpected response shape", Err: err}
	}
	return nil
}

func (b base) get(ctx context.Context, path, key string, dest any, opts ...httpclient.RequestOption) error {
	return b.call(ctx, http.MethodGet, path, nil, key, dest, opts...)
}

func (b base) post(ctx context.Context, path string, body any, key string, dest any, opts ...httpclient.RequestOption) error {
	return b.call(ctx, http.MethodPost, path, body, key, dest, opts...)
}

func (b base) put(ctx context.Context, path string, body any, key string, dest any, opts ...httpclient.RequestOption) error {
	return b.call(ctx, http.MethodPut, path, body, key, dest, opts...)
}

func (b base) del(ctx context.Context, path string, opts ...httpclient.RequestOption) error {
	return b.call(ctx, http.MethodDelete, path, nil, "", nil, opts...)
}

// invalidInput reports a request that was rejected before sending.
func invalidInput(err error) error {
	var rerr *response.Error
	if errors.As(err, &rerr) {
		return rerr
	}
	return &response.Error{Kind: response.KindClient, Message: err.Error(), Err: err}
}

// pathFor builds a path, turning id errors into client errors.
func pathFor(build func() (string, error)) (string, error) {
	p, err := build()
	if err != nil {
		return "", invalidInput(err)
	}
	return p, nil
}
