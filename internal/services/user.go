package services

import (
	"context"

	"github.com/five82/harmonic/internal/endpoints"
	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/model"
)

// UserUpdate is the body for updating a profile.
type UserUpdate struct {
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=40"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

// UserService reads and updates user profiles.
type UserService struct{ base }

// Me returns the signed-in user.
func (s *UserService) Me(ctx context.Context) (model.User, error) {
	var out model.User
	if err := s.get(ctx, endpoints.CurrentUser, "user", &out); err != nil {
		return model.User{}, err
	}
	return out, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id int64) (model.User, error) {
	path, err := pathFor(func() (string, error) { return endpoints.User(id) })
	if err != nil {
		return model.User{}, err
	}
	var out model.User
	if err := s.get(ctx, path, "user", &out); err != nil {
		return model.User{}, err
	}
	return out, nil
}

// UpdateMe changes the signed-in user's profile.
func (s *UserService) UpdateMe(ctx context.Context, in UserUpdate) (model.User, error) {
	if err := validateInput(in); err != nil {
		return model.User{}, err
	}
	var out model.User
	if err := s.put(ctx, endpoints.CurrentUser, in, "user", &out); err != nil {
		return model.User{}, err
	}
	return out, nil
}

// SystemService reports backend health.
type SystemService struct{ base }

// Health calls /health, bypassing the cache.
func (s *SystemService) Health(ctx context.Context) (model.HealthStatus, error) {
	var out model.HealthStatus
	if err := s.get(ctx, endpoints.Health, "", &out, httpclient.NoCache(), httpclient.SkipAuth()); err != nil {
		return model.HealthStatus{}, err
	}
	return out, nil
}
