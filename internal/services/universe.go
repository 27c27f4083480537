package services

import (
	"context"

	"github.com/five82/harmonic/internal/endpoints"
	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/model"
)

// UniverseInput is the body for creating or updating a universe.
type UniverseInput struct {
	Name          string         `json:"name" validate:"required,max=100"`
	Description   string         `json:"description" validate:"max=2000"`
	IsPublic      bool           `json:"is_public"`
	Theme         string         `json:"theme,omitempty" validate:"max=50"`
	Genre         string         `json:"genre,omitempty" validate:"max=50"`
	PhysicsParams map[string]any `json:"physics_params,omitempty"`
	HarmonyParams map[string]any `json:"harmony_params,omitempty"`
}

// UniverseService manages universes.
type UniverseService struct{ base }

// List returns the signed-in user's universes.
func (s *UniverseService) List(ctx context.Context, opts ...httpclient.RequestOption) ([]model.Universe, error) {
	var out []model.Universe
	if err := s.get(ctx, endpoints.Universes(), "universes", &out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one universe.
func (s *UniverseService) Get(ctx context.Context, id int64) (model.Universe, error) {
	path, err := pathFor(func() (string, error) { return endpoints.Universe(id) })
	if err != nil {
		return model.Universe{}, err
	}
	var out model.Universe
	if err := s.get(ctx, path, "universe", &out); err != nil {
		return model.Universe{}, err
	}
	return out, nil
}

// Create creates a universe.
func (s *UniverseService) Create(ctx context.Context, in UniverseInput) (model.Universe, error) {
	if err := validateInput(in); err != nil {
		return model.Universe{}, err
	}
	var out model.Universe
	if err := s.post(ctx, endpoints.Universes(), in, "universe", &out); err != nil {
		return model.Universe{}, err
	}
	return out, nil
}

// Update replaces a universe's editable fields.
func (s *UniverseService) Update(ctx context.Context, id int64, in UniverseInput) (model.Universe, error) {
	path, err := pathFor(func() (string, error) { return endpoints.Universe(id) })
	if err != nil {
		return model.Universe{}, err
	}
	if err := validateInput(in); err != nil {
		return model.Universe{}, err
	}
	var out model.Universe
	if err := s.put(ctx, path, in, "universe", &out); err != nil {
		return model.Universe{}, err
	}
	return out, nil
}

// Delete removes a universe.
func (s *UniverseService) Delete(ctx context.Context, id int64) error {
	path, err := pathFor(func() (string, error) { return endpoints.Universe(id) })
	if err != nil {
		return err
	}
	return s.del(ctx, path)
}
