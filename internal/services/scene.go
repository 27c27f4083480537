package services

import (
	"context"

	"github.com/five82/harmonic/internal/endpoints"
	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/model"
)

// SceneInput is the body for creating or updating a scene.
type SceneInput struct {
	UniverseID  int64  `json:"universe_id" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	SceneOrder  int    `json:"scene_order" validate:"gte=0"`
}

// SceneService manages scenes.
type SceneService struct{ base }

// ListByUniverse returns the scenes of a universe.
func (s *SceneService) ListByUniverse(ctx context.Context, universeID int64, opts ...httpclient.RequestOption) ([]model.Scene, error) {
	path, err := pathFor(func() (string, error) { return endpoints.UniverseScenes(universeID) })
	if err != nil {
		return nil, err
	}
	var out []model.Scene
	if err := s.get(ctx, path, "scenes", &out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one scene.
func (s *SceneService) Get(ctx context.Context, id int64) (model.Scene, error) {
	path, err := pathFor(func() (string, error) { return endpoints.Scene(id) })
	if err != nil {
		return model.Scene{}, err
	}
	var out model.Scene
	if err := s.get(ctx, path, "scene", &out); err != nil {
		return model.Scene{}, err
	}
	return out, nil
}

// Create creates a scene. The universe's cached scene list is dropped.
func (s *SceneService) Create(ctx context.Context, in SceneInput) (model.Scene, error) {
	if err := validateInput(in); err != nil {
		return model.Scene{}, err
	}
	listPath, err := pathFor(func() (string, error) { return endpoints.UniverseScenes(in.UniverseID) })
	if err != nil {
		return model.Scene{}, err
	}
	var out model.Scene
	if err := s.post(ctx, endpoints.Scenes(), in, "scene", &out, httpclient.Invalidate(listPath)); err != nil {
		return model.Scene{}, err
	}
	if out.UniverseID == 0 {
		out.UniverseID = in.UniverseID
	}
	return out, nil
}

// Update replaces a scene's editable fields.
func (s *SceneService) Update(ctx context.Context, id int64, in SceneInput) (model.Scene, error) {
	path, err := pathFor(func() (string, error) { return endpoints.Scene(id) })
	if err != nil {
		return model.Scene{}, err
	}
	if err := validateInput(in); err != nil {
		return model.Scene{}, err
	}
	listPath, err := pathFor(func() (string, error) { return endpoints.UniverseScenes(in.UniverseID) })
	if err != nil {
		return model.Scene{}, err
	}
	var out model.Scene
	if err := s.put(ctx, path, in, "scene", &out, httpclient.Invalidate(listPath)); err != nil {
		return model.Scene{}, err
	}
	return out, nil
}

// Delete removes a scene. universeID, when known, drops the cached list.
func (s *SceneService) Delete(ctx context.Context, id, universeID int64) error {
	path, err := pathFor(func() (string, error) { return endpoints.Scene(id) })
	if err != nil {
		return err
	}
	var opts []httpclient.RequestOption
	if listPath, err := endpoints.UniverseScenes(universeID); err == nil {
		opts = append(opts, httpclient.Invalidate(listPath))
	}
	return s.del(ctx, path, opts...)
}
