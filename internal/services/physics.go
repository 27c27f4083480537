package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/five82/harmonic/internal/endpoints"
	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/model"
)

// PhysicsInput is the body for creating or updating a parameter set.
type PhysicsInput struct {
	SceneID    int64                             `json:"scene_id" validate:"required,gt=0"`
	IsActive   bool                              `json:"is_active"`
	Parameters map[string]model.PhysicsParameter `json:"parameters" validate:"required"`
}

func (in PhysicsInput) check() error {
	if err := validateInput(in); err != nil {
		return err
	}
	names := make([]string, 0, len(in.Parameters))
	for name := range in.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := in.Parameters[name]
		if p.Max > p.Min && (p.Value < p.Min || p.Value > p.Max) {
			return invalidInput(fmt.Errorf("%s must be between %g and %g", name, p.Min, p.Max))
		}
	}
	return nil
}

// PhysicsService manages versioned physics parameter sets.
type PhysicsService struct{ base }

// List returns every parameter set of a scene.
func (s *PhysicsService) List(ctx context.Context, sceneID int64, opts ...httpclient.RequestOption) ([]model.PhysicsParameters, error) {
	path, err := pathFor(func() (string, error) { return endpoints.ScenePhysics(sceneID) })
	if err != nil {
		return nil, err
	}
	var out []model.PhysicsParameters
	if err := s.get(ctx, path, "physics_parameters", &out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Active returns the active parameter set of a scene, if there is one.
func (s *PhysicsService) Active(ctx context.Context, sceneID int64) (model.PhysicsParameters, bool, error) {
	sets, err := s.List(ctx, sceneID)
	if err != nil {
		return model.PhysicsParameters{}, false, err
	}
	set, ok := model.ActiveParameters(sets)
	return set, ok, nil
}

// Create stores a new parameter set for a scene.
func (s *PhysicsService) Create(ctx context.Context, in PhysicsInput) (model.PhysicsParameters, error) {
	if err := in.check(); err != nil {
		return model.PhysicsParameters{}, err
	}
	path, err := pathFor(func() (string, error) { return endpoints.ScenePhysics(in.SceneID) })
	if err != nil {
		return model.PhysicsParameters{}, err
	}
	var out model.PhysicsParameters
	if err := s.post(ctx, path, in, "physics_parameters", &out); err != nil {
		return model.PhysicsParameters{}, err
	}
	return out, nil
}

// Update replaces the values of an existing parameter set.
func (s *PhysicsService) Update(ctx context.Context, id int64, in PhysicsInput) (model.PhysicsParameters, error) {
	if err := in.check(); err != nil {
		return model.PhysicsParameters{}, err
	}
	path, err := pathFor(func() (string, error) { return endpoints.PhysicsParameters(id) })
	if err != nil {
		return model.PhysicsParameters{}, err
	}
	listPath, err := pathFor(func() (string, error) { return endpoints.ScenePhysics(in.SceneID) })
	if err != nil {
		return model.PhysicsParameters{}, err
	}
	var out model.PhysicsParameters
	if err := s.put(ctx, path, in, "physics_parameters", &out, httpclient.Invalidate(listPath)); err != nil {
		return model.PhysicsParameters{}, err
	}
	return out, nil
}

// Set changes named values on the active set of a scene, creating version 1
// when the scene has none. Unknown names are added with no bounds. Any other
// set still flagged active is deactivated afterwards.
func (s *PhysicsService) Set(ctx context.Context, sceneID int64, values map[string]float64) (model.PhysicsParameters, error) {
	sets, err := s.List(ctx, sceneID)
	if err != nil {
		return model.PhysicsParameters{}, err
	}
	set, ok := model.ActiveParameters(sets)
	params := make(map[string]model.PhysicsParameter, len(set.Parameters)+len(values))
	for name, p := range set.Parameters {
		params[name] = p
	}
	for name, v := range values {
		p := params[name]
		p.Value = v
		p.Enabled = true
		params[name] = p
	}
	in := PhysicsInput{SceneID: sceneID, IsActive: true, Parameters: params}
	var out model.PhysicsParameters
	if ok {
		out, err = s.Update(ctx, set.ID, in)
	} else {
		out, err = s.Create(ctx, in)
	}
	if err != nil {
		return model.PhysicsParameters{}, err
	}
	if out.Version == 0 {
		out.Version = max(set.Version, 1)
	}
	sets = replaceSet(sets, out)
	if err := s.activate(ctx, sets, out.Version); err != nil {
		return out, err
	}
	return out, nil
}

// Activate makes the given version the only active set of a scene.
func (s *PhysicsService) Activate(ctx context.Context, sceneID int64, version int) (model.PhysicsParameters, error) {
	sets, err := s.List(ctx, sceneID)
	if err != nil {
		return model.PhysicsParameters{}, err
	}
	if err := s.activate(ctx, sets, version); err != nil {
		return model.PhysicsParameters{}, err
	}
	set, _ := model.ActiveParameters(sets)
	return set, nil
}

// activate flips IsActive on sets in place and writes back every set whose
// flag changed.
func (s *PhysicsService) activate(ctx context.Context, sets []model.PhysicsParameters, version int) error {
	was := make([]bool, len(sets))
	for i, set := range sets {
		was[i] = set.IsActive
	}
	if !model.ActivateVersion(sets, version) {
		return invalidInput(fmt.Errorf("physics version %d not found", version))
	}
	for i := range sets {
		if sets[i].IsActive == was[i] {
			continue
		}
		in := PhysicsInput{SceneID: sets[i].SceneID, IsActive: sets[i].IsActive, Parameters: sets[i].Parameters}
		if in.Parameters == nil {
			in.Parameters = map[string]model.PhysicsParameter{}
		}
		updated, err := s.Update(ctx, sets[i].ID, in)
		if err != nil {
			return err
		}
		if updated.ID != 0 {
			sets[i] = updated
		}
	}
	return nil
}

func replaceSet(sets []model.PhysicsParameters, set model.PhysicsParameters) []model.PhysicsParameters {
	for i := range sets {
		if sets[i].ID == set.ID {
			sets[i] = set
			return sets
		}
	}
	return append(sets, set)
}
