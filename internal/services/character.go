package services

import (
	"context"

	"github.com/five82/harmonic/internal/endpoints"
	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/model"
)

// CharacterInput is the body for creating or updating a character.
type CharacterInput struct {
	UniverseID    int64                `json:"universe_id" validate:"required,gt=0"`
	SceneID       *int64               `json:"scene_id,omitempty"`
	Name          string               `json:"name" validate:"required,max=100"`
	Description   string               `json:"description,omitempty" validate:"max=2000"`
	Attributes    map[string]any       `json:"attributes,omitempty"`
	Relationships []model.Relationship `json:"relationships,omitempty" validate:"dive"`
}

// CharacterService manages characters.
type CharacterService struct{ base }

// ListByUniverse returns the characters of a universe.
func (s *CharacterService) ListByUniverse(ctx context.Context, universeID int64) ([]model.Character, error) {
	path, err := pathFor(func() (string, error) { return endpoints.UniverseCharacters(universeID) })
	if err != nil {
		return nil, err
	}
	var out []model.Character
	if err := s.get(ctx, path, "characters", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create creates a character.
func (s *CharacterService) Create(ctx context.Context, in CharacterInput) (model.Character, error) {
	if err := validateInput(in); err != nil {
		return model.Character{}, err
	}
	listPath, err := pathFor(func() (string, error) { return endpoints.UniverseCharacters(in.UniverseID) })
	if err != nil {
		return model.Character{}, err
	}
	var out model.Character
	if err := s.post(ctx, endpoints.Characters(), in, "character", &out, httpclient.Invalidate(listPath)); err != nil {
		return model.Character{}, err
	}
	return out, nil
}

// Update replaces a character's editable fields.
func (s *CharacterService) Update(ctx context.Context, id int64, in CharacterInput) (model.Character, error) {
	if err := validateInput(in); err != nil {
		return model.Character{}, err
	}
	path, err := pathFor(func() (string, error) { return endpoints.Character(id) })
	if err != nil {
		return model.Character{}, err
	}
	listPath, err := pathFor(func() (string, error) { return endpoints.UniverseCharacters(in.UniverseID) })
	if err != nil {
		return model.Character{}, err
	}
	var out model.Character
	if err := s.put(ctx, path, in, "character", &out, httpclient.Invalidate(listPath)); err != nil {
		return model.Character{}, err
	}
	return out, nil
}

// Delete removes a character.
func (s *CharacterService) Delete(ctx context.Context, id int64) error {
	path, err := pathFor(func() (string, error) { return endpoints.Character(id) })
	if err != nil {
		return err
	}
	return s.del(ctx, path)
}
