package services

import (
	"context"

	"github.com/five82/harmonic/internal/endpoints"
	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/model"
)

// StoryboardInput is the body for creating a storyboard.
type StoryboardInput struct {
	UniverseID  int64  `json:"universe_id" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty"`
}

// StoryPointInput is the body for adding a story point.
type StoryPointInput struct {
	Position model.Position `json:"position"`
	Title    string         `json:"title" validate:"required,max=200"`
	Content  string         `json:"content"`
}

// StoryboardService manages storyboards and their points.
type StoryboardService struct{ base }

// ListByUniverse returns the storyboards of a universe.
func (s *StoryboardService) ListByUniverse(ctx context.Context, universeID int64) ([]model.Storyboard, error) {
	path, err := pathFor(func() (string, error) { return endpoints.UniverseStoryboards(universeID) })
	if err != nil {
		return nil, err
	}
	var out []model.Storyboard
	if err := s.get(ctx, path, "storyboards", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one storyboard with its points.
func (s *StoryboardService) Get(ctx context.Context, id int64) (model.Storyboard, error) {
	path, err := pathFor(func() (string, error) { return endpoints.Storyboard(id) })
	if err != nil {
		return model.Storyboard{}, err
	}
	var out model.Storyboard
	if err := s.get(ctx, path, "storyboard", &out); err != nil {
		return model.Storyboard{}, err
	}
	return out, nil
}

// Create creates a storyboard.
func (s *StoryboardService) Create(ctx context.Context, in StoryboardInput) (model.Storyboard, error) {
	if err := validateInput(in); err != nil {
		return model.Storyboard{}, err
	}
	listPath, err := pathFor(func() (string, error) { return endpoints.UniverseStoryboards(in.UniverseID) })
	if err != nil {
		return model.Storyboard{}, err
	}
	var out model.Storyboard
	if err := s.post(ctx, endpoints.Storyboards(), in, "storyboard", &out, httpclient.Invalidate(listPath)); err != nil {
		return model.Storyboard{}, err
	}
	return out, nil
}

// AddPoint appends a story point to a storyboard.
func (s *StoryboardService) AddPoint(ctx context.Context, storyboardID int64, in StoryPointInput) (model.StoryPoint, error) {
	if err := validateInput(in); err != nil {
		return model.StoryPoint{}, err
	}
	path, err := pathFor(func() (string, error) { return endpoints.StoryPoints(storyboardID) })
	if err != nil {
		return model.StoryPoint{}, err
	}
	boardPath, _ := endpoints.Storyboard(storyboardID)
	var out model.StoryPoint
	if err := s.post(ctx, path, in, "story_point", &out, httpclient.Invalidate(boardPath)); err != nil {
		return model.StoryPoint{}, err
	}
	return out, nil
}
