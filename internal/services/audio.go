package services

import (
	"context"

	"github.com/five82/harmonic/internal/endpoints"
	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/model"
)

// MusicRequest asks the backend to generate a track for a universe.
type MusicRequest struct {
	SceneID    *int64         `json:"scene_id,omitempty"`
	Algorithm  string         `json:"algorithm" validate:"required,oneof=harmonic markov cellular fractal"`
	Duration   float64        `json:"duration" validate:"gt=0,lte=600"`
	Key        string         `json:"key,omitempty" validate:"omitempty,max=3"`
	Scale      string         `json:"scale,omitempty" validate:"omitempty,oneof=major minor dorian phrygian lydian mixolydian locrian pentatonic"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// AudioService manages generated music.
type AudioService struct{ base }

// ListByUniverse returns the tracks of a universe.
func (s *AudioService) ListByUniverse(ctx context.Context, universeID int64) ([]model.AudioTrack, error) {
	path, err := pathFor(func() (string, error) { return endpoints.UniverseAudio(universeID) })
	if err != nil {
		return nil, err
	}
	var out []model.AudioTrack
	if err := s.get(ctx, path, "audio_tracks", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one track.
func (s *AudioService) Get(ctx context.Context, id int64) (model.AudioTrack, error) {
	path, err := pathFor(func() (string, error) { return endpoints.AudioTrack(id) })
	if err != nil {
		return model.AudioTrack{}, err
	}
	var out model.AudioTrack
	if err := s.get(ctx, path, "audio_track", &out); err != nil {
		return model.AudioTrack{}, err
	}
	return out, nil
}

// Generate creates a new track for a universe.
func (s *AudioService) Generate(ctx context.Context, universeID int64, req MusicRequest) (model.AudioTrack, error) {
	if err := validateInput(req); err != nil {
		return model.AudioTrack{}, err
	}
	path, err := pathFor(func() (string, error) { return endpoints.GenerateMusic(universeID) })
	if err != nil {
		return model.AudioTrack{}, err
	}
	listPath, _ := endpoints.UniverseAudio(universeID)
	var out model.AudioTrack
	if err := s.post(ctx, path, req, "audio_track", &out, httpclient.Invalidate(listPath)); err != nil {
		return model.AudioTrack{}, err
	}
	if out.UniverseID == 0 {
		out.UniverseID = universeID
	}
	return out, nil
}

// Delete removes a track.
func (s *AudioService) Delete(ctx context.Context, id int64) error {
	path, err := pathFor(func() (string, error) { return endpoints.AudioTrack(id) })
	if err != nil {
		return err
	}
	return s.del(ctx, path)
}
