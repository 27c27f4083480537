package services

import (
	"context"

	"github.com/five82/harmonic/internal/endpoints"
	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/model"
)

// NoteInput is the body for creating or updating a note.
type NoteInput struct {
	UniverseID  int64    `json:"universe_id" validate:"required,gt=0"`
	SceneID     *int64   `json:"scene_id,omitempty"`
	CharacterID *int64   `json:"character_id,omitempty"`
	Title       string   `json:"title" validate:"required,max=200"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags,omitempty" validate:"dive,max=40"`
}

// NoteService manages notes.
type NoteService struct{ base }

// ListByUniverse returns the notes of a universe.
func (s *NoteService) ListByUniverse(ctx context.Context, universeID int64) ([]model.Note, error) {
	path, err := pathFor(func() (string, error) { return endpoints.UniverseNotes(universeID) })
	if err != nil {
		return nil, err
	}
	var out []model.Note
	if err := s.get(ctx, path, "notes", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create creates a note.
func (s *NoteService) Create(ctx context.Context, in NoteInput) (model.Note, error) {
	if err := validateInput(in); err != nil {
		return model.Note{}, err
	}
	listPath, err := pathFor(func() (string, error) { return endpoints.UniverseNotes(in.UniverseID) })
	if err != nil {
		return model.Note{}, err
	}
	var out model.Note
	if err := s.post(ctx, endpoints.Notes(), in, "note", &out, httpclient.Invalidate(listPath)); err != nil {
		return model.Note{}, err
	}
	return out, nil
}

// Update replaces a note's editable fields.
func (s *NoteService) Update(ctx context.Context, id int64, in NoteInput) (model.Note, error) {
	if err := validateInput(in); err != nil {
		return model.Note{}, err
	}
	path, err := pathFor(func() (string, error) { return endpoints.Note(id) })
	if err != nil {
		return model.Note{}, err
	}
	var out model.Note
	if err := s.put(ctx, path, in, "note", &out); err != nil {
		return model.Note{}, err
	}
	return out, nil
}

// Delete removes a note.
func (s *NoteService) Delete(ctx context.Context, id int64) error {
	path, err := pathFor(func() (string, error) { return endpoints.Note(id) })
	if err != nil {
		return err
	}
	return s.del(ctx, path)
}
