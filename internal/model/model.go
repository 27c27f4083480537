// Package model defines the Harmonic Universe resources as they travel over
// the wire.
package model

import (
	"encoding/json"
	"time"
)

const backendTimestampLayout = "2006-01-02 15:04:05"

// User is the authenticated account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsDemo   bool   `json:"is_demo,omitempty"`
}

// Universe is the top-level user-owned container.
type Universe struct {
	ID            int64          `json:"id"`
	UserID        int64          `json:"user_id,omitempty"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	IsPublic      bool           `json:"is_public"`
	Theme         string         `json:"theme,omitempty"`
	Genre         string         `json:"genre,omitempty"`
	CreatedAt     string         `json:"created_at,omitempty"`
	UpdatedAt     string         `json:"updated_at,omitempty"`
	PhysicsParams map[string]any `json:"physics_params,omitempty"`
	HarmonyParams map[string]any `json:"harmony_params,omitempty"`
	IsDeleted     bool           `json:"is_deleted,omitempty"`
}

// ParsedUpdatedAt returns UpdatedAt as time.Time, or the zero time.
func (u Universe) ParsedUpdatedAt() time.Time {
	return parseTime(u.UpdatedAt)
}

// Scene is an ordered child of a Universe.
type Scene struct {
	ID          int64  `json:"id"`
	UniverseID  int64  `json:"universe_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SceneOrder  int    `json:"scene_order"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
	IsDeleted   bool   `json:"is_deleted,omitempty"`
}

// ParsedCreatedAt returns CreatedAt as time.Time, or the zero time.
func (s Scene) ParsedCreatedAt() time.Time {
	return parseTime(s.CreatedAt)
}

// PhysicsParameter is a single named, bounded value.
type PhysicsParameter struct {
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Enabled bool    `json:"enabled"`
}

// Clamped returns Value limited to [Min, Max] when the bounds are set.
func (p PhysicsParameter) Clamped() float64 {
	if p.Max <= p.Min {
		return p.Value
	}
	return min(max(p.Value, p.Min), p.Max)
}

// PhysicsParameters is a versioned parameter set for one scene.
type PhysicsParameters struct {
	ID         int64                       `json:"id"`
	SceneID    int64                       `json:"scene_id"`
	Version    int                         `json:"version"`
	IsActive   bool                        `json:"is_active"`
	Parameters map[string]PhysicsParameter `json:"parameters"`
}

// ActivateVersion marks the set with the given version active and every
// other set inactive. It reports whether the version was found.
func ActivateVersion(sets []PhysicsParameters, version int) bool {
	found := false
	for i := range sets {
		sets[i].IsActive = sets[i].Version == version
		if sets[i].IsActive {
			found = true
		}
	}
	return found
}

// ActiveParameters returns the active set among sets, if any.
func ActiveParameters(sets []PhysicsParameters) (PhysicsParameters, bool) {
	for _, set := range sets {
		if set.IsActive {
			return set, true
		}
	}
	return PhysicsParameters{}, false
}

// Character belongs to a universe and optionally a scene.
type Character struct {
	ID            int64          `json:"id"`
	UniverseID    int64          `json:"universe_id"`
	SceneID       *int64         `json:"scene_id,omitempty"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	Relationships []Relationship `json:"relationships,omitempty"`
}

// Relationship links one character to another.
type Relationship struct {
	CharacterID int64  `json:"character_id"`
	Kind        string `json:"kind"`
}

// Note is free text attached to a universe, scene or character.
type Note struct {
	ID          int64    `json:"id"`
	UniverseID  int64    `json:"universe_id"`
	SceneID     *int64   `json:"scene_id,omitempty"`
	CharacterID *int64   `json:"character_id,omitempty"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags,omitempty"`
}

// AudioTrack is a piece of generated music.
type AudioTrack struct {
	ID         int64          `json:"id"`
	UniverseID int64          `json:"universe_id"`
	SceneID    *int64         `json:"scene_id,omitempty"`
	Algorithm  string         `json:"algorithm"`
	Duration   float64        `json:"duration"`
	Key        string         `json:"key"`
	Scale      string         `json:"scale"`
	Parameters map[string]any `json:"parameters,omitempty"`
	AudioURL   string         `json:"audio_url,omitempty"`
}

// DurationValue returns Duration in seconds as a time.Duration.
func (a AudioTrack) DurationValue() time.Duration {
	return time.Duration(a.Duration * float64(time.Second))
}

// Position is a storyboard coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StoryPoint is one card on a storyboard.
type StoryPoint struct {
	ID         int64    `json:"id"`
	UniverseID int64    `json:"universe_id"`
	Position   Position `json:"position"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
}

// Storyboard groups story points for a universe.
type Storyboard struct {
	ID          int64        `json:"id"`
	UniverseID  int64        `json:"universe_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Points      []StoryPoint `json:"story_points,omitempty"`
}

// AuthResult is what the auth endpoints return after login or refresh.
type AuthResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// HealthStatus mirrors /api/health.
type HealthStatus struct {
	Status  string          `json:"status"`
	Version string          `json:"version,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

// Healthy reports whether the backend said it is up.
func (h HealthStatus) Healthy() bool {
	switch h.Status {
	case "ok", "healthy", "up":
		return true
	default:
		return false
	}
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(backendTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
