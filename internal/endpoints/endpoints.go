// Package endpoints maps Harmonic Universe resources to request paths.
//
// Paths are returned relative to the API prefix ("/universes/7"); the HTTP
// client adds the prefix exactly once when it formats the request URL.
package endpoints

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidID is returned when an id cannot be used in a path segment.
var ErrInvalidID = errors.New("invalid resource id")

// SanitizeID converts id to a single escaped path segment. It accepts
// integers and strings; blank strings and the JavaScript-ish placeholders
// "undefined" and "null" are rejected.
func SanitizeID(id any) (string, error) {
	switch v := id.(type) {
	case int:
		return sanitizeInt(int64(v))
	case int32:
		return sanitizeInt(int64(v))
	case int64:
		return sanitizeInt(v)
	case uint64:
		if v == 0 {
			return "", fmt.Errorf("%w: %d", ErrInvalidID, v)
		}
		return strconv.FormatUint(v, 10), nil
	case string:
		trimmed := strings.Trim(strings.TrimSpace(v), "/")
		switch strings.ToLower(trimmed) {
		case "", "undefined", "null", "nan":
			return "", fmt.Errorf("%w: %q", ErrInvalidID, v)
		}
		return url.PathEscape(trimmed), nil
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidID, id)
	}
}

func sanitizeInt(v int64) (string, error) {
	if v <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidID, v)
	}
	return strconv.FormatInt(v, 10), nil
}

func join(segments ...string) string {
	return "/" + strings.Join(segments, "/")
}

func resource(collection string, id any, rest ...string) (string, error) {
	seg, err := SanitizeID(id)
	if err != nil {
		return "", err
	}
	return join(append([]string{collection, seg}, rest...)...), nil
}

// Auth endpoints.
const (
	AuthLogin    = "/auth/login"
	AuthRegister = "/auth/register"
	AuthDemo     = "/auth/demo-login"
	AuthRefresh  = "/auth/refresh"
	AuthLogout   = "/auth/logout"
	AuthValidate = "/auth/validate"
	CurrentUser  = "/users/me"
	Health       = "/health"
)

// Universes returns the universe collection path.
func Universes() string { return join("universes") }

// Universe returns the path of one universe.
func Universe(id any) (string, error) { return resource("universes", id) }

// UniverseScenes returns the scenes collection nested under a universe.
func UniverseScenes(universeID any) (string, error) {
	return resource("universes", universeID, "scenes")
}

// UniverseCharacters returns the characters collection nested under a universe.
func UniverseCharacters(universeID any) (string, error) {
	return resource("universes", universeID, "characters")
}

// UniverseNotes returns the notes collection nested under a universe.
func UniverseNotes(universeID any) (string, error) {
	return resource("universes", universeID, "notes")
}

// UniverseStoryboards returns the storyboards collection nested under a universe.
func UniverseStoryboards(universeID any) (string, error) {
	return resource("universes", universeID, "storyboards")
}

// UniverseAudio returns the audio tracks collection nested under a universe.
func UniverseAudio(universeID any) (string, error) {
	return resource("universes", universeID, "audio-tracks")
}

// Scenes returns the flat scene collection path.
func Scenes() string { return join("scenes") }

// Scene returns the path of one scene.
func Scene(id any) (string, error) { return resource("scenes", id) }

// ScenePhysics returns the physics parameter sets of a scene.
func ScenePhysics(sceneID any) (string, error) {
	return resource("scenes", sceneID, "physics-parameters")
}

// PhysicsParameters returns the path of one physics parameter set.
func PhysicsParameters(id any) (string, error) { return resource("physics-parameters", id) }

// Characters returns the flat character collection path.
func Characters() string { return join("characters") }

// Character returns the path of one character.
func Character(id any) (string, error) { return resource("characters", id) }

// Notes returns the flat note collection path.
func Notes() string { return join("notes") }

// Note returns the path of one note.
func Note(id any) (string, error) { return resource("notes", id) }

// AudioTracks returns the flat audio track collection path.
func AudioTracks() string { return join("audio-tracks") }

// AudioTrack returns the path of one audio track.
func AudioTrack(id any) (string, error) { return resource("audio-tracks", id) }

// GenerateMusic returns the music generation path for a universe.
func GenerateMusic(universeID any) (string, error) {
	return resource("universes", universeID, "generate-music")
}

// Storyboards returns the flat storyboard collection path.
func Storyboards() string { return join("storyboards") }

// Storyboard returns the path of one storyboard.
func Storyboard(id any) (string, error) { return resource("storyboards", id) }

// StoryPoints returns the story points of a storyboard.
func StoryPoints(storyboardID any) (string, error) {
	return resource("storyboards", storyboardID, "story-points")
}

// User returns the path of one user.
func User(id any) (string, error) { return resource("users", id) }
