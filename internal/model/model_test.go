package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTimeLayouts(t *testing.T) {
	if parseTime("2025-12-13T10:11:12Z").IsZero() {
		t.Fatalf("parseTime should parse RFC3339")
	}
	got := parseTime("2025-12-13 10:11:12")
	if got.IsZero() {
		t.Fatalf("parseTime should parse backend timestamp")
	}
	if got.Year() != 2025 || got.Month() != time.December || got.Day() != 13 {
		t.Fatalf("parseTime = %v, want 2025-12-13", got)
	}
	if !parseTime("yesterday").IsZero() {
		t.Fatalf("parseTime should return zero for garbage")
	}
}

func TestActivateVersion_LeavesOneActive(t *testing.T) {
	sets := []PhysicsParameters{
		{Version: 1, IsActive: true},
		{Version: 2},
		{Version: 3, IsActive: true},
	}
	if !ActivateVersion(sets, 2) {
		t.Fatalf("ActivateVersion returned false, want true")
	}
	active := 0
	for _, s := range sets {
		if s.IsActive {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("active sets = %d, want 1", active)
	}
	got, ok := ActiveParameters(sets)
	if !ok || got.Version != 2 {
		t.Fatalf("ActiveParameters = %#v, %v; want version 2", got, ok)
	}

	if ActivateVersion(sets, 9) {
		t.Fatalf("ActivateVersion(9) returned true, want false")
	}
	if _, ok := ActiveParameters(sets); ok {
		t.Fatalf("no set should be active after activating a missing version")
	}
}

func TestPhysicsParameterClamped(t *testing.T) {
	p := PhysicsParameter{Value: 12, Min: 0, Max: 10}
	if p.Clamped() != 10 {
		t.Fatalf("Clamped = %v, want 10", p.Clamped())
	}
	p.Value = -1
	if p.Clamped() != 0 {
		t.Fatalf("Clamped = %v, want 0", p.Clamped())
	}
	unbounded := PhysicsParameter{Value: 42}
	if unbounded.Clamped() != 42 {
		t.Fatalf("Clamped unbounded = %v, want 42", unbounded.Clamped())
	}
}

func TestCharacterOptionalScene(t *testing.T) {
	var c Character
	if err := json.Unmarshal([]byte(`{"id":1,"universe_id":2,"name":"Ada"}`), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if c.SceneID != nil {
		t.Fatalf("SceneID = %v, want nil", *c.SceneID)
	}
	if err := json.Unmarshal([]byte(`{"id":1,"universe_id":2,"scene_id":5}`), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if c.SceneID == nil || *c.SceneID != 5 {
		t.Fatalf("SceneID = %v, want 5", c.SceneID)
	}
}

func TestHealthStatusHealthy(t *testing.T) {
	for _, s := range []string{"ok", "healthy", "up"} {
		if !(HealthStatus{Status: s}).Healthy() {
			t.Fatalf("Healthy(%q) = false, want true", s)
		}
	}
	if (HealthStatus{Status: "degraded"}).Healthy() {
		t.Fatalf("Healthy(degraded) = true, want false")
	}
}

func TestAudioTrackDuration(t *testing.T) {
	if got := (AudioTrack{Duration: 2.5}).DurationValue(); got != 2500*time.Millisecond {
		t.Fatalf("DurationValue = %v, want 2.5s", got)
	}
}
