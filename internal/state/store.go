package state

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/five82/harmonic/internal/model"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Auth      AuthState
	Universes UniverseState
	Scenes    SceneState

	LastAction          string
	LastUpdated         time.Time
	LastPollError       error
	ConsecutiveFailures int // Number of consecutive background refresh failures
}

// IsOffline returns true when the backend has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// CurrentUniverse returns the selected universe, if any.
func (s Snapshot) CurrentUniverse() (model.Universe, bool) {
	if s.Universes.CurrentID == 0 {
		return model.Universe{}, false
	}
	if i := indexUniverse(s.Universes.Items, s.Universes.CurrentID); i >= 0 {
		return s.Universes.Items[i], true
	}
	return model.Universe{}, false
}

// CurrentScene returns the selected scene, if any.
func (s Snapshot) CurrentScene() (model.Scene, bool) {
	if s.Scenes.CurrentID == 0 {
		return model.Scene{}, false
	}
	if i := indexScene(s.Scenes.Scenes, s.Scenes.CurrentID); i >= 0 {
		return s.Scenes.Scenes[i], true
	}
	return model.Scene{}, false
}

// ScenesFor returns the indexed scenes of a universe.
func (s Snapshot) ScenesFor(universeID int64) []model.Scene {
	return s.Scenes.UniverseScenes[universeID]
}

// Store coordinates concurrent updates to the snapshot. The zero value is
// ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan struct{}
}

// Dispatch runs a through every reducer and notifies subscribers.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.snapshot.Auth = reduceAuth(s.snapshot.Auth, a)
	s.snapshot.Universes = reduceUniverses(s.snapshot.Universes, a)
	s.snapshot.Scenes = reduceScenes(s.snapshot.Scenes, a)
	s.snapshot.LastAction = a.Name()
	s.snapshot.LastUpdated = time.Now()
	s.mu.Unlock()

	s.notify()
}

// RecordPoll records the outcome of a background refresh. When err is
// non-nil the previous data is kept but the error is recorded for
// visibility.
func (s *Store) RecordPoll(err error) {
	s.mu.Lock()
	if err != nil {
		s.snapshot.LastPollError = err
		s.snapshot.ConsecutiveFailures++
	} else {
		s.snapshot.LastPollError = nil
		s.snapshot.ConsecutiveFailures = 0
	}
	s.snapshot.LastUpdated = time.Now()
	s.mu.Unlock()

	s.notify()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if u := s.snapshot.Auth.User; u != nil {
		dup := *u
		snap.Auth.User = &dup
	}
	snap.Universes.Items = slices.Clone(s.snapshot.Universes.Items)
	snap.Scenes.Scenes = slices.Clone(s.snapshot.Scenes.Scenes)
	if idx := s.snapshot.Scenes.UniverseScenes; idx != nil {
		snap.Scenes.UniverseScenes = make(map[int64][]model.Scene, len(idx))
		for k, v := range maps.All(idx) {
			snap.Scenes.UniverseScenes[k] = slices.Clone(v)
		}
	}
	return snap
}

// Subscribe returns a channel that receives a signal after every change and
// a function that cancels the subscription. Signals are coalesced.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]chan struct{})
	}
	id := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
