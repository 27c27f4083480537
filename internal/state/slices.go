package state

import (
	"slices"

	"github.com/five82/harmonic/internal/model"
)

// Status is the request status of a slice.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// AuthState is the session as the UI sees it.
type AuthState struct {
	User               *model.User
	IsAuthenticated    bool
	IsDemo             bool
	VerificationFailed bool
	Status             Status
	Error              *Failure
}

// UniverseState holds the user's universes.
type UniverseState struct {
	Items     []model.Universe
	CurrentID int64
	Status    Status
	Error     *Failure
}

// SceneState holds scenes in a flat list plus an index by universe.
type SceneState struct {
	Scenes         []model.Scene
	UniverseScenes map[int64][]model.Scene
	CurrentID      int64
	Status         Status
	Error          *Failure
}

func reduceAuth(s AuthState, a Action) AuthState {
	switch a.Type {
	case AuthLogin, AuthRegister, AuthDemoLogin, AuthCheck:
		switch a.Lifecycle {
		case Pending:
			s.Status = StatusLoading
			s.Error = nil
		case Rejected:
			s.Status = StatusFailed
			s.Error = a.Error
			if a.Type == AuthCheck {
				s.User = nil
				s.IsAuthenticated = false
			}
		case Fulfilled:
			var user model.User
			switch p := a.Payload.(type) {
			case model.AuthResult:
				user = p.User
			case model.User:
				user = p
			}
			s.User = &user
			s.IsAuthenticated = true
			s.IsDemo = user.IsDemo || a.Type == AuthDemoLogin
			s.VerificationFailed = false
			s.Status = StatusSucceeded
			s.Error = nil
		}
	case AuthLogout:
		if a.Lifecycle == Fulfilled || a.Lifecycle == Rejected {
			return AuthState{}
		}
	case AuthSignedOut:
		return AuthState{VerificationFailed: true, Error: a.Error, Status: StatusIdle}
	}
	return s
}

func reduceUniverses(s UniverseState, a Action) UniverseState {
	if signedOut(a) {
		return UniverseState{}
	}
	switch a.Type {
	case UniversesFetch, UniverseFetch, UniverseCreate, UniverseUpdate, UniverseDelete:
		switch a.Lifecycle {
		case Pending:
			s.Status = StatusLoading
			s.Error = nil
			return s
		case Rejected:
			s.Status = StatusFailed
			s.Error = a.Error
			return s
		case Fulfilled:
			s.Status = StatusSucceeded
			s.Error = nil
		default:
			return s
		}
	}

	switch a.Type {
	case UniversesFetch:
		if items, ok := a.Payload.([]model.Universe); ok {
			s.Items = dedupeUniverses(items)
			if s.CurrentID != 0 && indexUniverse(s.Items, s.CurrentID) < 0 {
				s.CurrentID = 0
			}
		}
	case UniverseFetch, UniverseCreate, UniverseUpdate:
		if u, ok := a.Payload.(model.Universe); ok {
			s.Items = upsertUniverse(s.Items, u)
			if u.IsDeleted {
				if s.CurrentID == u.ID {
					s.CurrentID = 0
				}
			} else if a.Type != UniverseUpdate || s.CurrentID == u.ID {
				s.CurrentID = u.ID
			}
		}
	case UniverseDelete:
		if id, ok := a.Payload.(int64); ok {
			s.Items = removeUniverse(s.Items, id)
			if s.CurrentID == id {
				s.CurrentID = 0
			}
		}
	case UniverseSelect:
		if id, ok := a.Payload.(int64); ok {
			if id == 0 || indexUniverse(s.Items, id) >= 0 {
				s.CurrentID = id
			}
		}
	case UniverseDismiss:
		s.Error = nil
		if s.Status == StatusFailed {
			s.Status = StatusIdle
		}
	}
	return s
}

func reduceScenes(s SceneState, a Action) SceneState {
	if signedOut(a) {
		return SceneState{}
	}
	if a.Type == UniverseDelete && a.Lifecycle == Fulfilled {
		if id, ok := a.Payload.(int64); ok {
			s = dropUniverseScenes(s, id)
		}
		return s
	}
	switch a.Type {
	case ScenesFetch, SceneCreate, SceneUpdate, SceneDelete:
		switch a.Lifecycle {
		case Pending:
			s.Status = StatusLoading
			s.Error = nil
			return s
		case Rejected:
			s.Status = StatusFailed
			s.Error = a.Error
			return s
		case Fulfilled:
			s.Status = StatusSucceeded
			s.Error = nil
		default:
			return s
		}
	}

	switch a.Type {
	case ScenesFetch:
		if p, ok := a.Payload.(ScenesPayload); ok {
			current := s.CurrentID
			s = dropUniverseScenes(s, p.UniverseID)
			fresh := dedupeScenes(p.Scenes)
			for i := range fresh {
				if fresh[i].UniverseID == 0 {
					fresh[i].UniverseID = p.UniverseID
				}
			}
			s.Scenes = append(s.Scenes, fresh...)
			s.UniverseScenes = cloneIndex(s.UniverseScenes)
			s.UniverseScenes[p.UniverseID] = slices.Clone(fresh)
			s.CurrentID = current
			if current != 0 && indexScene(s.Scenes, current) < 0 {
				s.CurrentID = 0
			}
		}
	case SceneCreate, SceneUpdate:
		if sc, ok := a.Payload.(model.Scene); ok {
			s = upsertScene(s, sc)
			if sc.IsDeleted {
				if s.CurrentID == sc.ID {
					s.CurrentID = 0
				}
			} else if a.Type == SceneCreate || s.CurrentID == sc.ID {
				s.CurrentID = sc.ID
			}
		}
	case SceneDelete:
		if ref, ok := a.Payload.(SceneRef); ok {
			s = removeScene(s, ref.ID)
			if s.CurrentID == ref.ID {
				s.CurrentID = 0
			}
		}
	case SceneSelect:
		if id, ok := a.Payload.(int64); ok {
			if id == 0 || indexScene(s.Scenes, id) >= 0 {
				s.CurrentID = id
			}
		}
	case SceneDismiss:
		s.Error = nil
		if s.Status == StatusFailed {
			s.Status = StatusIdle
		}
	}
	return s
}

func signedOut(a Action) bool {
	switch a.Type {
	case AuthSignedOut:
		return true
	case AuthLogout:
		return a.Lifecycle == Fulfilled || a.Lifecycle == Rejected
	}
	return false
}

// dedupeUniverses keeps the first position of each id with the last value
// seen for it, and drops soft-deleted entries.
func dedupeUniverses(items []model.Universe) []model.Universe {
	out := make([]model.Universe, 0, len(items))
	pos := make(map[int64]int, len(items))
	for _, u := range items {
		if i, ok := pos[u.ID]; ok {
			out[i] = u
			continue
		}
		pos[u.ID] = len(out)
		out = append(out, u)
	}
	return slices.DeleteFunc(out, func(u model.Universe) bool { return u.IsDeleted })
}

func indexUniverse(items []model.Universe, id int64) int {
	return slices.IndexFunc(items, func(u model.Universe) bool { return u.ID == id })
}

func upsertUniverse(items []model.Universe, u model.Universe) []model.Universe {
	if u.IsDeleted {
		return removeUniverse(items, u.ID)
	}
	out := slices.Clone(items)
	if i := indexUniverse(out, u.ID); i >= 0 {
		out[i] = u
		return out
	}
	return append(out, u)
}

func removeUniverse(items []model.Universe, id int64) []model.Universe {
	return slices.DeleteFunc(slices.Clone(items), func(u model.Universe) bool { return u.ID == id })
}

func dedupeScenes(items []model.Scene) []model.Scene {
	out := make([]model.Scene, 0, len(items))
	pos := make(map[int64]int, len(items))
	for _, sc := range items {
		if i, ok := pos[sc.ID]; ok {
			out[i] = sc
			continue
		}
		pos[sc.ID] = len(out)
		out = append(out, sc)
	}
	out = slices.DeleteFunc(out, func(sc model.Scene) bool { return sc.IsDeleted })
	slices.SortStableFunc(out, func(a, b model.Scene) int { return a.SceneOrder - b.SceneOrder })
	return out
}

func indexScene(items []model.Scene, id int64) int {
	return slices.IndexFunc(items, func(sc model.Scene) bool { return sc.ID == id })
}

func upsertScene(s SceneState, sc model.Scene) SceneState {
	if sc.UniverseID == 0 {
		if i := indexScene(s.Scenes, sc.ID); i >= 0 {
			sc.UniverseID = s.Scenes[i].UniverseID
		}
	}
	if sc.IsDeleted {
		return removeScene(s, sc.ID)
	}
	if i := indexScene(s.Scenes, sc.ID); i >= 0 && s.Scenes[i].UniverseID != sc.UniverseID {
		s = removeScene(s, sc.ID)
	}
	s.Scenes = replaceOrAppendScene(s.Scenes, sc)
	s.UniverseScenes = cloneIndex(s.UniverseScenes)
	s.UniverseScenes[sc.UniverseID] = replaceOrAppendScene(s.UniverseScenes[sc.UniverseID], sc)
	return s
}

// replaceOrAppendScene returns a copy of items with sc at its existing
// position, or appended when absent.
func replaceOrAppendScene(items []model.Scene, sc model.Scene) []model.Scene {
	out := slices.Clone(items)
	if i := indexScene(out, sc.ID); i >= 0 {
		out[i] = sc
		return out
	}
	return append(out, sc)
}

func removeScene(s SceneState, id int64) SceneState {
	s.Scenes = slices.DeleteFunc(slices.Clone(s.Scenes), func(sc model.Scene) bool { return sc.ID == id })
	if len(s.UniverseScenes) == 0 {
		return s
	}
	idx := cloneIndex(s.UniverseScenes)
	for uid, list := range idx {
		if indexScene(list, id) >= 0 {
			idx[uid] = slices.DeleteFunc(slices.Clone(list), func(sc model.Scene) bool { return sc.ID == id })
		}
	}
	s.UniverseScenes = idx
	return s
}

func dropUniverseScenes(s SceneState, universeID int64) SceneState {
	s.Scenes = slices.DeleteFunc(slices.Clone(s.Scenes), func(sc model.Scene) bool { return sc.UniverseID == universeID })
	if _, ok := s.UniverseScenes[universeID]; ok {
		s.UniverseScenes = cloneIndex(s.UniverseScenes)
		delete(s.UniverseScenes, universeID)
	}
	if s.CurrentID != 0 && indexScene(s.Scenes, s.CurrentID) < 0 {
		s.CurrentID = 0
	}
	return s
}

func cloneIndex(idx map[int64][]model.Scene) map[int64][]model.Scene {
	out := make(map[int64][]model.Scene, len(idx)+1)
	for k, v := range idx {
		out[k] = v
	}
	return out
}
