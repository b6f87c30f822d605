package arena

import "sync"

// Registry is the lookup of live matches. The transport layer routes
// per-connection events through it, by match id or by player id.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]*Match
	byPlayer map[string]*Match
}

func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[string]*Match),
		byPlayer: make(map[string]*Match),
	}
}

func (r *Registry) register(m *Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[m.ID] = m
	r.byPlayer[m.p1.PlayerID] = m
	r.byPlayer[m.p2.PlayerID] = m
}

func (r *Registry) deregister(m *Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byID[m.ID] != m {
		return
	}
	delete(r.byID, m.ID)
	delete(r.byPlayer, m.p1.PlayerID)
	delete(r.byPlayer, m.p2.PlayerID)
}

// Get returns the live match with the given id, or nil.
func (r *Registry) Get(matchID string) *Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[matchID]
}

// ForPlayer returns the live match the player is fighting in, or nil.
func (r *Registry) ForPlayer(playerID string) *Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byPlayer[playerID]
}

// Count returns the number of live matches.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
