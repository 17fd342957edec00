// internal/game/registry.go
package game

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Registry is the process-wide collection of live rooms, keyed by room id.
// It is the sole authority on room existence: entries are created here and
// removed either explicitly or by a room's own deletion callback. The map is
// guarded by its own mutex since creation, lookup and removal race across
// rooms.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRegistry returns an empty in-memory registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// Create constructs a room wired with a deletion callback that removes it
// from this registry, inserts it, and returns it. Id uniqueness is the
// caller's job (the allocator checks Exists first); an existing entry is
// overwritten.
func (s *Registry) Create(id, owner string, maxPlayers, numRounds int, collections []string) *Room {
	room := NewRoom(id, owner, maxPlayers, numRounds, collections, func() {
		s.Remove(id)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[id] = room
	log.Infof("Registry: created room %s (owner %s, max %d)", id, owner, maxPlayers)
	return room
}

// Get retrieves a room if it exists.
func (s *Registry) Get(id string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Remove deletes the entry for id, if any.
func (s *Registry) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; ok {
		delete(s.rooms, id)
		log.Infof("Registry: removed room %s", id)
	}
}

// Exists reports whether a room with the id is live.
func (s *Registry) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[id]
	return ok
}

// GetAll returns a snapshot slice of every live room, for listing and
// debugging.
func (s *Registry) GetAll() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}
