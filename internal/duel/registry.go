package duel

import (
	"sync"

	"github.com/google/uuid"

	"github.com/smartquizarena/arena/internal/room"
)

const codePrefix = "room"

// Registry owns the map of live duel rooms. Codes are generated under the
// registry lock so a collision check and the insert are atomic.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Create allocates a room with a fresh code and seats the creator.
func (g *Registry) Create(player string, connID uuid.UUID, settings Settings) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	code := room.NewCode(codePrefix, func(code string) bool {
		_, exists := g.rooms[code]
		return exists
	})

	r := newRoom(code, settings)
	r.members = append(r.members, player)
	r.scores[player] = 0
	r.conns[player] = connID
	g.rooms[code] = r
	return r
}

// Join seats a player in an existing waiting room. The name is disambiguated
// against current members; the seated name is returned. A full or already
// started room rejects the join with room.ErrFull.
func (g *Registry) Join(roomID, player string, connID uuid.UUID) (*Room, string, error) {
	g.mu.RLock()
	r, exists := g.rooms[roomID]
	g.mu.RUnlock()
	if !exists {
		return nil, "", room.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != room.StatusWaiting || len(r.members) >= room.Capacity {
		return nil, "", room.ErrFull
	}

	name := room.UniqueName(player, r.members)
	r.members = append(r.members, name)
	r.scores[name] = 0
	r.conns[name] = connID
	return r, name, nil
}

// Get looks up a live room by code.
func (g *Registry) Get(roomID string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, exists := g.rooms[roomID]
	return r, exists
}

// Remove drops a room from the registry.
func (g *Registry) Remove(roomID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, roomID)
}

// Len reports the number of live rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
