package battle

import (
	"sync"

	"github.com/google/uuid"

	"github.com/smartquizarena/arena/internal/problem"
	"github.com/smartquizarena/arena/internal/room"
)

const codePrefix = "battle"

// Registry owns the map of live battle rooms.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Create allocates a room around a picked problem and seats the creator.
func (g *Registry) Create(player string, connID uuid.UUID, prob *problem.Problem) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	code := room.NewCode(codePrefix, func(code string) bool {
		_, exists := g.rooms[code]
		return exists
	})

	r := newRoom(code, prob)
	r.members = append(r.members, player)
	r.conns[player] = connID
	g.rooms[code] = r
	return r
}

// Join seats a player in an existing waiting room, disambiguating the name
// against current members.
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
