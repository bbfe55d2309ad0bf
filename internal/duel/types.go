// Package duel coordinates two-player quiz rooms: a registry of live rooms,
// activation once both seats fill, per-question scoring, and the final
// winner computation.
package duel

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartquizarena/arena/internal/question"
	"github.com/smartquizarena/arena/internal/room"
)

// PointsPerCorrect is awarded for each correct answer.
const PointsPerCorrect = 10

// Settings are the quiz parameters fixed at room creation.
type Settings struct {
	Topic        string
	Difficulty   string
	NumQuestions int
}

// Room is one quiz duel. All mutable state is guarded by mu; the registry
// lock only covers membership of the room map, never room internals.
type Room struct {
	mu sync.Mutex

	ID        string
	Settings  Settings
	CreatedAt time.Time

	status  room.Status
	members []string             // join order, disambiguated names
	conns   map[string]uuid.UUID // player -> hub connection

	questions  []question.Question
	currentIdx int
	scores     map[string]int
	answered   map[string]bool // players who answered the current question
}

func newRoom(id string, settings Settings) *Room {
	return &Room{
		ID:        id,
		Settings:  settings,
		CreatedAt: time.Now(),
		status:    room.StatusWaiting,
		conns:     make(map[string]uuid.UUID),
		scores:    make(map[string]int),
		answered:  make(map[string]bool),
	}
}

// Members returns a copy of the member list in join order.
func (r *Room) Members() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.members...)
}

// Status returns the room's lifecycle state.
func (r *Room) Status() room.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Scores returns a copy of the current score table.
func (r *Room) Scores() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	scores := make(map[string]int, len(r.scores))
	for player, score := range r.scores {
		scores[player] = score
	}
	return scores
}
