// Package battle coordinates two-player coding battles: one shared problem,
// one submission per player evaluated case-by-case in the sandbox, and a
// winner decided by passed count, then runtime, then submission time.
package battle

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartquizarena/arena/internal/problem"
	"github.com/smartquizarena/arena/internal/room"
)

// Stat points awarded when a battle resolves.
const (
	WinnerPoints = 100
	LoserPoints  = 20
)

// CaseResult is the verdict for one test case, shaped for the client.
type CaseResult struct {
	Input    string  `json:"input"`
	Expected string  `json:"expected_output"`
	Stdout   string  `json:"stdout"`
	Stderr   string  `json:"stderr,omitempty"`
	Status   string  `json:"status"`
	Passed   bool    `json:"passed"`
	TimeSec  float64 `json:"time"`
}

// Submission is one player's evaluated attempt. The slot is reserved before
// evaluation starts so a resent submit can never trigger a second sandbox
// run.
type Submission struct {
	Player      string
	Code        string
	LanguageID  int
	Passed      int
	Total       int
	Results     []CaseResult
	RuntimeSec  float64
	SubmittedAt time.Time
	done        bool
}

// Room is one coding battle. mu guards all mutable state.
type Room struct {
	mu sync.Mutex

	ID        string
	Problem   *problem.Problem
	CreatedAt time.Time

	status      room.Status
	members     []string             // join order breaks exact ties
	conns       map[string]uuid.UUID // player -> hub connection
	submissions map[string]*Submission
}

func newRoom(id string, prob *problem.Problem) *Room {
	return &Room{
		ID:          id,
		Problem:     prob,
		CreatedAt:   time.Now(),
		status:      room.StatusWaiting,
		conns:       make(map[string]uuid.UUID),
		submissions: make(map[string]*Submission),
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
