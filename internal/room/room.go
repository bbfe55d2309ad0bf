// Package room holds the plumbing shared by the duel and battle registries:
// lifecycle states, the error taxonomy for create/join, collision-checked
// room code generation, and player name disambiguation.
package room

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

// Status is the lifecycle state of a room.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Capacity is fixed: every room holds exactly two players.
const Capacity = 2

var (
	ErrNotFound = errors.New("Room not found")
	ErrFull     = errors.New("Room is full")
)

// NewCode generates a room identifier "<prefix>_<6 digits>", retrying until
// it does not collide with a live room. Callers must hold the registry lock
// so the exists check and the subsequent insert are atomic.
func NewCode(prefix string, exists func(string) bool) string {
	for {
		code := fmt.Sprintf("%s_%06d", prefix, 100000+rand.Intn(900000))
		if !exists(code) {
			return code
		}
	}
}

// UniqueName disambiguates a joining player's name against current members by
// appending a random numeric suffix. A collision is not an error.
func UniqueName(name string, members []string) string {
	taken := func(candidate string) bool {
		for _, m := range members {
			if m == candidate {
				return true
			}
		}
		return false
	}

	if !taken(name) {
		return name
	}
	for {
		candidate := fmt.Sprintf("%s_%d", name, 1+rand.Intn(99))
		if !taken(candidate) {
			return candidate
		}
	}
}

// BaseName strips the disambiguation suffix so aggregate stats attach to the
// account name the player joined with.
func BaseName(player string) string {
	if i := strings.LastIndex(player, "_"); i > 0 {
		suffix := player[i+1:]
		if suffix != "" && isDigits(suffix) {
			return player[:i]
		}
	}
	return player
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
