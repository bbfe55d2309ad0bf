package question

import "errors"

// Filter wildcard: "any" disables topic or difficulty filtering.
const FilterAny = "any"

// ErrEmptyPool means no questions matched the requested filters.
var ErrEmptyPool = errors.New("no questions available for the requested filters")

// Difficulty constants for readability.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Question is a snapshot served to a duel room. The correct option index and
// explanation never leave the server until the round is resolved.
type Question struct {
	ID          string   `json:"id"`
	Text        string   `json:"question_text"`
	Options     []string `json:"options"`
	CorrectIdx  int      `json:"correct_option"`
	Explanation string   `json:"explanation"`
}

// FetchRequest guides question selection for a duel.
type FetchRequest struct {
	Topic      string
	Difficulty string
	Count      int
}
