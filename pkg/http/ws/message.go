package ws

import "encoding/json"

// MessageType constants for the arena WebSocket protocol.
const (
	// Client -> Server (both coordinators)
	TypeCreate = "create"
	TypeJoin   = "join"
	// Client -> Server (quiz duel)
	TypeAnswer = "answer"
	// Client -> Server (coding battle)
	TypeSubmit = "submit"

	// Server -> Client (both coordinators)
	TypeCreated      = "created"
	TypeJoined       = "joined"
	TypePlayerJoined = "player_joined"
	TypeError        = "error"

	// Server -> Client (quiz duel)
	TypeQuestion = "question"
	TypeFinished = "finished"

	// Server -> Client (coding battle)
	TypeBattleStarted      = "battle_started"
	TypeOpponentRunning    = "opponent_running"
	TypeSubmissionResult   = "submission_result"
	TypeOpponentSubmission = "opponent_submission"
	TypeGameOver           = "game_over"
)

// Message wraps all WebSocket payloads with a type tag.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewMessage marshals a payload into a typed envelope.
// Marshal failures are impossible for the payload structs below, so they are
// swallowed the same way handlers do for ad-hoc payloads.
func NewMessage(msgType string, payload any) Message {
	msg := Message{Type: msgType}
	msg.Payload, _ = json.Marshal(payload)
	return msg
}

// Client payloads (incoming)

type CreateDuelPayload struct {
	Player       string `json:"player"`
	Topic        string `json:"topic,omitempty"`
	Difficulty   string `json:"difficulty,omitempty"`
	NumQuestions int    `json:"num_questions,omitempty"`
}

type CreateBattlePayload struct {
	Player     string `json:"player"`
	Difficulty string `json:"difficulty,omitempty"`
}

type JoinPayload struct {
	Room   string `json:"room"`
	Player string `json:"player"`
}

type AnswerPayload struct {
	Room     string `json:"room"`
	Player   string `json:"player"`
	Selected int    `json:"selected"`
}

type SubmitPayload struct {
	Room       string `json:"room"`
	Player     string `json:"player"`
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
}

// Server payloads (outgoing)

type CreatedPayload struct {
	Room    string   `json:"room"`
	Players []string `json:"players"`
	// Problem is present for coding battles only.
	Problem any `json:"problem,omitempty"`
}

type JoinedPayload struct {
	Room   string `json:"room"`
	Player string `json:"player"`
}

type PlayerJoinedPayload struct {
	Players []string `json:"players"`
	Player  string   `json:"player"`
}

type QuestionPayload struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Order   int      `json:"order"`
	Total   int      `json:"total"`
}

type FinishedPayload struct {
	Scores  map[string]int   `json:"scores"`
	Winners []string         `json:"winners"`
	Review  []QuestionReview `json:"review"`
}

// QuestionReview is the per-question recap sent with the final duel results.
type QuestionReview struct {
	Text        string `json:"text"`
	Correct     int    `json:"correct"`
	Explanation string `json:"explanation"`
}

type BattleStartedPayload struct {
	Problem any `json:"problem"`
}

type OpponentRunningPayload struct {
	Player string `json:"player"`
}

type SubmissionResultPayload struct {
	Passed  int `json:"passed"`
	Total   int `json:"total"`
	Results any `json:"results"`
}

type OpponentSubmissionPayload struct {
	Player string `json:"player"`
	Passed int    `json:"passed"`
	Total  int    `json:"total"`
	Code   string `json:"code"`
}

type GameOverPayload struct {
	Winner      string `json:"winner"`
	Reason      string `json:"reason"`
	Submissions any    `json:"submissions"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
