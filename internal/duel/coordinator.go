package duel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smartquizarena/arena/internal/metrics"
	"github.com/smartquizarena/arena/internal/question"
	"github.com/smartquizarena/arena/internal/room"
	httperrors "github.com/smartquizarena/arena/pkg/http/errors"
	"github.com/smartquizarena/arena/pkg/http/ws"
)

// Broadcaster is the slice of the hub the coordinator needs: room fan-out and
// direct replies, independent of the underlying transport.
type Broadcaster interface {
	Subscribe(roomID string, connID uuid.UUID)
	Publish(roomID string, msg ws.Message)
	Send(connID uuid.UUID, msg ws.Message) error
	DropRoom(roomID string)
}

// QuestionProvider supplies the question pack for an activating room.
type QuestionProvider interface {
	Fetch(ctx context.Context, req question.FetchRequest) ([]question.Question, error)
}

// StatsSink records per-player results after a game finishes.
type StatsSink interface {
	Record(ctx context.Context, player string, score int, won bool) error
}

// Options tune the coordinator; zero values fall back to sane defaults.
type Options struct {
	DefaultQuestionCount int
	FetchTimeout         time.Duration
}

// Service runs the quiz duel game flow on top of the registry.
type Service struct {
	registry  *Registry
	hub       Broadcaster
	questions QuestionProvider
	stats     StatsSink
	logger    zerolog.Logger
	opts      Options
}

func NewService(registry *Registry, hub Broadcaster, questions QuestionProvider, stats StatsSink, opts Options, logger zerolog.Logger) *Service {
	if opts.DefaultQuestionCount <= 0 {
		opts.DefaultQuestionCount = 5
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 5 * time.Second
	}
	return &Service{
		registry:  registry,
		hub:       hub,
		questions: questions,
		stats:     stats,
		logger:    logger.With().Str("component", "duel_service").Logger(),
		opts:      opts,
	}
}

// Registry exposes the room registry, mainly for the HTTP layer and tests.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Create opens a new duel room with the creator seated and replies with the
// room code.
func (s *Service) Create(_ context.Context, connID uuid.UUID, p ws.CreateDuelPayload) *Room {
	settings := Settings{
		Topic:        p.Topic,
		Difficulty:   p.Difficulty,
		NumQuestions: p.NumQuestions,
	}
	if settings.NumQuestions <= 0 {
		settings.NumQuestions = s.opts.DefaultQuestionCount
	}

	r := s.registry.Create(p.Player, connID, settings)
	s.hub.Subscribe(r.ID, connID)
	metrics.RoomsCreated.WithLabelValues("duel").Inc()
	s.logger.Info().Str("room_id", r.ID).Str("player", p.Player).Msg("duel room created")

	if err := s.hub.Send(connID, ws.NewMessage(ws.TypeCreated, ws.CreatedPayload{
		Room:    r.ID,
		Players: r.Members(),
	})); err != nil {
		s.logger.Warn().Err(err).Str("room_id", r.ID).Msg("created reply failed")
	}
	return r
}

// Join seats a player in a waiting room. Filling the second seat activates
// the room: the question pack is fetched and the first question goes out.
func (s *Service) Join(ctx context.Context, connID uuid.UUID, p ws.JoinPayload) error {
	r, name, err := s.registry.Join(p.Room, p.Player, connID)
	if err != nil {
		return err
	}

	s.hub.Subscribe(r.ID, connID)
	s.logger.Info().Str("room_id", r.ID).Str("player", name).Msg("player joined duel")

	if err := s.hub.Send(connID, ws.NewMessage(ws.TypeJoined, ws.JoinedPayload{
		Room:   r.ID,
		Player: name,
	})); err != nil {
		s.logger.Warn().Err(err).Str("room_id", r.ID).Msg("joined reply failed")
	}
	s.hub.Publish(r.ID, ws.NewMessage(ws.TypePlayerJoined, ws.PlayerJoinedPayload{
		Players: r.Members(),
		Player:  name,
	}))

	if len(r.Members()) == room.Capacity {
		s.activate(ctx, r)
	}
	return nil
}

// activate fetches the question pack and pushes the first question. A fetch
// failure is terminal for the room: both seats are taken, so it cannot be
// retried by another join.
func (s *Service) activate(ctx context.Context, r *Room) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	pack, err := s.questions.Fetch(fetchCtx, question.FetchRequest{
		Topic:      r.Settings.Topic,
		Difficulty: r.Settings.Difficulty,
		Count:      r.Settings.NumQuestions,
	})
	if err == nil && len(pack) == 0 {
		err = question.ErrEmptyPool
	}
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", r.ID).Msg("question fetch failed, closing room")
		s.hub.Publish(r.ID, ws.NewMessage(ws.TypeError, ws.ErrorPayload{
			Code:    httperrors.ErrCodeServiceUnavailable,
			Message: "Could not load questions for this room",
		}))
		r.mu.Lock()
		r.status = room.StatusFinished
		r.mu.Unlock()
		s.registry.Remove(r.ID)
		s.hub.DropRoom(r.ID)
		return
	}

	r.mu.Lock()
	r.status = room.StatusActive
	r.questions = pack
	r.currentIdx = 0
	first := questionMessage(pack[0], 1, len(pack))
	r.mu.Unlock()

	metrics.ActiveRooms.WithLabelValues("duel").Inc()
	s.logger.Info().Str("room_id", r.ID).Int("questions", len(pack)).Msg("duel activated")
	s.hub.Publish(r.ID, first)
}

// Answer applies one player's answer to the current question. Answers that
// arrive outside an active round, from non-members, or as duplicates for the
// same question are ignored without error.
func (s *Service) Answer(_ context.Context, p ws.AnswerPayload) {
	r, exists := s.registry.Get(p.Room)
	if !exists {
		return
	}

	r.mu.Lock()
	if r.status != room.StatusActive {
		r.mu.Unlock()
		return
	}
	if _, member := r.conns[p.Player]; !member {
		r.mu.Unlock()
		return
	}
	if r.answered[p.Player] {
		r.mu.Unlock()
		return
	}

	r.answered[p.Player] = true
	current := r.questions[r.currentIdx]
	if p.Selected == current.CorrectIdx {
		r.scores[p.Player] += PointsPerCorrect
	}

	if len(r.answered) < len(r.members) {
		r.mu.Unlock()
		return
	}

	// Everyone answered: advance or finish.
	r.answered = make(map[string]bool)
	r.currentIdx++
	if r.currentIdx < len(r.questions) {
		next := questionMessage(r.questions[r.currentIdx], r.currentIdx+1, len(r.questions))
		r.mu.Unlock()
		s.hub.Publish(p.Room, next)
		return
	}

	r.status = room.StatusFinished
	final := ws.NewMessage(ws.TypeFinished, ws.FinishedPayload{
		Scores:  copyScores(r.scores),
		Winners: winners(r.scores),
		Review:  review(r.questions),
	})
	results := finalResults(r.scores)
	r.mu.Unlock()

	metrics.ActiveRooms.WithLabelValues("duel").Dec()
	metrics.GamesFinished.WithLabelValues("duel").Inc()
	s.logger.Info().Str("room_id", p.Room).Msg("duel finished")
	s.hub.Publish(p.Room, final)
	s.registry.Remove(p.Room)
	s.hub.DropRoom(p.Room)
	go s.recordStats(results)
}

type playerResult struct {
	player string
	score  int
	won    bool
}

func finalResults(scores map[string]int) []playerResult {
	winSet := make(map[string]bool)
	for _, w := range winners(scores) {
		winSet[w] = true
	}
	results := make([]playerResult, 0, len(scores))
	for player, score := range scores {
		results = append(results, playerResult{player: player, score: score, won: winSet[player]})
	}
	return results
}

// recordStats persists per-player results. A failure for one player never
// blocks the other's record.
func (s *Service) recordStats(results []playerResult) {
	if s.stats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, res := range results {
		if err := s.stats.Record(ctx, res.player, res.score, res.won); err != nil {
			s.logger.Warn().Err(err).Str("player", res.player).Msg("stats record failed")
		}
	}
}

// winners returns every player tied at the maximum score.
func winners(scores map[string]int) []string {
	max := 0
	first := true
	for _, score := range scores {
		if first || score > max {
			max = score
			first = false
		}
	}
	var result []string
	for player, score := range scores {
		if score == max {
			result = append(result, player)
		}
	}
	return result
}

func questionMessage(q question.Question, order, total int) ws.Message {
	return ws.NewMessage(ws.TypeQuestion, ws.QuestionPayload{
		Text:    q.Text,
		Options: q.Options,
		Order:   order,
		Total:   total,
	})
}

func review(questions []question.Question) []ws.QuestionReview {
	out := make([]ws.QuestionReview, len(questions))
	for i, q := range questions {
		out[i] = ws.QuestionReview{
			Text:        q.Text,
			Correct:     q.CorrectIdx,
			Explanation: q.Explanation,
		}
	}
	return out
}

func copyScores(scores map[string]int) map[string]int {
	out := make(map[string]int, len(scores))
	for player, score := range scores {
		out[player] = score
	}
	return out
}
