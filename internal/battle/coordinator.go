package battle

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smartquizarena/arena/internal/judge"
	"github.com/smartquizarena/arena/internal/metrics"
	"github.com/smartquizarena/arena/internal/problem"
	"github.com/smartquizarena/arena/internal/room"
	"github.com/smartquizarena/arena/pkg/http/ws"
)

// Broadcaster is the slice of the hub the coordinator needs.
type Broadcaster interface {
	Subscribe(roomID string, connID uuid.UUID)
	Publish(roomID string, msg ws.Message)
	PublishExcept(roomID string, except uuid.UUID, msg ws.Message)
	Send(connID uuid.UUID, msg ws.Message) error
	DropRoom(roomID string)
}

// ProblemPicker selects the problem a new room is built around.
type ProblemPicker interface {
	Pick(ctx context.Context, difficulty string) (*problem.Problem, error)
}

// Evaluator runs one test case in the sandbox. It never fails outright:
// infrastructure trouble surfaces as an internal-error verdict.
type Evaluator interface {
	Run(ctx context.Context, req judge.RunRequest) judge.Verdict
}

// StatsSink records per-player results after a battle resolves.
type StatsSink interface {
	Record(ctx context.Context, player string, score int, won bool) error
}

// Winner reasons reported in the game_over payload.
const (
	ReasonMoreTestsPassed = "More test cases passed"
	ReasonBetterRuntime   = "Better runtime"
	ReasonEarlierSubmit   = "Earlier submission"
	ReasonJoinOrder       = "Exact tie, earlier joiner wins"
)

// Service runs the coding battle game flow on top of the registry.
type Service struct {
	registry *Registry
	hub      Broadcaster
	problems ProblemPicker
	judge    Evaluator
	stats    StatsSink
	logger   zerolog.Logger
}

func NewService(registry *Registry, hub Broadcaster, problems ProblemPicker, evaluator Evaluator, stats StatsSink, logger zerolog.Logger) *Service {
	return &Service{
		registry: registry,
		hub:      hub,
		problems: problems,
		judge:    evaluator,
		stats:    stats,
		logger:   logger.With().Str("component", "battle_service").Logger(),
	}
}

// Registry exposes the room registry, mainly for the HTTP layer and tests.
func (s *Service) Registry() *Registry {
	return s.registry
}

// problemView is the client-facing problem shape.
type problemView struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	StarterCode string             `json:"starter_code"`
	Difficulty  string             `json:"difficulty"`
	TestCases   []problem.TestCase `json:"test_cases"`
}

func viewOf(p *problem.Problem) problemView {
	return problemView{
		Title:       p.Title,
		Description: p.Description,
		StarterCode: p.StarterCode,
		Difficulty:  p.Difficulty,
		TestCases:   p.TestCases,
	}
}

// Create picks a problem and opens a room around it, replying to the creator
// with the code and the full problem.
func (s *Service) Create(ctx context.Context, connID uuid.UUID, p ws.CreateBattlePayload) (*Room, error) {
	prob, err := s.problems.Pick(ctx, p.Difficulty)
	if err != nil {
		return nil, err
	}

	r := s.registry.Create(p.Player, connID, prob)
	s.hub.Subscribe(r.ID, connID)
	metrics.RoomsCreated.WithLabelValues("battle").Inc()
	s.logger.Info().Str("room_id", r.ID).Str("player", p.Player).Str("problem", prob.Title).Msg("battle room created")

	if err := s.hub.Send(connID, ws.NewMessage(ws.TypeCreated, ws.CreatedPayload{
		Room:    r.ID,
		Players: r.Members(),
		Problem: viewOf(prob),
	})); err != nil {
		s.logger.Warn().Err(err).Str("room_id", r.ID).Msg("created reply failed")
	}
	return r, nil
}

// Join seats a player; the second seat starts the battle immediately.
func (s *Service) Join(_ context.Context, connID uuid.UUID, p ws.JoinPayload) error {
	r, name, err := s.registry.Join(p.Room, p.Player, connID)
	if err != nil {
		return err
	}

	s.hub.Subscribe(r.ID, connID)
	s.logger.Info().Str("room_id", r.ID).Str("player", name).Msg("player joined battle")

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

	r.mu.Lock()
	start := len(r.members) == room.Capacity
	if start {
		r.status = room.StatusActive
	}
	r.mu.Unlock()

	if start {
		metrics.ActiveRooms.WithLabelValues("battle").Inc()
		s.logger.Info().Str("room_id", r.ID).Msg("battle started")
		s.hub.Publish(r.ID, ws.NewMessage(ws.TypeBattleStarted, ws.BattleStartedPayload{
			Problem: viewOf(r.Problem),
		}))
	}
	return nil
}

// Submit evaluates one player's code against every test case. The player's
// submission slot is reserved under the room lock before the first sandbox
// call, so duplicate submits and submits outside an active battle are no-ops.
func (s *Service) Submit(ctx context.Context, connID uuid.UUID, p ws.SubmitPayload) {
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
	if _, dup := r.submissions[p.Player]; dup {
		r.mu.Unlock()
		return
	}
	sub := &Submission{
		Player:     p.Player,
		Code:       p.SourceCode,
		LanguageID: p.LanguageID,
		Total:      len(r.Problem.TestCases),
	}
	r.submissions[p.Player] = sub
	cases := r.Problem.TestCases
	r.mu.Unlock()

	s.hub.PublishExcept(p.Room, connID, ws.NewMessage(ws.TypeOpponentRunning, ws.OpponentRunningPayload{
		Player: p.Player,
	}))

	passed := 0
	runtime := 0.0
	results := make([]CaseResult, 0, len(cases))
	for _, tc := range cases {
		verdict := s.judge.Run(ctx, judge.RunRequest{
			SourceCode:     p.SourceCode,
			LanguageID:     p.LanguageID,
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		})
		if verdict.Accepted() {
			passed++
			metrics.Evaluations.WithLabelValues("accepted").Inc()
		} else {
			metrics.Evaluations.WithLabelValues("rejected").Inc()
		}
		runtime += verdict.TimeSec
		results = append(results, CaseResult{
			Input:    tc.Input,
			Expected: tc.ExpectedOutput,
			Stdout:   verdict.Stdout,
			Stderr:   verdict.Stderr,
			Status:   verdict.StatusDescription,
			Passed:   verdict.Accepted(),
			TimeSec:  verdict.TimeSec,
		})
	}

	r.mu.Lock()
	sub.Passed = passed
	sub.Results = results
	sub.RuntimeSec = runtime
	sub.SubmittedAt = time.Now()
	sub.done = true
	resolved := r.status == room.StatusActive && allDone(r)
	if resolved {
		r.status = room.StatusFinished
	}
	r.mu.Unlock()

	s.logger.Info().Str("room_id", p.Room).Str("player", p.Player).
		Int("passed", passed).Int("total", sub.Total).Msg("submission evaluated")

	if err := s.hub.Send(connID, ws.NewMessage(ws.TypeSubmissionResult, ws.SubmissionResultPayload{
		Passed:  passed,
		Total:   sub.Total,
		Results: results,
	})); err != nil {
		s.logger.Warn().Err(err).Str("room_id", p.Room).Msg("submission result reply failed")
	}
	// The peer sees the outcome and the code, never stdout or test details.
	s.hub.PublishExcept(p.Room, connID, ws.NewMessage(ws.TypeOpponentSubmission, ws.OpponentSubmissionPayload{
		Player: p.Player,
		Passed: passed,
		Total:  sub.Total,
		Code:   p.SourceCode,
	}))

	if resolved {
		s.finish(r)
	}
}

func allDone(r *Room) bool {
	if len(r.submissions) < len(r.members) {
		return false
	}
	for _, sub := range r.submissions {
		if !sub.done {
			return false
		}
	}
	return true
}

// submissionSummary is the per-player recap in the game_over payload.
type submissionSummary struct {
	Player  string  `json:"player"`
	Passed  int     `json:"passed"`
	Total   int     `json:"total"`
	Runtime float64 `json:"runtime"`
	Code    string  `json:"code"`
}

func (s *Service) finish(r *Room) {
	r.mu.Lock()
	winner, reason := decideWinner(r.members, r.submissions)
	summaries := make([]submissionSummary, 0, len(r.members))
	for _, member := range r.members {
		sub := r.submissions[member]
		summaries = append(summaries, submissionSummary{
			Player:  member,
			Passed:  sub.Passed,
			Total:   sub.Total,
			Runtime: sub.RuntimeSec,
			Code:    sub.Code,
		})
	}
	members := append([]string(nil), r.members...)
	r.mu.Unlock()

	metrics.ActiveRooms.WithLabelValues("battle").Dec()
	metrics.GamesFinished.WithLabelValues("battle").Inc()
	s.logger.Info().Str("room_id", r.ID).Str("winner", winner).Str("reason", reason).Msg("battle finished")

	s.hub.Publish(r.ID, ws.NewMessage(ws.TypeGameOver, ws.GameOverPayload{
		Winner:      winner,
		Reason:      reason,
		Submissions: summaries,
	}))
	s.registry.Remove(r.ID)
	s.hub.DropRoom(r.ID)
	go s.recordStats(members, winner)
}

// decideWinner applies the tiebreak chain: passed count desc, total runtime
// asc, submission time asc. An exact triple tie goes to the earlier joiner.
func decideWinner(members []string, submissions map[string]*Submission) (string, string) {
	ranked := append([]string(nil), members...)
	joinOrder := make(map[string]int, len(members))
	for i, m := range members {
		joinOrder[m] = i
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := submissions[ranked[i]], submissions[ranked[j]]
		if a.Passed != b.Passed {
			return a.Passed > b.Passed
		}
		if a.RuntimeSec != b.RuntimeSec {
			return a.RuntimeSec < b.RuntimeSec
		}
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return joinOrder[ranked[i]] < joinOrder[ranked[j]]
	})

	winner := ranked[0]
	var runnerUp *Submission
	if len(ranked) > 1 {
		runnerUp = submissions[ranked[1]]
	}
	win := submissions[winner]

	switch {
	case runnerUp == nil || win.Passed > runnerUp.Passed:
		return winner, ReasonMoreTestsPassed
	case win.RuntimeSec < runnerUp.RuntimeSec:
		return winner, ReasonBetterRuntime
	case win.SubmittedAt.Before(runnerUp.SubmittedAt):
		return winner, ReasonEarlierSubmit
	default:
		return winner, ReasonJoinOrder
	}
}

// recordStats awards stat points once the battle resolves. A failure for one
// player never blocks the other's record.
func (s *Service) recordStats(members []string, winner string) {
	if s.stats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, member := range members {
		won := member == winner
		points := LoserPoints
		if won {
			points = WinnerPoints
		}
		if err := s.stats.Record(ctx, member, points, won); err != nil {
			s.logger.Warn().Err(err).Str("player", member).Msg("stats record failed")
		}
	}
}
