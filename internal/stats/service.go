// Package stats attributes game results to players and serves leaderboards.
// Postgres holds the durable aggregates; Redis sorted sets hold the ranked
// views queried by the leaderboard endpoint.
package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/smartquizarena/arena/internal/db/repository"
	"github.com/smartquizarena/arena/internal/room"
)

// Leaderboard windows.
const (
	WindowDaily   = "daily"
	WindowAllTime = "alltime"
)

const dailyTTL = 48 * time.Hour

// ErrUnknownWindow rejects windows outside the supported set.
var ErrUnknownWindow = errors.New("unknown leaderboard window")

// Entry is one leaderboard row.
type Entry struct {
	Player string `json:"player"`
	Score  int    `json:"score"`
}

type resultStore interface {
	RecordResult(ctx context.Context, username string, score int, won bool) error
	Get(ctx context.Context, username string) (repository.PlayerStats, error)
}

// leaderboards is the slice of the Redis client the sink uses.
type leaderboards interface {
	ZIncrBy(ctx context.Context, key string, increment float64, member string) *redis.FloatCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
}

// Service is the stats sink shared by both coordinators.
type Service struct {
	store  resultStore
	boards leaderboards
	logger zerolog.Logger
	now    func() time.Time
}

// NewService constructs the sink. client may be nil; leaderboards are then
// disabled and only the durable aggregates are written.
func NewService(store resultStore, client *redis.Client, logger zerolog.Logger) *Service {
	s := &Service{
		store:  store,
		logger: logger.With().Str("component", "stats_service").Logger(),
		now:    time.Now,
	}
	if client != nil {
		s.boards = client
	}
	return s
}

// Record attributes one game result. The disambiguation suffix is stripped so
// "alice_42" and "alice" land on the same aggregate row. A leaderboard bump
// failure is logged but never fails the record.
func (s *Service) Record(ctx context.Context, player string, score int, won bool) error {
	name := room.BaseName(player)
	if err := s.store.RecordResult(ctx, name, score, won); err != nil {
		return err
	}

	if s.boards == nil {
		return nil
	}
	// Each window fails independently, same as the per-player isolation in
	// the coordinators: a broken daily key must not starve the all-time set.
	for _, key := range []string{s.dailyKey(), allTimeKey()} {
		if err := s.boards.ZIncrBy(ctx, key, float64(score), name).Err(); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Str("player", name).Msg("leaderboard bump failed")
			continue
		}
	}
	// Daily sets expire on their own; a missed expire only costs memory.
	if err := s.boards.Expire(ctx, s.dailyKey(), dailyTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("leaderboard expire failed")
	}
	return nil
}

// Player returns a player's durable aggregates.
func (s *Service) Player(ctx context.Context, player string) (repository.PlayerStats, error) {
	return s.store.Get(ctx, room.BaseName(player))
}

// Top returns the highest-scoring players in a window.
func (s *Service) Top(ctx context.Context, window string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	var key string
	switch window {
	case WindowDaily:
		key = s.dailyKey()
	case WindowAllTime:
		key = allTimeKey()
	default:
		return nil, ErrUnknownWindow
	}

	if s.boards == nil {
		return []Entry{}, nil
	}
	rows, err := s.boards.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard query %s: %w", key, err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		player, _ := row.Member.(string)
		entries = append(entries, Entry{Player: player, Score: int(row.Score)})
	}
	return entries, nil
}

func (s *Service) dailyKey() string {
	return "leaderboard:daily:" + s.now().UTC().Format("2006-01-02")
}

func allTimeKey() string {
	return "leaderboard:alltime"
}
