package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type statsQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StatsRepository persists per-player aggregate results.
type StatsRepository struct {
	db statsQuerier
}

// NewStatsRepository constructs a stats repository over a pgx pool.
func NewStatsRepository(db statsQuerier) *StatsRepository {
	return &StatsRepository{db: db}
}

// PlayerStats is the aggregate row for one player.
type PlayerStats struct {
	Username    string
	GamesPlayed int
	TotalScore  int
	Wins        int
}

// RecordResult upserts one game result into the player's aggregates.
func (r *StatsRepository) RecordResult(ctx context.Context, username string, score int, won bool) error {
	const q = `
		INSERT INTO player_stats (username, games_played, total_score, wins)
		VALUES ($1, 1, $2, CASE WHEN $3 THEN 1 ELSE 0 END)
		ON CONFLICT (username) DO UPDATE SET
			games_played = player_stats.games_played + 1,
			total_score  = player_stats.total_score + EXCLUDED.total_score,
			wins         = player_stats.wins + EXCLUDED.wins,
			updated_at   = now()`

	if _, err := r.db.Exec(ctx, q, username, score, won); err != nil {
		return fmt.Errorf("record result for %s: %w", username, err)
	}
	return nil
}

// Get returns a player's aggregates, zero-valued when the player is unknown.
func (r *StatsRepository) Get(ctx context.Context, username string) (PlayerStats, error) {
	const q = `
		SELECT username, games_played, total_score, wins
		FROM player_stats
		WHERE username = $1`

	stats := PlayerStats{Username: username}
	err := r.db.QueryRow(ctx, q, username).Scan(&stats.Username, &stats.GamesPlayed, &stats.TotalScore, &stats.Wins)
	if err == pgx.ErrNoRows {
		return PlayerStats{Username: username}, nil
	}
	if err != nil {
		return PlayerStats{}, fmt.Errorf("get stats for %s: %w", username, err)
	}
	return stats, nil
}
