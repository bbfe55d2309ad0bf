package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/smartquizarena/arena/internal/battle"
	"github.com/smartquizarena/arena/internal/config"
	"github.com/smartquizarena/arena/internal/db/repository"
	"github.com/smartquizarena/arena/internal/duel"
	"github.com/smartquizarena/arena/internal/judge"
	"github.com/smartquizarena/arena/internal/logging"
	"github.com/smartquizarena/arena/internal/problem"
	"github.com/smartquizarena/arena/internal/question"
	"github.com/smartquizarena/arena/internal/server"
	"github.com/smartquizarena/arena/internal/stats"
	"github.com/smartquizarena/arena/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
}

// New bootstraps configs, logger, Postgres, Redis and the HTTP server with
// both game coordinators wired in.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	questionRepo := repository.NewQuestionRepository(pool)
	problemRepo := repository.NewProblemRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	questionCache := question.NewCache(redisClient, 0)
	questionSvc := question.NewService(questionRepo, questionCache)
	problemSvc := problem.NewService(problemRepo, cfg.Runtime.StarterProblemTitle, logger)

	judgeClient := judge.NewClient(judge.Config{
		BaseURL:      cfg.Judge.BaseURL,
		APIKey:       cfg.Judge.APIKey,
		APIHost:      cfg.Judge.APIHost,
		Timeout:      cfg.Judge.HTTPTimeout,
		PollInterval: cfg.Judge.PollInterval,
		MaxPolls:     cfg.Judge.MaxPolls,
	}, logger)

	statsSvc := stats.NewService(statsRepo, redisClient, logger)
	wsHub := ws.NewHub(logger)

	duelSvc := duel.NewService(duel.NewRegistry(), wsHub, questionSvc, statsSvc, duel.Options{
		DefaultQuestionCount: cfg.Runtime.DefaultQuestionCount,
		FetchTimeout:         cfg.Runtime.QuestionFetchTimeout,
	}, logger)
	duelHandler := duel.NewHandler(duelSvc, wsHub, logger)

	battleSvc := battle.NewService(battle.NewRegistry(), wsHub, problemSvc, judgeClient, statsSvc, logger)
	battleHandler := battle.NewHandler(battleSvc, wsHub, logger)

	statsHTTP := stats.NewHTTPHandler(statsSvc, cfg.Leaderboard.TopN, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, wsHub,
		duelHandler.HandleMessage, battleHandler.HandleMessage, statsHTTP.Leaderboard)

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		http:   apiServer,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
