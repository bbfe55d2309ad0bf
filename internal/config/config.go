package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"arena"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres    Postgres
	Redis       Redis
	Judge       Judge
	Runtime     Runtime
	Leaderboard Leaderboard
	CORS        CORS
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds cache configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Judge configures the remote code-execution sandbox client.
type Judge struct {
	BaseURL      string        `env:"JUDGE_BASE_URL" envDefault:"https://judge0-ce.p.rapidapi.com"`
	APIKey       string        `env:"JUDGE_API_KEY"`
	APIHost      string        `env:"JUDGE_API_HOST" envDefault:"judge0-ce.p.rapidapi.com"`
	HTTPTimeout  time.Duration `env:"JUDGE_HTTP_TIMEOUT" envDefault:"10s"`
	PollInterval time.Duration `env:"JUDGE_POLL_INTERVAL" envDefault:"1s"`
	MaxPolls     int           `env:"JUDGE_MAX_POLLS" envDefault:"10"`
}

// Runtime groups gameplay defaults.
type Runtime struct {
	QuestionFetchTimeout time.Duration `env:"QUESTION_FETCH_TIMEOUT_SECONDS" envDefault:"4s"`
	DefaultQuestionCount int           `env:"DEFAULT_QUESTION_COUNT" envDefault:"5"`
	StarterProblemTitle  string        `env:"STARTER_PROBLEM_TITLE" envDefault:"Hello World"`
}

// Leaderboard governs aggregate stats exposure.
type Leaderboard struct {
	TopN int `env:"LEADERBOARD_TOP" envDefault:"50"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
