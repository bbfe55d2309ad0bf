package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/smartquizarena/arena/internal/config"
	"github.com/smartquizarena/arena/internal/logging"
	"github.com/smartquizarena/arena/pkg/http/ws"
)

// WSUpgrader handles WebSocket upgrades (configure CORS/security as needed).
var WSUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: implement proper origin checking for production
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// MessageHandler dispatches one inbound message from a registered connection.
type MessageHandler func(ctx context.Context, connID uuid.UUID, msg ws.Message) error

// NewHTTPServer wires base routes (health, metrics), the two game WebSocket
// endpoints and the leaderboard API.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redisClient *redis.Client, hub *ws.Hub, duelHandler, battleHandler MessageHandler, leaderboardHandler http.HandlerFunc) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.IntoContext(r.Context(), logger)
		if err := pingDependencies(ctx, pool, redisClient); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	mux.HandleFunc("/ws/duel", wsEndpoint(hub, logger, duelHandler))
	mux.HandleFunc("/ws/battle", wsEndpoint(hub, logger, battleHandler))

	if leaderboardHandler != nil {
		mux.HandleFunc("GET /v1/leaderboards/{window}", leaderboardHandler)
	}

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: corsMiddleware(cfg.CORS, mux),
	}
}

// wsEndpoint upgrades the connection, registers it on the hub and pumps
// inbound messages through the game handler until the socket closes.
func wsEndpoint(hub *ws.Hub, logger zerolog.Logger, handle MessageHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sock, err := WSUpgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		conn := ws.NewConnection(sock, logger)
		connID := hub.Register(conn)
		defer hub.Unregister(connID)

		go conn.WritePump()
		conn.ReadPump(func(msg ws.Message) error {
			return handle(r.Context(), connID, msg)
		})
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redisClient *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}

func corsMiddleware(cfg config.CORS, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
