package stats

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	httperrors "github.com/smartquizarena/arena/pkg/http/errors"
)

// HTTPHandler serves the read-only leaderboard endpoint.
type HTTPHandler struct {
	service      *Service
	defaultLimit int
	logger       zerolog.Logger
}

func NewHTTPHandler(service *Service, defaultLimit int, logger zerolog.Logger) *HTTPHandler {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &HTTPHandler{
		service:      service,
		defaultLimit: defaultLimit,
		logger:       logger.With().Str("component", "stats_http").Logger(),
	}
}

// Leaderboard handles GET /v1/leaderboards/{window}?limit=N.
func (h *HTTPHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	window := r.PathValue("window")

	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	entries, err := h.service.Top(r.Context(), window, limit)
	if errors.Is(err, ErrUnknownWindow) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownWindow, "Unknown leaderboard window: "+window)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("window", window).Msg("leaderboard query failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeLeaderboardFetchFailed, "Leaderboard temporarily unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"window":  window,
		"entries": entries,
	})
}
