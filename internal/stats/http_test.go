package stats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLeaderboardServer() *httptest.Server {
	svc := NewService(&stubStore{}, nil, zerolog.Nop())
	handler := NewHTTPHandler(svc, 0, zerolog.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/leaderboards/{window}", handler.Leaderboard)
	return httptest.NewServer(mux)
}

func TestLeaderboardEndpoint(t *testing.T) {
	srv := newLeaderboardServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/leaderboards/alltime")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Window  string  `json:"window"`
		Entries []Entry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "alltime", body.Window)
}

func TestLeaderboardUnknownWindow(t *testing.T) {
	srv := newLeaderboardServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/leaderboards/weekly")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLeaderboardRejectsBadLimit(t *testing.T) {
	srv := newLeaderboardServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/leaderboards/daily?limit=0")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
