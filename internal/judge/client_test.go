package judge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// sandboxStub fakes the Judge0 submit/poll protocol.
type sandboxStub struct {
	t          *testing.T
	result     map[string]any
	pollsUntil int // polls that report "processing" before the result
	polls      int
	submits    int
}

func (s *sandboxStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /submissions", func(w http.ResponseWriter, r *http.Request) {
		s.submits++
		assert.Equal(s.t, "true", r.URL.Query().Get("base64_encoded"))

		var payload map[string]any
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&payload))
		if src, ok := payload["source_code"].(string); ok {
			_, err := base64.StdEncoding.DecodeString(src)
			assert.NoError(s.t, err, "source must be transport-encoded")
		}

		json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	})
	mux.HandleFunc("GET /submissions/tok-1", func(w http.ResponseWriter, r *http.Request) {
		s.polls++
		if s.polls <= s.pollsUntil {
			json.NewEncoder(w).Encode(map[string]any{
				"status": map[string]any{"id": StatusProcessing, "description": "Processing"},
			})
			return
		}
		json.NewEncoder(w).Encode(s.result)
	})
	return mux
}

func testClient(baseURL string, maxPolls int) *Client {
	return NewClient(Config{
		BaseURL:      baseURL,
		PollInterval: time.Millisecond,
		MaxPolls:     maxPolls,
	}, zerolog.Nop())
}

func TestRunAcceptedByLocalComparison(t *testing.T) {
	stub := &sandboxStub{
		t:          t,
		pollsUntil: 2,
		result: map[string]any{
			"status": map[string]any{"id": StatusAccepted, "description": "Accepted"},
			"stdout": b64("Hello, World!\n"),
			"time":   "0.02",
			"memory": 2048,
		},
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	v := testClient(srv.URL, 10).Run(context.Background(), RunRequest{
		SourceCode:     "print(greet())",
		LanguageID:     71,
		Stdin:          "World",
		ExpectedOutput: "Hello, World!",
	})

	assert.True(t, v.Accepted())
	assert.Equal(t, "Hello, World!", v.Stdout)
	assert.Equal(t, 0.02, v.TimeSec)
	assert.Equal(t, 2048, v.MemoryKB)
	assert.Equal(t, 3, stub.polls, "should keep polling while processing")
}

func TestRunOverridesSandboxVerdictOnMismatch(t *testing.T) {
	stub := &sandboxStub{
		t: t,
		result: map[string]any{
			"status": map[string]any{"id": StatusAccepted, "description": "Accepted"},
			"stdout": b64("Goodbye"),
		},
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	v := testClient(srv.URL, 10).Run(context.Background(), RunRequest{ExpectedOutput: "Hello"})

	assert.False(t, v.Accepted())
	assert.Equal(t, StatusWrongAnswer, v.StatusID)
	assert.Equal(t, "Wrong Answer", v.StatusDescription)
}

func TestRunFoldsCompileOutputIntoStderr(t *testing.T) {
	stub := &sandboxStub{
		t: t,
		result: map[string]any{
			"status":         map[string]any{"id": 6, "description": "Compilation Error"},
			"stderr":         b64("boom"),
			"compile_output": b64("line 1: syntax error"),
		},
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	v := testClient(srv.URL, 10).Run(context.Background(), RunRequest{ExpectedOutput: "x"})

	assert.False(t, v.Accepted())
	assert.Equal(t, "boom\nline 1: syntax error", v.Stderr)
	assert.Zero(t, v.TimeSec, "missing time reports as zero runtime")
}

func TestRunPollCeilingYieldsSyntheticVerdict(t *testing.T) {
	stub := &sandboxStub{
		t:          t,
		pollsUntil: 1000, // never leaves the running set
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	v := testClient(srv.URL, 3).Run(context.Background(), RunRequest{ExpectedOutput: "x"})

	assert.Equal(t, StatusInternalError, v.StatusID)
	assert.Equal(t, 3, stub.polls)
}

func TestRunTransportFailureYieldsSyntheticVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	v := testClient(srv.URL, 3).Run(context.Background(), RunRequest{ExpectedOutput: "x"})

	assert.Equal(t, StatusInternalError, v.StatusID)
	assert.NotEmpty(t, v.Stderr)
}

func TestRunMissingTokenYieldsSyntheticVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	v := testClient(srv.URL, 3).Run(context.Background(), RunRequest{ExpectedOutput: "x"})

	assert.Equal(t, StatusInternalError, v.StatusID)
}
