package judge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// Config holds connection details for the sandbox service.
type Config struct {
	BaseURL      string
	APIKey       string
	APIHost      string
	Timeout      time.Duration
	PollInterval time.Duration
	MaxPolls     int
}

// Client submits code to a Judge0-compatible sandbox and polls for the
// verdict. One Run call covers exactly one test case. Run never returns an
// error: timeouts and transport failures become synthetic internal-error
// verdicts so a flaky sandbox can only fail a test case, never a room.
type Client struct {
	httpClient   *http.Client
	config       Config
	logger       zerolog.Logger
	submitURL    string
	pollInterval time.Duration
	maxPolls     int
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	maxPolls := cfg.MaxPolls
	if maxPolls <= 0 {
		maxPolls = 10
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		config:       cfg,
		logger:       logger.With().Str("component", "judge_client").Logger(),
		submitURL:    base + "/submissions",
		pollInterval: pollInterval,
		maxPolls:     maxPolls,
	}
}

type submitPayload struct {
	LanguageID int    `json:"language_id"`
	SourceCode string `json:"source_code"`
	Stdin      string `json:"stdin"`
}

type statusBody struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type submissionBody struct {
	Token         string     `json:"token"`
	Status        statusBody `json:"status"`
	Stdout        *string    `json:"stdout"`
	Stderr        *string    `json:"stderr"`
	CompileOutput *string    `json:"compile_output"`
	Time          *string    `json:"time"`
	Memory        *int       `json:"memory"`
}

// Run executes one test case and returns the normalized verdict.
func (c *Client) Run(ctx context.Context, req RunRequest) Verdict {
	token, err := c.submit(ctx, req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("sandbox submit failed")
		return internalError(err.Error())
	}

	for i := 0; i < c.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return internalError("evaluation canceled: " + ctx.Err().Error())
		case <-time.After(c.pollInterval):
		}

		body, err := c.poll(ctx, token)
		if err != nil {
			c.logger.Warn().Err(err).Str("token", token).Msg("sandbox poll failed")
			return internalError(err.Error())
		}

		if body.Status.ID == StatusInQueue || body.Status.ID == StatusProcessing {
			continue
		}
		return c.normalize(body, req.ExpectedOutput)
	}

	c.logger.Warn().Str("token", token).Int("polls", c.maxPolls).Msg("sandbox verdict timed out")
	return internalError("sandbox timed out")
}

// submit posts the encoded payload and returns the submission token. The POST
// is retried with capped backoff; polling is never retried since the token
// already exists server-side.
func (c *Client) submit(ctx context.Context, req RunRequest) (string, error) {
	payload := submitPayload{
		LanguageID: req.LanguageID,
		SourceCode: base64.StdEncoding.EncodeToString([]byte(req.SourceCode)),
		Stdin:      base64.StdEncoding.EncodeToString([]byte(req.Stdin)),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var token string
	backoff := retry.WithMaxRetries(2, retry.NewExponential(250*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.submitURL+"?base64_encoded=true&fields=*", bytes.NewReader(body))
		if err != nil {
			return err
		}
		c.setHeaders(httpReq)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("sandbox submit status %d", resp.StatusCode))
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("sandbox submit status %d", resp.StatusCode)
		}

		var submitted submissionBody
		if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
			return fmt.Errorf("decode submit response: %w", err)
		}
		if submitted.Token == "" {
			return fmt.Errorf("no token received from sandbox")
		}
		token = submitted.Token
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func (c *Client) poll(ctx context.Context, token string) (*submissionBody, error) {
	url := fmt.Sprintf("%s/%s?base64_encoded=true&fields=*", c.submitURL, token)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sandbox poll status %d", resp.StatusCode)
	}

	var body submissionBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode poll response: %w", err)
	}
	return &body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.config.APIKey)
	}
	if c.config.APIHost != "" {
		req.Header.Set("X-RapidAPI-Host", c.config.APIHost)
	}
}

// normalize decodes the transport-encoded fields and applies the local
// comparison: a sandbox "Accepted" only means the program ran; the trimmed
// stdout must equal the trimmed expected output for the case to pass.
func (c *Client) normalize(body *submissionBody, expectedOutput string) Verdict {
	stdout := decodeField(body.Stdout)
	stderr := decodeField(body.Stderr)
	if compile := decodeField(body.CompileOutput); compile != "" {
		if stderr != "" {
			stderr += "\n" + compile
		} else {
			stderr = compile
		}
	}

	statusID := body.Status.ID
	statusDesc := body.Status.Description
	if statusID == StatusAccepted {
		if stdout == strings.TrimSpace(expectedOutput) {
			statusDesc = "Accepted"
		} else {
			statusID = StatusWrongAnswer
			statusDesc = "Wrong Answer"
		}
	}

	verdict := Verdict{
		StatusID:          statusID,
		StatusDescription: statusDesc,
		Stdout:            stdout,
		Stderr:            stderr,
	}
	if body.Time != nil {
		if t, err := strconv.ParseFloat(*body.Time, 64); err == nil {
			verdict.TimeSec = t
		}
	}
	if body.Memory != nil {
		verdict.MemoryKB = *body.Memory
	}
	return verdict
}

func decodeField(field *string) string {
	if field == nil || *field == "" {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(*field)
	if err != nil {
		return strings.TrimSpace(*field)
	}
	return strings.TrimSpace(string(decoded))
}

func internalError(detail string) Verdict {
	return Verdict{
		StatusID:          StatusInternalError,
		StatusDescription: "Internal Error",
		Stderr:            detail,
	}
}
