package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/slated-ai/slated/pkg/models"
)

// Client talks to an Ollama-compatible inference backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// StatusError is a non-success HTTP response from the backend. It carries the
// backend's status code and message so callers can tell backend failures apart
// from transport errors.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Message)
}

// New creates a Client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Timeouts are enforced per call through the request context.
		httpClient: &http.Client{},
	}
}

// Endpoint returns the backend base URL.
func (c *Client) Endpoint() string {
	return c.baseURL
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate runs a single non-streaming completion against the backend.
// The caller bounds the call through ctx.
func (c *Client) Generate(ctx context.Context, target, prompt string, options map[string]any) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:   target,
		Prompt:  prompt,
		Options: options,
	})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read backend response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return "", &StatusError{Code: resp.StatusCode, Message: msg}
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode backend response: %w", err)
	}
	return out.Response, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
		Size int64  `json:"size"`
	} `json:"models"`
}

// ListTargets returns the models the backend has available. It doubles as the
// liveness probe: an error means the backend is unreachable or unhealthy.
func (c *Client) ListTargets(ctx context.Context) ([]models.TargetInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create tags request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend probe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Message: "tags listing failed"}
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decode tags response: %w", err)
	}

	targets := make([]models.TargetInfo, 0, len(tags.Models))
	for _, m := range tags.Models {
		info := models.TargetInfo{Name: m.Name}
		if m.Size > 0 {
			info.SizeHint = humanize.Bytes(uint64(m.Size))
		}
		targets = append(targets, info)
	}
	return targets, nil
}

// Probe reports whether the backend answers within the given timeout.
func (c *Client) Probe(ctx context.Context, timeout time.Duration) ([]models.TargetInfo, bool) {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	targets, err := c.ListTargets(probeCtx)
	if err != nil {
		return nil, false
	}
	return targets, true
}
