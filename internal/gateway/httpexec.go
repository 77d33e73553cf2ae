package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashdev101/mongo-rag/internal/mask"
)

// HTTPExecutor sends masked queries to the HR agent service over HTTP.
// Any record data in the agent's reply is masked through the session before
// it leaves this layer, keeping the rest of the process token-only.
type HTTPExecutor struct {
	url  string
	http *http.Client
}

// NewHTTPExecutor creates an executor for the agent at baseURL
// (e.g. http://hr-agent:9000).
func NewHTTPExecutor(baseURL string) *HTTPExecutor {
	return &HTTPExecutor{
		url: strings.TrimRight(baseURL, "/") + "/v1/agent/query",
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type agentRequest struct {
	Query  string `json:"query"`
	Stream bool   `json:"stream,omitempty"`
}

type agentResponse struct {
	Answer     string           `json:"answer"`
	Results    []map[string]any `json:"results"`
	Operations []string         `json:"agg_pipeline"`
}

// Execute implements Executor.
func (e *HTTPExecutor) Execute(ctx context.Context, query string, s *mask.Session) (*Executed, error) {
	payload, err := json.Marshal(agentRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("encode agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Info("agent request", "url", e.url, "bytes", len(payload))
	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("agent status %d: %s", resp.StatusCode, string(b))
	}

	var ar agentResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("decode agent response: %w", err)
	}

	// The agent may echo raw record fields; mask them into this session so
	// callers only ever see tokens until final restoration.
	rows := make([]map[string]any, 0, len(ar.Results))
	for _, row := range ar.Results {
		masked, ok := s.MaskRecords(row).(map[string]any)
		if !ok {
			masked = row
		}
		rows = append(rows, masked)
	}

	return &Executed{Answer: ar.Answer, Rows: rows, Operations: ar.Operations}, nil
}

// ExecuteStream implements StreamExecutor. The response body is returned as
// is; restoration happens in the gateway. No overall timeout is set because
// streamed answers can run long.
func (e *HTTPExecutor) ExecuteStream(ctx context.Context, query string, s *mask.Session) (io.ReadCloser, error) {
	payload, err := json.Marshal(agentRequest{Query: query, Stream: true})
	if err != nil {
		return nil, fmt.Errorf("encode agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	slog.Info("agent stream request", "url", e.url, "bytes", len(payload))
	streamClient := &http.Client{Transport: e.http.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("agent status %d: %s", resp.StatusCode, string(b))
	}
	return resp.Body, nil
}
