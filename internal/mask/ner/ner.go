// Package ner provides a mask.Recognizer that calls the named-entity
// recognition sidecar over HTTP. If the sidecar is unreachable, it logs a
// warning and returns no spans so the regex layer can still run.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashdev101/mongo-rag/internal/mask"
)

// entityLabels maps sidecar entity labels to token labels. Labels not listed
// here are ignored: masking every entity class the model knows about would
// shred ordinary text.
var entityLabels = map[string]string{
	"PERSON":  "PERSON",
	"GPE":     "LOCATION",
	"LOC":     "LOCATION",
	"ADDRESS": "LOCATION",
	"ORG":     "ORG",
	"DATE":    "DATE",
}

// Client calls the NER sidecar's /classify endpoint.
type Client struct {
	url  string
	http *http.Client
}

// New creates a NER Client pointing at the given base URL
// (e.g. "http://hr-ner:8001").
func New(baseURL string) *Client {
	return &Client{
		url: baseURL + "/classify",
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Spans []nerSpan `json:"spans"`
}

type nerSpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Recognize sends text to the NER sidecar and returns entity spans of
// interest. It is safe for concurrent use.
func (c *Client) Recognize(text string) ([]mask.Span, error) {
	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("ner: marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ner: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("ner: sidecar unreachable, skipping entity layer", "err", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("ner: unexpected status", "code", resp.StatusCode)
		return nil, nil
	}

	var result classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ner: decode: %w", err)
	}

	spans := make([]mask.Span, 0, len(result.Spans))
	for _, s := range result.Spans {
		label, ok := entityLabels[s.Label]
		if !ok {
			continue
		}
		spans = append(spans, mask.Span{
			Start: s.Start,
			End:   s.End,
			Label: label,
			Score: 1.0,
		})
	}
	return spans, nil
}
