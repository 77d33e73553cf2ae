// Package llm provides a minimal client for an OpenAI-compatible
// chat-completion endpoint (e.g. Ollama). The access-policy steps that need a
// model call are synchronous single-shot completions at temperature 0; the
// client cleans up thinking blocks and code fences that small local models
// wrap their answers in.
package llm

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
)

// Client calls a chat-completion API. It is safe for concurrent use.
type Client struct {
	url    string
	model  string
	apiKey string
	http   *http.Client
}

// New creates a Client. baseURL is the API server root,
// e.g. "http://ollama:11434" or "https://api.openai.com". apiKey may be
// empty for local servers.
func New(baseURL, model, apiKey string) *Client {
	return &Client{
		url:    strings.TrimRight(baseURL, "/") + "/v1/chat/completions",
		model:  model,
		apiKey: apiKey,
		http: &http.Client{
			Timeout: 125 * time.Second,
		},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content          string `json:"content"`
			Reasoning        string `json:"reasoning"`         // Qwen3 via Ollama
			ReasoningContent string `json:"reasoning_content"` // Qwen3 direct API
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Complete sends a system+user prompt pair and returns the cleaned answer
// text. Deterministic by construction: temperature 0.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0,
		MaxTokens:   1000,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("llm: marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody [512]byte
		n, _ := resp.Body.Read(errBody[:])
		return "", fmt.Errorf("llm: status %d: %s", resp.StatusCode, string(errBody[:n]))
	}

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read body: %w", err)
	}

	var cr chatResponse
	if err := json.Unmarshal(rawBody, &cr); err != nil {
		return "", fmt.Errorf("llm: decode: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("llm: empty choices")
	}

	choice := cr.Choices[0]
	if choice.FinishReason == "length" {
		slog.Warn("llm: response truncated by token limit")
	}

	// Qwen3 via Ollama puts thinking in "reasoning" and the answer in
	// "content". If content is empty the model ran out of tokens before
	// answering; fall back to the reasoning fields.
	raw := strings.TrimSpace(choice.Message.Content)
	if raw == "" {
		raw = strings.TrimSpace(choice.Message.Reasoning)
		if raw == "" {
			raw = strings.TrimSpace(choice.Message.ReasoningContent)
		}
	}

	return stripCodeFence(stripThinkBlock(raw)), nil
}

// ExtractJSONObject finds the first {...} substring in s. Small models often
// wrap their JSON answer in prose; callers parse the extracted block.
func ExtractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return s
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		return s
	}
	return s[start : end+1]
}

// ExtractJSONArray finds the first [...] substring in s.
func ExtractJSONArray(s string) string {
	start := strings.Index(s, "[")
	if start < 0 {
		return s
	}
	end := strings.LastIndex(s, "]")
	if end < start {
		return s
	}
	return s[start : end+1]
}

// stripThinkBlock removes a <think>...</think> block that appears before the
// actual answer when thinking mode is active.
func stripThinkBlock(s string) string {
	const open, close = "<think>", "</think>"
	start := strings.Index(s, open)
	if start < 0 {
		return s
	}
	end := strings.Index(s, close)
	if end < 0 {
		// Unclosed block - drop everything from <think> onwards.
		return strings.TrimSpace(s[:start])
	}
	return strings.TrimSpace(s[:start] + s[end+len(close):])
}

// stripCodeFence removes ```json ... ``` or ``` ... ``` wrappers.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
