package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteSendsDeterministicRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Zero(t, req.Temperature)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "self"}},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "test-model", "sk-test")
	out, err := c.Complete(context.Background(), "classify", "Question: hi")
	require.NoError(t, err)
	assert.Equal(t, "self", out)
}

func TestCompleteStripsThinkBlockAndFence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"content": "<think>the user asks about routing</think>```json\n{\"route\":\"policy\"}\n```",
				}},
			},
		})
	}))
	defer srv.Close()

	out, err := New(srv.URL, "m", "").Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, `{"route":"policy"}`, out)
}

func TestCompleteFallsBackToReasoning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "", "reasoning": "others"}},
			},
		})
	}))
	defer srv.Close()

	out, err := New(srv.URL, "m", "").Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "others", out)
}

func TestCompleteErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "m", "").Complete(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractJSONObject(`prose {"a":1} trailing`))
	assert.Equal(t, "no braces", ExtractJSONObject("no braces"))
}

func TestExtractJSONArray(t *testing.T) {
	assert.Equal(t, `[1,2]`, ExtractJSONArray("here: [1,2]!"))
	assert.Equal(t, "none", ExtractJSONArray("none"))
}
