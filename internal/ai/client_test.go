package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureServer records the last request body and replies with a fixed
// completion.
func captureServer(t *testing.T, content string) (*Client, *map[string]any) {
	t.Helper()

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, Model: "test-model"}, nil)
	require.NoError(t, err)
	return c, &body
}

func TestAskJSONSetsResponseFormat(t *testing.T) {
	c, body := captureServer(t, `{"thought": "x", "type": "done", "value": "true"}`)

	got, err := c.Ask(context.Background(), Request{Prompt: "plan", JSON: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"thought": "x", "type": "done", "value": "true"}`, got)

	format, ok := (*body)["response_format"].(map[string]any)
	require.True(t, ok, "planner calls must carry response_format, body: %v", *body)
	assert.Equal(t, "json_object", format["type"])
}

func TestAskConversationalOmitsResponseFormat(t *testing.T) {
	c, body := captureServer(t, `Certainly. {"metadata": 1} Done.`)

	got, err := c.Ask(context.Background(), Request{Prompt: "hello"})
	require.NoError(t, err)

	assert.NotContains(t, *body, "response_format")
	assert.NotContains(t, got, "{", "chat replies get stray JSON stripped")
}
