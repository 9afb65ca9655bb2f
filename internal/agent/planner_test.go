package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimbus/internal/ai"
)

func TestParseStepPlain(t *testing.T) {
	s, err := ParseStep(`{"thought": "list files", "type": "terminal", "value": "ls -la"}`)
	require.NoError(t, err)
	assert.Equal(t, "list files", s.Thought)
	assert.Equal(t, StepTerminal, s.Type)
	assert.Equal(t, "ls -la", s.Value)
}

func TestParseStepStripsFences(t *testing.T) {
	raw := "```json\n{\"thought\": \"open terminal\", \"type\": \"gui\", \"value\": \"hotkey:ctrl+alt+t\"}\n```"
	s, err := ParseStep(raw)
	require.NoError(t, err)
	assert.Equal(t, StepGUI, s.Type)
	assert.Equal(t, "hotkey:ctrl+alt+t", s.Value)
}

func TestParseStepNormalizesType(t *testing.T) {
	s, err := ParseStep(`{"thought": "done now", "type": " DONE ", "value": "true"}`)
	require.NoError(t, err)
	assert.Equal(t, StepDone, s.Type)
}

func TestParseStepDefaultThought(t *testing.T) {
	s, err := ParseStep(`{"type": "terminal", "value": "pwd"}`)
	require.NoError(t, err)
	assert.NotEmpty(t, s.Thought)
}

func TestParseStepGarbage(t *testing.T) {
	_, err := ParseStep("I think the next step should be opening a terminal")
	assert.ErrorIs(t, err, ErrBadPlan)
}

// stubAsker returns canned model output.
type stubAsker struct {
	raw  string
	errs error
	req  ai.Request
}

func (s *stubAsker) Ask(ctx context.Context, req ai.Request) (string, error) {
	s.req = req
	return s.raw, s.errs
}

func TestAIPlannerRequestsRawJSON(t *testing.T) {
	stub := &stubAsker{raw: `{"thought": "x", "type": "done", "value": "true"}`}
	p := &AIPlanner{AI: stub}

	s, err := p.NextStep(context.Background(), "open chrome", 3, "")
	require.NoError(t, err)
	assert.Equal(t, StepDone, s.Type)
	assert.True(t, stub.req.JSON, "planner output must bypass the chat JSON stripper")
	assert.Contains(t, stub.req.System, "open chrome")
	assert.Contains(t, stub.req.System, "None", "empty history renders as None")
}
