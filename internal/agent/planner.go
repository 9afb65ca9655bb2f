package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"nimbus/internal/ai"
)

// Step is one planner decision: what to do next and why.
type Step struct {
	Thought string `json:"thought"`
	Type    string `json:"type"`  // gui | terminal | done
	Value   string `json:"value"` // verb:payload for gui, shell command for terminal
}

// Step types the executor understands.
const (
	StepGUI      = "gui"
	StepTerminal = "terminal"
	StepDone     = "done"
)

// ErrBadPlan marks planner output that could not be parsed into a Step.
var ErrBadPlan = errors.New("unparseable planner output")

// Planner chooses the next primitive action toward the goal. history is the
// bounded tail of prior step outcomes.
type Planner interface {
	NextStep(ctx context.Context, goal string, step int, history string) (Step, error)
}

// asker is the slice of ai.Client the planner needs; kept narrow for tests.
type asker interface {
	Ask(ctx context.Context, req ai.Request) (string, error)
}

// AIPlanner asks the model for strict JSON, one step at a time. The prompt
// is example-driven because small local models follow patterns better than
// schemas.
type AIPlanner struct {
	AI asker
}

const plannerPromptFmt = `Goal: %s
Step: %d

Recent actions:
%s

Valid response types:
1. "gui" - value format "hotkey:key+key", "type:text", or "press:key"
2. "terminal" - value is the shell command to execute
3. "done" - value is "true"

Examples:
To launch Chrome:
{"thought": "open terminal", "type": "gui", "value": "hotkey:ctrl+alt+t"}
{"thought": "type chrome command", "type": "gui", "value": "type:google-chrome"}

To execute directly (recommended for scripts):
{"thought": "list files", "type": "terminal", "value": "ls -la"}

If the previous step failed, try a different approach.
Your turn. Output ONLY JSON for step %d:`

func (p *AIPlanner) NextStep(ctx context.Context, goal string, step int, history string) (Step, error) {
	if history == "" {
		history = "None"
	}
	system := fmt.Sprintf(plannerPromptFmt, goal, step, history, step)

	raw, err := p.AI.Ask(ctx, ai.Request{
		System: system,
		Prompt: "Generate next action",
		JSON:   true,
	})
	if err != nil {
		return Step{}, err
	}
	return ParseStep(raw)
}

// ParseStep decodes planner output, tolerating the markdown code fences
// small models like to add. Anything else unparseable is ErrBadPlan.
func ParseStep(raw string) (Step, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var s Step
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Step{}, fmt.Errorf("%w: %v", ErrBadPlan, err)
	}
	s.Type = strings.ToLower(strings.TrimSpace(s.Type))
	if s.Thought == "" {
		s.Thought = "Processing..."
	}
	return s, nil
}
