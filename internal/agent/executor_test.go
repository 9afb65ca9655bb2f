package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptPlanner replays a fixed sequence of steps or errors and counts calls.
type scriptPlanner struct {
	steps []Step
	errs  []error
	calls int
}

func (p *scriptPlanner) NextStep(ctx context.Context, goal string, step int, history string) (Step, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return Step{}, p.errs[i]
	}
	if i < len(p.steps) {
		return p.steps[i], nil
	}
	return Step{Type: StepDone, Value: "true"}, nil
}

type fakeTerminal struct {
	commands []string
	output   string
	code     int
}

func (t *fakeTerminal) Run(ctx context.Context, command string) (string, int) {
	t.commands = append(t.commands, command)
	return t.output, t.code
}

type fakeGUI struct {
	hotkeys [][]string
	typed   []string
	pressed []string
}

func (g *fakeGUI) Hotkey(keys ...string) error {
	g.hotkeys = append(g.hotkeys, keys)
	return nil
}
func (g *fakeGUI) Type(text string) error {
	g.typed = append(g.typed, text)
	return nil
}
func (g *fakeGUI) Press(key string) error {
	g.pressed = append(g.pressed, key)
	return nil
}

func newExecutor(p Planner, term *fakeTerminal, gui *fakeGUI) *Executor {
	return &Executor{
		Planner: p,
		Term:    term,
		GUI:     gui,
		sleep:   func(time.Duration) {},
	}
}

func TestRunRefusesForbiddenGoal(t *testing.T) {
	p := &scriptPlanner{}
	e := newExecutor(p, &fakeTerminal{}, &fakeGUI{})

	res := e.Run(context.Background(), "please reboot the machine", 0)

	assert.Equal(t, Blocked, res.Kind)
	assert.Equal(t, "Command blocked by safety protocol.", res.Message)
	assert.Zero(t, p.calls, "a refused goal must never reach the planner")
}

func TestRunCompletesOnDone(t *testing.T) {
	p := &scriptPlanner{steps: []Step{
		{Thought: "run it", Type: StepTerminal, Value: "ls"},
		{Thought: "finished", Type: StepDone, Value: "true"},
	}}
	term := &fakeTerminal{output: "files", code: 0}
	e := newExecutor(p, term, &fakeGUI{})

	res := e.Run(context.Background(), "list the files", 10)

	assert.Equal(t, Completed, res.Kind)
	assert.Equal(t, "Task completed.", res.Message)
	assert.Equal(t, []string{"ls"}, term.commands)
	assert.Equal(t, 2, p.calls)
}

func TestRunStepLimit(t *testing.T) {
	// A planner that never declares done burns exactly maxSteps calls.
	steps := make([]Step, 5)
	for i := range steps {
		steps[i] = Step{Thought: "again", Type: StepTerminal, Value: "true"}
	}
	p := &scriptPlanner{steps: steps}
	e := newExecutor(p, &fakeTerminal{}, &fakeGUI{})

	res := e.Run(context.Background(), "an endless goal", 5)

	assert.Equal(t, StepLimit, res.Kind)
	assert.Equal(t, "Step limit reached.", res.Message)
	assert.Equal(t, 5, p.calls)
}

func TestRunBlocksAfterRepeatedBadPlans(t *testing.T) {
	p := &scriptPlanner{errs: []error{ErrBadPlan, ErrBadPlan, ErrBadPlan}}
	e := newExecutor(p, &fakeTerminal{}, &fakeGUI{})

	res := e.Run(context.Background(), "some goal", 10)

	assert.Equal(t, Blocked, res.Kind)
	assert.Equal(t, "Planner output unusable.", res.Message)
	assert.Equal(t, 3, p.calls)
}

func TestRunParseFailureCounterResets(t *testing.T) {
	p := &scriptPlanner{
		errs: []error{ErrBadPlan, ErrBadPlan, nil, ErrBadPlan, ErrBadPlan, nil},
		steps: []Step{
			{}, {},
			{Thought: "ok", Type: StepTerminal, Value: "true"},
			{}, {},
			{Thought: "finished", Type: StepDone, Value: "true"},
		},
	}
	e := newExecutor(p, &fakeTerminal{}, &fakeGUI{})

	res := e.Run(context.Background(), "flaky goal", 10)

	assert.Equal(t, Completed, res.Kind, "a good step in between must reset the failure count")
}

func TestRunGUIActions(t *testing.T) {
	p := &scriptPlanner{steps: []Step{
		{Thought: "terminal", Type: StepGUI, Value: "hotkey:ctrl+alt+t"},
		{Thought: "command", Type: StepGUI, Value: "type:google-chrome"},
		{Thought: "go", Type: StepGUI, Value: "press:Return"},
		{Thought: "finished", Type: StepDone, Value: "true"},
	}}
	gui := &fakeGUI{}
	e := newExecutor(p, &fakeTerminal{}, gui)

	res := e.Run(context.Background(), "launch chrome", 10)

	require.Equal(t, Completed, res.Kind)
	assert.Equal(t, [][]string{{"ctrl", "alt", "t"}}, gui.hotkeys)
	assert.Equal(t, []string{"google-chrome"}, gui.typed)
	assert.Equal(t, []string{"Return"}, gui.pressed)
}

func TestNullCommandFeedsBackAsError(t *testing.T) {
	var histories []string
	p := &recordingPlanner{steps: []Step{
		{Thought: "nothing", Type: StepTerminal, Value: "none"},
		{Thought: "finished", Type: StepDone, Value: "true"},
	}, histories: &histories}
	term := &fakeTerminal{}
	e := newExecutor(p, term, &fakeGUI{})

	res := e.Run(context.Background(), "do something", 10)

	require.Equal(t, Completed, res.Kind)
	assert.Empty(t, term.commands, "a null command must not reach the shell")
	require.Len(t, histories, 2)
	assert.Contains(t, histories[1], "Error: Null command received.")
}

// recordingPlanner captures the history fed into every call.
type recordingPlanner struct {
	steps     []Step
	histories *[]string
	calls     int
}

func (p *recordingPlanner) NextStep(ctx context.Context, goal string, step int, history string) (Step, error) {
	*p.histories = append(*p.histories, history)
	i := p.calls
	p.calls++
	if i < len(p.steps) {
		return p.steps[i], nil
	}
	return Step{Type: StepDone, Value: "true"}, nil
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newExecutor(&scriptPlanner{}, &fakeTerminal{}, &fakeGUI{})
	res := e.Run(ctx, "anything", 10)

	assert.Equal(t, Blocked, res.Kind)
}
