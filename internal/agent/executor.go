// Package agent runs the bounded action loop that drives the desktop and a
// shell toward an open-ended goal, one AI-planned primitive at a time.
package agent

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"
)

// Terminal executes a shell command in an observable session and returns
// captured output with an exit code.
type Terminal interface {
	Run(ctx context.Context, command string) (string, int)
}

// Desktop injects GUI input.
type Desktop interface {
	Hotkey(keys ...string) error
	Type(text string) error
	Press(key string) error
}

// TerminationKind classifies how a goal ended.
type TerminationKind int

const (
	// Completed means the planner declared the goal done.
	Completed TerminationKind = iota
	// StepLimit means the budget ran out without a done verdict.
	StepLimit
	// Blocked means the goal was refused or the planner became unusable.
	Blocked
)

// Termination is the result of one goal run.
type Termination struct {
	Kind    TerminationKind
	Message string
}

// Settle intervals give the desktop time to react before the next plan.
const (
	settleHotkey = 2 * time.Second
	settleInput  = 500 * time.Millisecond
	stepDelay    = time.Second
)

// maxParseFailures consecutive unusable planner responses terminate the
// goal early instead of burning the whole step budget.
const maxParseFailures = 3

// DefaultMaxSteps bounds a goal when the caller does not say otherwise.
const DefaultMaxSteps = 10

// forbidden phrases refuse a goal outright before any planning happens.
var forbidden = []string{"shutdown", "reboot", "poweroff", "init 0", "init 6", "rm -rf /"}

// BlockedMessage is the user-facing refusal for denylisted goals.
const BlockedMessage = "Safety protocols prevent me from executing that instruction directly."

// Executor runs the step loop. It is stateless across goals; the only
// memory inside a run is the bounded text ledger fed back to the planner.
type Executor struct {
	Planner Planner
	Term    Terminal
	GUI     Desktop

	// Emit surfaces step progress to the UI log. Optional.
	Emit func(message string)
	// Speak announces start and completion. Optional.
	Speak func(text string)

	// sleep is a seam for tests; nil means time.Sleep.
	sleep func(time.Duration)
}

func (e *Executor) emit(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Debug(msg)
	if e.Emit != nil {
		e.Emit(msg)
	}
}

func (e *Executor) speak(text string) {
	if e.Speak != nil {
		e.Speak(text)
	}
}

func (e *Executor) pause(d time.Duration) {
	if e.sleep != nil {
		e.sleep(d)
		return
	}
	time.Sleep(d)
}

// Run pursues goal for at most maxSteps planner calls. It always terminates:
// worst case is maxSteps AI calls plus the fixed settle delays. It never
// returns an error; failures degrade to a Termination the dispatcher can
// speak.
func (e *Executor) Run(ctx context.Context, goal string, maxSteps int) Termination {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	if refused(goal) {
		e.speak(BlockedMessage)
		return Termination{Kind: Blocked, Message: "Command blocked by safety protocol."}
	}

	e.speak(fmt.Sprintf("Agentic mode engaged. Goal: %s", goal))

	var ledger ledger
	parseFailures := 0

	for step := 1; step <= maxSteps; step++ {
		if ctx.Err() != nil {
			return Termination{Kind: Blocked, Message: "Goal canceled."}
		}

		plan, err := e.Planner.NextStep(ctx, goal, step, ledger.tail())
		if err != nil {
			e.emit("Step %d: planner error: %v", step, err)
			if errors.Is(err, ErrBadPlan) {
				parseFailures++
				if parseFailures >= maxParseFailures {
					return Termination{Kind: Blocked, Message: "Planner output unusable."}
				}
			}
			e.pause(stepDelay)
			continue
		}
		parseFailures = 0

		e.emit("Step %d: %s", step, plan.Thought)

		switch plan.Type {
		case StepDone:
			e.speak("Task complete.")
			return Termination{Kind: Completed, Message: "Task completed."}

		case StepGUI:
			e.runGUI(step, plan.Value, &ledger)

		case StepTerminal:
			e.runTerminal(ctx, step, plan.Value, &ledger)

		default:
			e.emit("Invalid action type: %s", plan.Type)
			ledger.add(step, "Invalid: %s", plan.Thought)
		}

		e.pause(stepDelay)
	}

	e.speak("Step limit reached.")
	return Termination{Kind: StepLimit, Message: "Step limit reached."}
}

func (e *Executor) runGUI(step int, value string, led *ledger) {
	verb, payload, ok := strings.Cut(value, ":")
	if !ok || payload == "" {
		e.emit("Invalid GUI value format: %s", value)
		led.add(step, "Invalid GUI value: %s", value)
		return
	}
	verb = strings.ToLower(strings.TrimSpace(verb))
	payload = strings.TrimSpace(payload)

	var err error
	switch verb {
	case "hotkey":
		keys := strings.Split(payload, "+")
		e.emit("Pressing: %s", strings.Join(keys, " + "))
		err = e.GUI.Hotkey(keys...)
		if err == nil {
			led.add(step, "Hotkey: %s", payload)
			e.pause(settleHotkey)
		}
	case "type":
		e.emit("Typing: %s", truncate(payload, 50))
		err = e.GUI.Type(payload)
		if err == nil {
			led.add(step, "Typed: %s", payload)
			e.pause(settleInput)
		}
	case "press":
		e.emit("Pressing key: %s", payload)
		err = e.GUI.Press(payload)
		if err == nil {
			led.add(step, "Pressed: %s", payload)
			e.pause(settleInput)
		}
	default:
		e.emit("Unknown GUI action: %s", verb)
		led.add(step, "Unknown GUI action: %s", verb)
		return
	}

	if err != nil {
		e.emit("GUI error: %v", err)
		led.add(step, "Error: %v", err)
	}
}

func (e *Executor) runTerminal(ctx context.Context, step int, value string, led *ledger) {
	command := strings.TrimSpace(value)
	if command == "" || strings.EqualFold(command, "none") {
		// recorded as an error so the planner sees the attempt failed
		e.emit("Planner returned null command. Skipping.")
		led.add(step, "Error: Null command received.")
		return
	}

	e.emit("Executing: %s", command)
	output, code := e.Term.Run(ctx, command)
	led.add(step, "Terminal Output: %s (Exit Code: %d)", truncate(output, 100), code)
}

func refused(goal string) bool {
	lower := strings.ToLower(goal)
	for _, phrase := range forbidden {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
