package term

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// sentinel marks command completion in the side-channel log. It crosses a
// process/terminal boundary, so a marker string is the contract.
const sentinel = "nimbus_done"

// TimeoutMessage and code 124 classify a command that never completed.
const (
	TimeoutMessage = "Command timed out or sentinel not found."
	TimeoutCode    = 124
)

// Launcher starts the wrapped shell script in an observable session. The
// log path is what the script tees into; the production launcher ignores it.
type Launcher interface {
	Launch(script, logPath string) error
}

// TerminalLauncher opens a visible terminal window, preferring mate-terminal,
// then gnome-terminal, then the Debian alternatives wrapper.
type TerminalLauncher struct{}

func (TerminalLauncher) Launch(script, _ string) error {
	var cmd *exec.Cmd
	switch {
	case lookPath("mate-terminal"):
		cmd = exec.Command("mate-terminal", "--window", "--", "bash", "-c", script)
	case lookPath("gnome-terminal"):
		cmd = exec.Command("gnome-terminal", "--window", "--", "bash", "-c", script)
	default:
		cmd = exec.Command("x-terminal-emulator", "-e", fmt.Sprintf("bash -c '%s'", script))
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch terminal: %w", err)
	}
	// The terminal owns the process from here; reap it in the background.
	go func() { _ = cmd.Wait() }()
	return nil
}

func lookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Runner executes shell commands in a visible session and captures their
// output and exit code through a per-invocation sentinel log file.
type Runner struct {
	Launcher Launcher
	Dir      string        // log file directory, default os.TempDir()
	Timeout  time.Duration // overall bound, default 30s
	Poll     time.Duration // log poll interval, default 500ms
}

func NewRunner() *Runner {
	return &Runner{Launcher: TerminalLauncher{}}
}

type result struct {
	output string
	code   int
}

// Run launches command and blocks until the sentinel appears, the timeout
// elapses, or ctx is canceled. On timeout it returns TimeoutCode with the
// timeout message; it never returns an error to keep callers crash-free.
func (r *Runner) Run(ctx context.Context, command string) (string, int) {
	dir := r.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	poll := r.Poll
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}

	logPath := filepath.Join(dir, fmt.Sprintf("nimbus_term_%d.log", time.Now().UnixNano()))
	if err := os.WriteFile(logPath, nil, 0o644); err != nil {
		return fmt.Sprintf("Failed to prepare command log: %v", err), 1
	}

	script := fmt.Sprintf(
		`{ %s ; } 2>&1 | tee %s; echo "EXIT:$?" >> %s; echo "%s" >> %s; exec bash`,
		command, logPath, logPath, sentinel, logPath)

	if err := r.Launcher.Launch(script, logPath); err != nil {
		return fmt.Sprintf("Failed to launch terminal: %v", err), 1
	}

	// Poll in a goroutine resolving a channel, so the caller just selects
	// on completion versus deadline.
	done := make(chan result, 1)
	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		ticker := time.NewTicker(poll)
		defer ticker.Stop()
		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				raw, err := os.ReadFile(logPath)
				if err != nil || !strings.Contains(string(raw), sentinel) {
					continue
				}
				output, code := parseLog(string(raw))
				done <- result{output: output, code: code}
				return
			}
		}
	}()

	select {
	case res := <-done:
		if res.output != "" {
			log.Debug("terminal output", "output", truncate(res.output, 100), "code", res.code)
		}
		return res.output, res.code
	case <-ctx.Done():
		return TimeoutMessage, TimeoutCode
	case <-time.After(timeout):
		return TimeoutMessage, TimeoutCode
	}
}

// parseLog splits the captured log at the sentinel, extracts the trailing
// EXIT:<n> line, and returns the remaining output verbatim.
func parseLog(content string) (string, int) {
	raw := strings.TrimSpace(strings.SplitN(content, sentinel, 2)[0])
	lines := strings.Split(raw, "\n")

	code := 1
	exitIdx := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(lines[i], "EXIT:") {
			if n, err := strconv.Atoi(strings.TrimPrefix(lines[i], "EXIT:")); err == nil {
				code = n
				exitIdx = i
			}
			break
		}
	}
	if exitIdx >= 0 {
		lines = append(lines[:exitIdx], lines[exitIdx+1:]...)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), code
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
