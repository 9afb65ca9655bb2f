package term

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileLauncher skips the terminal window and writes canned log content
// directly, as if the wrapped script had run.
type fileLauncher struct {
	content string
	script  string
}

func (l *fileLauncher) Launch(script, logPath string) error {
	l.script = script
	return os.WriteFile(logPath, []byte(l.content), 0o644)
}

// silentLauncher launches nothing, so the sentinel never appears.
type silentLauncher struct{}

func (silentLauncher) Launch(string, string) error { return nil }

type failingLauncher struct{}

func (failingLauncher) Launch(string, string) error { return errors.New("no display") }

func TestRunCapturesOutputAndExit(t *testing.T) {
	launcher := &fileLauncher{content: "hello\nEXIT:0\nnimbus_done\n"}
	r := &Runner{Launcher: launcher, Dir: t.TempDir(), Timeout: 2 * time.Second, Poll: 10 * time.Millisecond}

	output, code := r.Run(context.Background(), "echo hello")

	assert.Equal(t, "hello", output)
	assert.Equal(t, 0, code)
}

func TestRunScriptShape(t *testing.T) {
	launcher := &fileLauncher{content: "EXIT:0\nnimbus_done\n"}
	r := &Runner{Launcher: launcher, Dir: t.TempDir(), Timeout: 2 * time.Second, Poll: 10 * time.Millisecond}

	r.Run(context.Background(), "ls -la")

	// The wrapper must merge stderr, tee output, record the exit code,
	// append the sentinel, and keep the window open afterward.
	require.Contains(t, launcher.script, "{ ls -la ; } 2>&1 | tee ")
	assert.Contains(t, launcher.script, `echo "EXIT:$?"`)
	assert.Contains(t, launcher.script, "nimbus_done")
	assert.Contains(t, launcher.script, "exec bash")
}

func TestRunNonZeroExit(t *testing.T) {
	launcher := &fileLauncher{content: "not found\nEXIT:127\nnimbus_done\n"}
	r := &Runner{Launcher: launcher, Dir: t.TempDir(), Timeout: 2 * time.Second, Poll: 10 * time.Millisecond}

	output, code := r.Run(context.Background(), "nope")

	assert.Equal(t, "not found", output)
	assert.Equal(t, 127, code)
}

func TestRunTimeout(t *testing.T) {
	r := &Runner{Launcher: silentLauncher{}, Dir: t.TempDir(), Timeout: 100 * time.Millisecond, Poll: 10 * time.Millisecond}

	output, code := r.Run(context.Background(), "sleep forever")

	assert.Equal(t, TimeoutMessage, output)
	assert.Equal(t, TimeoutCode, code)
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Launcher: silentLauncher{}, Dir: t.TempDir(), Timeout: 10 * time.Second, Poll: 10 * time.Millisecond}
	output, code := r.Run(ctx, "anything")

	assert.Equal(t, TimeoutMessage, output)
	assert.Equal(t, TimeoutCode, code)
}

func TestRunLaunchFailure(t *testing.T) {
	r := &Runner{Launcher: failingLauncher{}, Dir: t.TempDir(), Timeout: time.Second, Poll: 10 * time.Millisecond}

	output, code := r.Run(context.Background(), "true")

	assert.Contains(t, output, "Failed to launch terminal")
	assert.Equal(t, 1, code)
}

func TestParseLogMissingExitLine(t *testing.T) {
	output, code := parseLog("some output\nnimbus_done\n")
	assert.Equal(t, "some output", output)
	assert.Equal(t, 1, code, "a log without an exit line defaults to failure")
}
