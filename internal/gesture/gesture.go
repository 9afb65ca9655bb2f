// Package gesture manages the lifecycle of the external hand-gesture
// pointer controller. The controller itself is an opaque capability; this
// package only starts and stops it, independent of the speech and listen
// loops.
package gesture

import (
	"errors"
	"fmt"
	log "log/slog"
	"os/exec"
	"sync"
)

var ErrNotRunning = errors.New("gesture controller not running")

// Controller runs the configured gesture binary as a background process.
type Controller struct {
	mu      sync.Mutex
	command []string
	proc    *exec.Cmd
}

func NewController(command []string) *Controller {
	return &Controller{command: command}
}

// Start launches the controller. Starting twice is a no-op.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.command) == 0 {
		return errors.New("no gesture command configured")
	}
	if c.proc != nil {
		return nil
	}

	cmd := exec.Command(c.command[0], c.command[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start gesture controller: %w", err)
	}
	c.proc = cmd

	go func() {
		err := cmd.Wait()
		c.mu.Lock()
		if c.proc == cmd {
			c.proc = nil
		}
		c.mu.Unlock()
		if err != nil {
			log.Debug("gesture controller exited", "err", err)
		}
	}()

	return nil
}

// Stop terminates the controller if it is running.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.proc == nil {
		return ErrNotRunning
	}
	err := c.proc.Process.Kill()
	c.proc = nil
	if err != nil {
		return fmt.Errorf("stop gesture controller: %w", err)
	}
	return nil
}

// Running reports whether the controller process is alive.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proc != nil
}
