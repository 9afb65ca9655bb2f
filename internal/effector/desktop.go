// Package effector wraps the OS-level capabilities the assistant drives:
// audio, display, desktop input, capture devices, files, and the browser.
// Everything shells out to the standard Linux desktop tools; callers treat
// failures as degraded results, never as fatal.
package effector

import (
	"fmt"
	"os/exec"
	"strings"
)

// Desktop bundles the exec-based effectors with their shared settings.
type Desktop struct {
	// ShotDir is where screenshots and camera captures land.
	ShotDir string
}

func NewDesktop(shotDir string) *Desktop {
	return &Desktop{ShotDir: shotDir}
}

// Volume adjusts the master mixer: "up" and "down" move 5%, "mute" toggles.
func (d *Desktop) Volume(direction string) error {
	var args []string
	switch direction {
	case "up":
		args = []string{"-D", "pulse", "sset", "Master", "5%+", "unmute"}
	case "down":
		args = []string{"-D", "pulse", "sset", "Master", "5%-", "unmute"}
	case "mute":
		args = []string{"-D", "pulse", "sset", "Master", "toggle"}
	default:
		return fmt.Errorf("unknown volume direction %q", direction)
	}
	if out, err := exec.Command("amixer", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("amixer: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Brightness sets display brightness via xrandr, clamped to 10-100 percent
// so the screen can never be driven fully dark.
func (d *Desktop) Brightness(percent int) error {
	out, err := exec.Command("sh", "-c", "xrandr | grep ' connected' | awk '{print $1}'").Output()
	if err != nil {
		return fmt.Errorf("detect display output: %w", err)
	}
	output := strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)[0]
	if output == "" {
		return fmt.Errorf("no connected display output found")
	}

	if percent < 10 {
		percent = 10
	}
	if percent > 100 {
		percent = 100
	}
	val := float64(percent) / 100.0

	if err := exec.Command("xrandr", "--output", output, "--brightness", fmt.Sprintf("%.2f", val)).Run(); err != nil {
		return fmt.Errorf("xrandr brightness: %w", err)
	}
	return nil
}

// Notify raises a desktop notification.
func (d *Desktop) Notify(title, body string) error {
	if err := exec.Command("notify-send", title, body).Run(); err != nil {
		return fmt.Errorf("notify-send: %w", err)
	}
	return nil
}

// Hotkey presses a key chord, e.g. Hotkey("ctrl", "alt", "t").
func (d *Desktop) Hotkey(keys ...string) error {
	if len(keys) == 0 {
		return fmt.Errorf("empty hotkey")
	}
	if err := exec.Command("xdotool", "key", strings.Join(keys, "+")).Run(); err != nil {
		return fmt.Errorf("xdotool key: %w", err)
	}
	return nil
}

// Type writes literal text into the focused window.
func (d *Desktop) Type(text string) error {
	if err := exec.Command("xdotool", "type", "--delay", "50", text).Run(); err != nil {
		return fmt.Errorf("xdotool type: %w", err)
	}
	return nil
}

// Press taps a single key, e.g. Press("Return").
func (d *Desktop) Press(key string) error {
	if err := exec.Command("xdotool", "key", key).Run(); err != nil {
		return fmt.Errorf("xdotool press: %w", err)
	}
	return nil
}
