package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ProcessRenderer pipes text through an external synthesizer into a raw
// audio player. Both processes run under the render context, so canceling
// it kills playback mid-utterance.
type ProcessRenderer struct {
	// Synth reads text on stdin and writes raw PCM on stdout,
	// e.g. {"piper", "--model", "voice.onnx", "--output-raw"}.
	Synth []string
	// Play consumes raw PCM on stdin,
	// e.g. {"aplay", "-r", "22050", "-f", "S16_LE", "-t", "raw", "-"}.
	Play []string
}

// DefaultRenderer builds the piper-to-aplay pipeline used on Linux desktops.
func DefaultRenderer(modelPath string) *ProcessRenderer {
	return &ProcessRenderer{
		Synth: []string{"piper", "--model", modelPath, "--output-raw"},
		Play:  []string{"aplay", "-r", "22050", "-f", "S16_LE", "-t", "raw", "-"},
	}
}

func (r *ProcessRenderer) Speak(ctx context.Context, text string) error {
	if len(r.Synth) == 0 || len(r.Play) == 0 {
		return fmt.Errorf("renderer not configured")
	}

	synth := exec.CommandContext(ctx, r.Synth[0], r.Synth[1:]...)
	synth.Stdin = strings.NewReader(text)

	pcm, err := synth.StdoutPipe()
	if err != nil {
		return fmt.Errorf("synth stdout: %w", err)
	}

	play := exec.CommandContext(ctx, r.Play[0], r.Play[1:]...)
	play.Stdin = pcm

	if err := synth.Start(); err != nil {
		return fmt.Errorf("start synth: %w", err)
	}
	if err := play.Start(); err != nil {
		_ = synth.Process.Kill()
		_ = synth.Wait()
		return fmt.Errorf("start player: %w", err)
	}

	synthErr := synth.Wait()
	playErr := play.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if synthErr != nil {
		return fmt.Errorf("synth: %w", synthErr)
	}
	if playErr != nil {
		return fmt.Errorf("player: %w", playErr)
	}
	return nil
}
