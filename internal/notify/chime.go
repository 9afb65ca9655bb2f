package notify

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

var speakerInit sync.Once

// Chime plays the short attention tone before the microphone opens.
// Failures are returned, not fatal: a missing sound asset must never take
// the listen loop down.
func Chime(assetPath string) error {
	f, err := os.Open(assetPath)
	if err != nil {
		return fmt.Errorf("open chime asset: %w", err)
	}
	defer f.Close()

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		return fmt.Errorf("decode chime: %w", err)
	}
	defer streamer.Close()

	var initErr error
	speakerInit.Do(func() {
		initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if initErr != nil {
		return fmt.Errorf("init speaker: %w", initErr)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		// a stuck audio device must not wedge the listener
	}
	return nil
}
