package listen

import (
	"context"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Capture parameters. 16 kHz mono float32 is what the transcriber expects.
const (
	sampleRate       = 16000
	frameSize        = 320 // 20ms
	silenceThreshRMS = 0.015
	silenceHold      = 600 * time.Millisecond // trailing silence that ends a phrase
	waitTimeout      = 5 * time.Second        // max wait for speech to start
	phraseLimit      = 10 * time.Second       // max phrase length once speaking
)

// Recorder owns the portaudio lifetime and captures endpointed utterances.
type Recorder struct{}

func NewRecorder() (*Recorder, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &Recorder{}, nil
}

func (r *Recorder) Close() {
	_ = portaudio.Terminate()
}

// Record waits up to waitTimeout for speech, then captures until silenceHold
// of trailing silence or the phrase limit. A nil, nil return means nothing
// was heard before the wait timed out.
func (r *Recorder) Record(ctx context.Context) ([]float32, error) {
	buf := make([]float32, frameSize)
	out := make([]float32, 0, sampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	const frameDur = time.Second * frameSize / sampleRate

	var (
		speaking bool
		silence  time.Duration
		waited   time.Duration
		spoken   time.Duration
	)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}

		rms := frameRMS(buf)
		switch {
		case rms > silenceThreshRMS:
			speaking = true
			silence = 0
			out = append(out, buf...)
		case speaking:
			silence += frameDur
			if silence >= silenceHold {
				return out, nil
			}
			out = append(out, buf...)
		default:
			waited += frameDur
			if waited >= waitTimeout {
				return nil, nil
			}
			continue
		}

		spoken += frameDur
		if spoken >= phraseLimit {
			return out, nil
		}
	}
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
