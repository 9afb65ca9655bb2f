package listen

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DumpWAV persists captured PCM for offline debugging of unrecognized
// utterances.
func DumpWAV(path string, pcm []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create debug wav: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	ints := make([]int, len(pcm))
	for i, v := range pcm {
		if v > 1 {
			v = 1
		}
		if v < -1 {
			v = -1
		}
		ints[i] = int(v * 32767)
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           ints,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write debug wav: %w", err)
	}
	return enc.Close()
}
