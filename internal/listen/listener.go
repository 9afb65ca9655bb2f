// Package listen implements the voice input path: chime, endpointed
// microphone capture, on-device transcription, and a debug dump for audio
// that could not be recognized.
package listen

import (
	"context"
	log "log/slog"
	"path/filepath"
	"strings"

	"nimbus/internal/notify"
)

// Listener captures one utterance per call and returns the recognized text.
type Listener struct {
	rec      *Recorder
	tr       *Transcriber
	chime    string // mp3 asset path, empty disables the tone
	debugDir string // where unrecognized audio lands
}

type Config struct {
	ModelPath string // whisper model file
	ChimePath string
	DebugDir  string
}

func New(cfg Config) (*Listener, error) {
	rec, err := NewRecorder()
	if err != nil {
		return nil, err
	}
	tr, err := NewTranscriber(cfg.ModelPath)
	if err != nil {
		rec.Close()
		return nil, err
	}
	return &Listener{
		rec:      rec,
		tr:       tr,
		chime:    cfg.ChimePath,
		debugDir: cfg.DebugDir,
	}, nil
}

func (l *Listener) Close() {
	_ = l.tr.Close()
	l.rec.Close()
}

// Listen records one utterance and transcribes it. An empty string with nil
// error means nothing usable was heard; recognition failures are recovered
// locally (the audio is dumped for offline debugging) and reported the same
// way, never as a crash.
func (l *Listener) Listen(ctx context.Context) (string, error) {
	if l.chime != "" {
		if err := notify.Chime(l.chime); err != nil {
			log.Debug("chime unavailable", "err", err)
		}
	}

	pcm, err := l.rec.Record(ctx)
	if err != nil {
		return "", err
	}
	if len(pcm) == 0 {
		return "", nil
	}

	text, err := l.tr.Transcribe(ctx, pcm)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			log.Warn("transcription failed", "err", err)
		}
		if l.debugDir != "" {
			path := filepath.Join(l.debugDir, "debug_last_audio.wav")
			if derr := DumpWAV(path, pcm); derr != nil {
				log.Debug("debug audio dump failed", "err", derr)
			} else {
				log.Info("saved unrecognized audio", "path", path)
			}
		}
		return "", nil
	}

	return strings.ToLower(strings.TrimSpace(text)), nil
}
