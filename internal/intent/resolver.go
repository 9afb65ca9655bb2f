package intent

import (
	"fmt"
	"strings"
)

// Interrupter cancels in-flight speech. The resolver fires it as a side
// effect when a stop phrase arrives, before any dispatch happens.
type Interrupter interface {
	StopNow()
}

// Resolver classifies raw command text into an Intent. It never fails: on
// empty or unclassifiable input it falls through to the conversational AI.
type Resolver struct {
	interrupt Interrupter
}

func NewResolver(interrupt Interrupter) *Resolver {
	return &Resolver{interrupt: interrupt}
}

// cacheRule is a tier-0 entry: trigger substring to canonical Intent.
// Checked in order so the list stays deterministic.
type cacheRule struct {
	trigger string
	build   func(command string) Intent
}

var fastCache = []cacheRule{
	{"battery", func(string) Intent { return Intent{Action: ActionSystemStats} }},
	{"cpu", func(string) Intent { return Intent{Action: ActionSystemStats} }},
	{"percentage", func(string) Intent { return Intent{Action: ActionSystemStats} }},
	{"status", func(string) Intent { return Intent{Action: ActionSystemStats} }},
	{"screenshot", func(string) Intent { return Intent{Action: ActionScreenshot, Sub: ScreenshotTake} }},
	{"take photo", func(string) Intent { return Intent{Action: ActionCamera, Sub: CameraCapture} }},
	{"search", func(cmd string) Intent {
		return Intent{Action: ActionWeb, Sub: WebSearch, Query: stripWord(cmd, "search")}
	}},
}

var (
	volumeWords   = []string{"volume", "louder", "quieter", "mute", "silent"}
	stopWords     = []string{"stop", "cancel", "shh", "wait"}
	shutdownWords = []string{"shutdown", "quit program", "power down"}
	identityWords = []string{
		"who are you", "what is your name", "hello", "hi nimbus",
		"are you there", "can you hear me",
	}
	healthWords = []string{
		"battery", "cpu", "percentage", "ram", "temp", "health",
		"system check", "stats",
	}
)

// Resolve maps command text to an Intent. Tiers are checked in order and the
// first match wins; the tail of the pipeline is the conversational fallback,
// so there is no failure path.
func (r *Resolver) Resolve(command string) Intent {
	lower := strings.ToLower(strings.TrimSpace(command))
	if lower == "" {
		return Chat("I am not sure how to respond to that.")
	}

	// Tier 0: exact substring cache for the most frequent utterances. The
	// build funcs receive the original text so extracted arguments keep
	// their casing.
	for _, rule := range fastCache {
		if strings.Contains(lower, rule.trigger) {
			return rule.build(strings.TrimSpace(command))
		}
	}

	// Tier 1: ordered keyword rules. Order matters: "stop the music and
	// open calculator" must hit the stop rule, not the open prefix.
	if containsAny(lower, volumeWords) {
		switch {
		case strings.Contains(lower, "up") || strings.Contains(lower, "louder"):
			return Intent{Action: ActionVolume, Sub: VolumeUp}
		case strings.Contains(lower, "down") || strings.Contains(lower, "quieter"):
			return Intent{Action: ActionVolume, Sub: VolumeDown}
		case strings.Contains(lower, "mute") || strings.Contains(lower, "silent"):
			return Intent{Action: ActionVolume, Sub: VolumeMute}
		}
	}

	if containsAny(lower, stopWords) {
		if r.interrupt != nil {
			r.interrupt.StopNow()
		}
		return Chat("Standing by.")
	}

	if containsAny(lower, shutdownWords) {
		return Intent{Action: ActionSystem, Sub: SystemShutdown}
	}

	stripped := strings.Trim(lower, "? .")
	if containsAny(stripped, identityWords) {
		prompt := fmt.Sprintf("Reply to: '%s'. Confirm you hear me and characterize Nimbus.", command)
		return Intent{Action: ActionAskAI, Prompt: prompt}
	}

	if name, ok := strippedPrefix(lower, "open ", "launch "); ok {
		return Intent{Action: ActionApp, Name: name}
	}

	if containsAny(lower, healthWords) {
		return Intent{Action: ActionSystemStats}
	}

	// Tier 2: hand anything novel to the conversational AI rather than a
	// heavier classifier, trading accuracy for latency.
	return Intent{Action: ActionAskAI, Prompt: command}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// stripWord removes the first case-insensitive occurrence of word, keeping
// the rest of the text verbatim.
func stripWord(s, word string) string {
	idx := strings.Index(strings.ToLower(s), word)
	if idx < 0 {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(s[:idx] + s[idx+len(word):])
}

func strippedPrefix(s string, prefixes ...string) (string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return strings.TrimSpace(strings.TrimPrefix(s, p)), true
		}
	}
	return "", false
}
