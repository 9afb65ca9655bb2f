// Package assistant wires the intent pipeline, the speech queue, the
// agentic executor, and the effectors into the single entry point external
// transports call. It owns the central listen/dispatch loop.
package assistant

import (
	"context"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"nimbus/internal/agent"
	"nimbus/internal/ai"
	"nimbus/internal/events"
	"nimbus/internal/health"
	"nimbus/internal/history"
	"nimbus/internal/intent"
)

// Speech is the serialized speech output the assistant talks through.
type Speech interface {
	Enqueue(text string) bool
	StopNow()
	Speaking() bool
}

// AI is the conversational model surface.
type AI interface {
	Ask(ctx context.Context, req ai.Request) (string, error)
}

// Agent runs multi-step goals.
type Agent interface {
	Run(ctx context.Context, goal string, maxSteps int) agent.Termination
}

// History is the persisted conversation log.
type History interface {
	Append(ctx context.Context, e history.Entry) error
	Dump(ctx context.Context) (string, error)
}

// HealthSource provides on-demand device health.
type HealthSource interface {
	Collect(ctx context.Context) health.Snapshot
}

// SystemEffector drives audio, display, and notifications.
type SystemEffector interface {
	Volume(direction string) error
	Brightness(percent int) error
	Notify(title, body string) error
}

// MediaEffector drives screen and camera capture.
type MediaEffector interface {
	Screenshot() (string, error)
	Photo() (string, error)
	Screenshots() ([]string, error)
	Visuals() ([]string, error)
	Remove(path string) error
}

// FileEffector performs filesystem operations.
type FileEffector interface {
	CreateFolder(target string) (string, error)
	CreateFile(target string) (string, error)
	List(target string) (string, error)
}

// WebEffector launches searches and scrapes pages.
type WebEffector interface {
	Search(query string) error
	Scrape(ctx context.Context, url string) (string, error)
}

// PhotoPusher delivers images to the remote messaging channel.
type PhotoPusher interface {
	Configured() bool
	SendPhoto(ctx context.Context, path, caption string) error
}

// Gesture is the start/stop-able pointer-control capability.
type Gesture interface {
	Start() error
	Stop() error
}

// Listener captures one command; empty text means nothing was heard.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

// Deps collects everything the assistant drives. Sink may be nil.
type Deps struct {
	Speech   Speech
	AI       AI
	Agent    Agent
	History  History
	Health   HealthSource
	System   SystemEffector
	Media    MediaEffector
	Files    FileEffector
	Web      WebEffector
	Photos   PhotoPusher
	Gesture  Gesture
	Listener Listener
	Sink     events.Sink
}

// Assistant routes resolved intents to effectors and arbitrates all spoken
// output through the speech queue.
type Assistant struct {
	resolver *intent.Resolver
	deps     Deps
	sink     events.Sink

	// listenRetry paces the loop when the microphone keeps failing, so a
	// missing audio device does not spin the daemon hot.
	listenRetry time.Duration

	// lastCreated is the "that folder" context; touched from the voice
	// loop and remote transports, so it sits under its own mutex.
	mu          sync.Mutex
	lastCreated string
}

func New(deps Deps) *Assistant {
	sink := deps.Sink
	if sink == nil {
		sink = events.Discard
	}
	a := &Assistant{
		deps:        deps,
		sink:        sink,
		listenRetry: time.Second,
	}
	a.resolver = intent.NewResolver(deps.Speech)
	return a
}

// Outcome is the dispatcher's typed result. Shutdown tells the caller to
// terminate the command loop after this call; the reply text is still valid.
type Outcome struct {
	Text     string
	Shutdown bool
}

// emitStatus publishes the status_update event.
func (a *Assistant) emitStatus(status string) {
	a.sink.Emit(events.StatusUpdate, map[string]any{"status": status})
}

// emitLog mirrors a line to the process log and the new_log event.
func (a *Assistant) emitLog(message string, user bool) {
	kind := "system"
	if user {
		kind = "user"
	}
	log.Info(message, "source", kind)
	a.sink.Emit(events.NewLog, map[string]any{"message": message, "type": kind})
}

// Announce logs and speaks unconditionally; used by startup and the health
// monitor, which are never silent.
func (a *Assistant) Announce(text string) {
	a.emitLog(text, false)
	a.deps.Speech.Enqueue(text)
}

// Startup speaks the systems-online line with time and battery.
func (a *Assistant) Startup(ctx context.Context) {
	msg := fmt.Sprintf("Systems online. %s.", time.Now().Format("3:04 PM"))
	if snap := a.deps.Health.Collect(ctx); snap.Battery != nil {
		msg += fmt.Sprintf(" Battery %.0f%%.", *snap.Battery)
	}
	a.Announce(msg)
}

// StartMonitors launches the health-alert and telemetry loops.
func (a *Assistant) StartMonitors(ctx context.Context, provider *health.Provider) {
	mon := &health.Monitor{
		Provider: provider,
		Announce: a.Announce,
		Notify:   a.deps.System.Notify,
	}
	go mon.Run(ctx)

	tel := &health.Telemetry{Provider: provider, Sink: a.sink}
	go tel.Run(ctx)
}

// HistoryDump returns the formatted conversation log.
func (a *Assistant) HistoryDump(ctx context.Context) (string, error) {
	return a.deps.History.Dump(ctx)
}

// StopSpeaking is the external interrupt surface (UI stop button, IPC).
func (a *Assistant) StopSpeaking() {
	a.deps.Speech.StopNow()
	a.emitStatus("idle")
}

// Run is the main listen/dispatch loop: blocking, one command at a time,
// alive until ctx ends or a shutdown intent is processed. Every failure
// inside an iteration is recovered; only the explicit shutdown exits.
func (a *Assistant) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		a.emitStatus("idle")
		a.emitStatus("listening")
		command, err := a.deps.Listener.Listen(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("listen failed", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(a.listenRetry):
			}
			continue
		}
		if command == "" {
			continue
		}

		a.emitStatus("processing")
		a.emitLog(fmt.Sprintf("Heard: '%s'", command), true)

		out := a.Process(ctx, command, false)
		if out.Shutdown {
			return
		}
	}
}
