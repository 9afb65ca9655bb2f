package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"path/filepath"
	"strings"
	"time"

	"nimbus/internal/ai"
	"nimbus/internal/health"
	"nimbus/internal/history"
	"nimbus/internal/intent"
	"nimbus/pkg/attach"
)

const fallbackReply = "I am not sure how to respond to that."

// Process resolves one command and dispatches it. silent suppresses spoken
// replies for remote transports while keeping logs and history intact.
// The outermost recover keeps a misbehaving effector from killing the loop.
func (a *Assistant) Process(ctx context.Context, command string, silent bool) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("dispatch panicked", "command", command, "panic", r)
			out = Outcome{Text: "An error occurred while processing your command."}
			a.say(silent, out.Text)
		}
	}()

	command = strings.TrimSpace(command)
	if command == "" {
		return Outcome{}
	}

	// A fresh command always preempts whatever is being spoken.
	a.deps.Speech.StopNow()

	in := a.resolver.Resolve(command)
	a.emitLog(fmt.Sprintf("Identified intent: %s", in.Action), false)

	out = a.dispatch(ctx, in, silent)

	if err := a.recordTurn(ctx, command, out.Text); err != nil {
		log.Warn("history append failed", "err", err)
	}
	return out
}

func (a *Assistant) recordTurn(ctx context.Context, command, reply string) error {
	text, _ := attach.Split(reply)
	if text == "" {
		text = reply
	}
	return a.deps.History.Append(ctx, history.Entry{
		Timestamp: time.Now(),
		User:      command,
		Assistant: text,
	})
}

// say routes reply text to the speech queue unless the call is silent.
func (a *Assistant) say(silent bool, text string) {
	if silent || text == "" {
		return
	}
	a.deps.Speech.Enqueue(text)
}

func (a *Assistant) dispatch(ctx context.Context, in intent.Intent, silent bool) Outcome {
	switch in.Action {
	case intent.ActionSystemStats:
		return a.doStats(ctx, silent)
	case intent.ActionScreenshot:
		return a.doScreenshot(in.Sub, silent)
	case intent.ActionCamera:
		return a.doCamera(silent)
	case intent.ActionUplink:
		return a.doUplink(ctx, silent)
	case intent.ActionWeb:
		return a.doWeb(ctx, in, silent)
	case intent.ActionApp:
		return a.doAgentic(ctx, "launch "+in.Name, silent)
	case intent.ActionSystem:
		return a.doSystem(ctx, in.Sub, silent)
	case intent.ActionBrightness:
		return a.doBrightness(in.Level, silent)
	case intent.ActionTerminal, intent.ActionAgentic:
		return a.doAgentic(ctx, in.Prompt, silent)
	case intent.ActionVolume:
		return a.doVolume(in.Sub, silent)
	case intent.ActionFile:
		return a.doFile(ctx, in, silent)
	case intent.ActionAskAI:
		return a.doAskAI(ctx, in.Prompt, silent)
	default:
		text := in.Response
		if text == "" {
			text = fallbackReply
		}
		a.say(silent, text)
		return Outcome{Text: text}
	}
}

func (a *Assistant) doStats(ctx context.Context, silent bool) Outcome {
	line := health.StatusLine(a.deps.Health.Collect(ctx))
	a.say(silent, line)
	return Outcome{Text: line}
}

func (a *Assistant) doScreenshot(sub string, silent bool) Outcome {
	switch sub {
	case intent.ScreenshotDelLatest:
		shots, err := a.deps.Media.Screenshots()
		if err != nil || len(shots) == 0 {
			a.say(silent, "No screenshots found to delete.")
			return Outcome{Text: "No screenshots found to delete."}
		}
		latest := shots[len(shots)-1]
		if err := a.deps.Media.Remove(latest); err != nil {
			log.Error("screenshot delete failed", "path", latest, "err", err)
			a.say(silent, "I could not delete the file.")
			return Outcome{Text: "I could not delete the file."}
		}
		a.say(silent, "Deletion confirmed.")
		return Outcome{Text: fmt.Sprintf("Deleted %s.", filepath.Base(latest))}

	case intent.ScreenshotDelAll:
		shots, err := a.deps.Media.Screenshots()
		if err != nil || len(shots) == 0 {
			a.say(silent, "No screenshots found to delete.")
			return Outcome{Text: "No screenshots found to delete."}
		}
		removed := 0
		for _, shot := range shots {
			if err := a.deps.Media.Remove(shot); err != nil {
				log.Warn("screenshot delete failed", "path", shot, "err", err)
				continue
			}
			a.emitLog(fmt.Sprintf("Removed %s", filepath.Base(shot)), false)
			removed++
		}
		text := fmt.Sprintf("Purged %d screenshots.", removed)
		a.say(silent, text)
		return Outcome{Text: text}

	default:
		a.say(silent, "Capturing visual data.")
		path, err := a.deps.Media.Screenshot()
		if err != nil {
			log.Error("screenshot failed", "err", err)
			a.say(silent, "I missed the shot.")
			return Outcome{Text: "Screenshot failed."}
		}
		return Outcome{Text: attach.Join("Screenshot taken.", path)}
	}
}

func (a *Assistant) doCamera(silent bool) Outcome {
	a.say(silent, "Accessing optical sensors.")
	path, err := a.deps.Media.Photo()
	if err != nil {
		log.Error("camera capture failed", "err", err)
		a.say(silent, "The camera did not respond.")
		return Outcome{Text: "Camera failed."}
	}
	return Outcome{Text: attach.Join("Photo captured.", path)}
}

func (a *Assistant) doUplink(ctx context.Context, silent bool) Outcome {
	if a.deps.Photos == nil || !a.deps.Photos.Configured() {
		a.say(silent, "The uplink channel is not configured.")
		return Outcome{Text: "Uplink not configured."}
	}
	visuals, err := a.deps.Media.Visuals()
	if err != nil || len(visuals) == 0 {
		a.say(silent, "No visuals found to send.")
		return Outcome{Text: "No visuals found."}
	}
	latest := visuals[len(visuals)-1]
	a.say(silent, "Transmitting visual data to your secure device.")
	if err := a.deps.Photos.SendPhoto(ctx, latest, "Visual uplink from Nimbus."); err != nil {
		log.Error("uplink send failed", "path", latest, "err", err)
		a.say(silent, "The transmission failed.")
		return Outcome{Text: "Uplink failed."}
	}
	return Outcome{Text: fmt.Sprintf("Sent %s.", filepath.Base(latest))}
}

func (a *Assistant) doWeb(ctx context.Context, in intent.Intent, silent bool) Outcome {
	if in.Sub == intent.WebScrape {
		a.say(silent, "Retrieving intel.")
		report, err := a.deps.Web.Scrape(ctx, in.URL)
		if err != nil {
			log.Error("scrape failed", "url", in.URL, "err", err)
			a.say(silent, "I could not reach that page.")
			return Outcome{Text: "Scrape failed."}
		}
		a.say(silent, report)
		return Outcome{Text: report}
	}

	if in.Query == "" {
		a.say(silent, "What should I search for?")
		return Outcome{Text: "Empty search query."}
	}
	a.say(silent, fmt.Sprintf("Initiating web protocol for %s.", in.Query))
	if err := a.deps.Web.Search(in.Query); err != nil {
		log.Error("web search failed", "query", in.Query, "err", err)
		a.say(silent, "I could not open the browser.")
		return Outcome{Text: "Search failed."}
	}
	return Outcome{Text: fmt.Sprintf("Searching for %s.", in.Query)}
}

func (a *Assistant) doSystem(ctx context.Context, sub string, silent bool) Outcome {
	switch sub {
	case intent.SystemShutdown:
		a.say(silent, "Powering down. Goodbye.")
		return Outcome{Text: "Powering down. Goodbye.", Shutdown: true}

	case intent.SystemHealth:
		report := health.Report(a.deps.Health.Collect(ctx))
		a.say(silent, report)
		return Outcome{Text: report}

	case intent.SystemGestureOn:
		if a.deps.Gesture == nil {
			a.say(silent, "Gesture control is unavailable.")
			return Outcome{Text: "Gesture control is unavailable."}
		}
		if err := a.deps.Gesture.Start(); err != nil {
			log.Error("gesture start failed", "err", err)
			a.say(silent, "Gesture control failed to start.")
			return Outcome{Text: "Gesture control failed to start."}
		}
		a.say(silent, "Gesture control engaged.")
		return Outcome{Text: "Gesture control engaged."}

	case intent.SystemGestureOff:
		if a.deps.Gesture == nil {
			a.say(silent, "Gesture control is unavailable.")
			return Outcome{Text: "Gesture control is unavailable."}
		}
		if err := a.deps.Gesture.Stop(); err != nil {
			log.Warn("gesture stop failed", "err", err)
		}
		a.say(silent, "Gesture control disengaged.")
		return Outcome{Text: "Gesture control disengaged."}

	default:
		a.say(silent, fallbackReply)
		return Outcome{Text: fallbackReply}
	}
}

func (a *Assistant) doBrightness(level int, silent bool) Outcome {
	if err := a.deps.System.Brightness(level); err != nil {
		log.Error("brightness change failed", "level", level, "err", err)
		a.say(silent, "I could not adjust the display.")
		return Outcome{Text: "Brightness change failed."}
	}
	text := fmt.Sprintf("Display brightness set to %d percent.", level)
	a.say(silent, text)
	return Outcome{Text: text}
}

func (a *Assistant) doVolume(direction string, silent bool) Outcome {
	if err := a.deps.System.Volume(direction); err != nil {
		log.Error("volume change failed", "direction", direction, "err", err)
		a.say(silent, "I could not adjust the audio.")
		return Outcome{Text: "Volume change failed."}
	}
	var text string
	switch direction {
	case intent.VolumeUp:
		text = "Volume raised."
	case intent.VolumeDown:
		text = "Volume lowered."
	default:
		text = "Audio output toggled."
	}
	a.say(silent, text)
	return Outcome{Text: text}
}

func (a *Assistant) doFile(ctx context.Context, in intent.Intent, silent bool) Outcome {
	switch in.Sub {
	case intent.FileCreateFolder:
		path, err := a.deps.Files.CreateFolder(in.Name)
		if err != nil {
			log.Error("create folder failed", "target", in.Name, "err", err)
			a.say(silent, "I could not create the folder.")
			return Outcome{Text: "Folder creation failed."}
		}
		a.setLastCreated(path)
		text := fmt.Sprintf("Folder %s created.", filepath.Base(path))
		a.say(silent, text)
		return Outcome{Text: text}

	case intent.FileCreateFile:
		path, err := a.deps.Files.CreateFile(in.Name)
		if err != nil {
			log.Error("create file failed", "target", in.Name, "err", err)
			a.say(silent, "I could not create the file.")
			return Outcome{Text: "File creation failed."}
		}
		a.setLastCreated(path)
		text := fmt.Sprintf("File %s created.", filepath.Base(path))
		a.say(silent, text)
		return Outcome{Text: text}

	case intent.FileList:
		listing, err := a.deps.Files.List(in.Name)
		if err != nil {
			log.Error("list failed", "target", in.Name, "err", err)
			a.say(silent, "I could not read that directory.")
			return Outcome{Text: "Listing failed."}
		}
		a.say(silent, listing)
		return Outcome{Text: listing}

	case intent.FileOpenLatest:
		last := a.getLastCreated()
		if last == "" {
			a.say(silent, "I have not created anything recently.")
			return Outcome{Text: "Nothing created recently."}
		}
		return a.doAgentic(ctx, fmt.Sprintf("open the file manager at %s", last), silent)

	default:
		a.say(silent, fallbackReply)
		return Outcome{Text: fallbackReply}
	}
}

func (a *Assistant) doAgentic(ctx context.Context, goal string, silent bool) Outcome {
	a.say(silent, "Engaging autonomous mode.")
	term := a.deps.Agent.Run(ctx, goal, 0)
	a.say(silent, term.Message)
	return Outcome{Text: term.Message}
}

func (a *Assistant) doAskAI(ctx context.Context, prompt string, silent bool) Outcome {
	reply, err := a.deps.AI.Ask(ctx, ai.Request{Prompt: prompt, WithHistory: true})
	if err != nil {
		if !errors.Is(err, ai.ErrUnreachable) {
			log.Error("model request failed", "err", err)
		}
		reply = ai.Degraded
	}
	a.say(silent, reply)
	return Outcome{Text: reply}
}

func (a *Assistant) setLastCreated(path string) {
	a.mu.Lock()
	a.lastCreated = path
	a.mu.Unlock()
}

func (a *Assistant) getLastCreated() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastCreated
}
