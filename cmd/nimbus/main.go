package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"nimbus/internal/agent"
	"nimbus/internal/ai"
	"nimbus/internal/assistant"
	"nimbus/internal/effector"
	"nimbus/internal/events"
	"nimbus/internal/gesture"
	"nimbus/internal/health"
	"nimbus/internal/history"
	"nimbus/internal/ipc"
	"nimbus/internal/listen"
	"nimbus/internal/speech"
	"nimbus/internal/term"
	"nimbus/internal/uplink"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// historyTurns adapts the persisted store to the model-context replay shape.
type historyTurns struct {
	store *history.Store
}

func (h historyTurns) Recent(ctx context.Context, n int) ([]ai.Turn, error) {
	entries, err := h.store.Recent(ctx, n)
	if err != nil {
		return nil, err
	}
	turns := make([]ai.Turn, len(entries))
	for i, e := range entries {
		turns[i] = ai.Turn{User: e.User, Assistant: e.Assistant}
	}
	return turns, nil
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address for model egress")
	hubURL := cli.StringP("hub", "u", "", "Websocket hub url for UI events")
	socket := cli.String("socket", ipc.SocketPath, "Control socket path")
	dbPath := cli.String("db", "nimbus_history.db", "Conversation database path")
	baseURL := cli.String("base-url", "http://localhost:11434/v1", "Model endpoint")
	model := cli.StringP("model", "m", "llama3.2:1b", "Model name")
	whisperModel := cli.String("whisper", "third_party/whisper.cpp/models/ggml-base.en.bin", "Whisper model path")
	piperModel := cli.String("piper", "voices/en_US-lessac-medium.onnx", "Piper voice model path")
	chimePath := cli.String("chime", "assets/chime.mp3", "Wake chime mp3, empty disables")
	shotDir := cli.String("shots", ".", "Directory for screenshots and photos")
	dumpHistory := cli.Bool("dump-history", false, "Print the conversation log and exit")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up", "host", effector.DeviceInfo())

	godotenv.Load(*envFile)

	store, err := history.Open(*dbPath)
	if err != nil {
		log.Error("Failed to open history database", "path", *dbPath, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	if *dumpHistory {
		dump, err := store.Dump(context.Background())
		if err != nil {
			log.Error("Failed to dump history", "err", err)
			os.Exit(1)
		}
		fmt.Println(dump)
		return
	}

	brain, err := ai.New(ai.Config{
		BaseURL:   *baseURL,
		APIKey:    os.Getenv("OPENAI_API_KEY"),
		Model:     *model,
		ProxyAddr: *proxyAddr,
	}, historyTurns{store})
	if err != nil {
		log.Error("Failed to build model client", "err", err)
		os.Exit(1)
	}

	log.Debug("Loaded model client")

	var sink events.Sink = events.Discard
	if *hubURL != "" {
		hub := uplink.NewEventSink(*hubURL, 0)
		defer hub.Close()
		sink = hub
	}

	queue := speech.NewQueue(speech.DefaultRenderer(*piperModel), func(speaking bool) {
		status := "idle"
		if speaking {
			status = "speaking"
		}
		sink.Emit(events.StatusUpdate, map[string]any{"status": status})
	})
	queue.Start()
	defer queue.Close()

	log.Debug("Loaded speech queue")

	listener, err := listen.New(listen.Config{
		ModelPath: *whisperModel,
		ChimePath: *chimePath,
		DebugDir:  ".",
	})
	if err != nil {
		log.Error("Failed to init voice input", "err", err)
		os.Exit(1)
	}
	defer listener.Close()

	log.Debug("Loaded voice input")

	desktop := effector.NewDesktop(*shotDir)
	runner := term.NewRunner()
	provider := health.NewProvider()

	exec := &agent.Executor{
		Planner: &agent.AIPlanner{AI: brain},
		Term:    runner,
		GUI:     desktop,
		Speak:   func(text string) { queue.Enqueue(text) },
	}

	pusher := uplink.NewPusher(os.Getenv("UPLINK_BASE_URL"), os.Getenv("UPLINK_CHAT_ID"))

	deps := assistant.Deps{
		Speech:   queue,
		AI:       brain,
		Agent:    exec,
		History:  store,
		Health:   provider,
		System:   desktop,
		Media:    desktop,
		Files:    desktop,
		Web:      desktop,
		Photos:   pusher,
		Listener: listener,
		Sink:     sink,
	}
	if script := os.Getenv("GESTURE_COMMAND"); script != "" {
		deps.Gesture = gesture.NewController([]string{"sh", "-c", script})
	}

	a := assistant.New(deps)
	exec.Emit = func(message string) {
		sink.Emit(events.NewLog, map[string]any{"message": message, "type": "system"})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ipc.StartServer(*socket, func(msg ipc.ControlMessage) {
		switch msg.Cmd {
		case ipc.CmdStop:
			a.StopSpeaking()
		case ipc.CmdCommand:
			go a.Process(ctx, msg.Arg, false)
		case ipc.CmdSay:
			a.Announce(msg.Arg)
		case ipc.CmdTrigger:
			// The daemon listens continuously; a trigger just silences the
			// current reply so the microphone opens sooner.
			a.StopSpeaking()
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
		}
	}); err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}

	log.Info("Boot up - successful")

	a.Startup(ctx)
	a.StartMonitors(ctx, provider)
	a.Run(ctx)

	log.Info("Shutting down")

	// Let the farewell drain before the queue closes.
	deadline := time.After(5 * time.Second)
	for queue.Speaking() || len(queue.Pending()) > 0 {
		select {
		case <-deadline:
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
}
