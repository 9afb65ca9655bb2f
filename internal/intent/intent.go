package intent

// Action discriminates what the user wants done. Exactly one action is set
// per Intent; anything unparseable degrades to ActionChat, never to nothing.
type Action int

const (
	ActionChat Action = iota
	ActionSystemStats
	ActionScreenshot
	ActionCamera
	ActionUplink
	ActionWeb
	ActionApp
	ActionSystem
	ActionBrightness
	ActionTerminal
	ActionVolume
	ActionFile
	ActionAskAI
	ActionAgentic
)

var actionNames = map[Action]string{
	ActionChat:        "chat",
	ActionSystemStats: "system_stats",
	ActionScreenshot:  "screenshot",
	ActionCamera:      "camera",
	ActionUplink:      "uplink",
	ActionWeb:         "web",
	ActionApp:         "app",
	ActionSystem:      "system",
	ActionBrightness:  "brightness",
	ActionTerminal:    "terminal",
	ActionVolume:      "volume",
	ActionFile:        "file",
	ActionAskAI:       "ask_ai",
	ActionAgentic:     "agentic",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "chat"
}

// Sub-action values used by more than one site.
const (
	ScreenshotTake      = "take"
	ScreenshotDelLatest = "delete_latest"
	ScreenshotDelAll    = "delete_all"
	CameraCapture       = "capture"
	UplinkLatestShot    = "send_latest"
	WebSearch           = "search"
	WebScrape           = "scrape"
	SystemShutdown      = "shutdown"
	SystemHealth        = "health"
	SystemGestureOn     = "gesture_on"
	SystemGestureOff    = "gesture_off"
	VolumeUp            = "up"
	VolumeDown          = "down"
	VolumeMute          = "mute"
	FileCreateFolder    = "create_folder"
	FileCreateFile      = "create_file"
	FileList            = "list"
	FileOpenLatest      = "open_latest"
)

// Intent is the resolved form of a command. Action selects the variant; the
// remaining fields carry that variant's parameters and are zero otherwise.
type Intent struct {
	Action Action

	// Sub refines the action: a screenshot sub-action, a volume direction,
	// a system operation, a web mode, or a file operation.
	Sub string

	Query    string // web search query
	URL      string // web scrape target
	Level    int    // brightness percent
	Name     string // app name or file target
	Prompt   string // ask_ai prompt, terminal instruction, or agentic goal
	Response string // canned chat reply
}

// Chat builds the safe default Intent.
func Chat(response string) Intent {
	return Intent{Action: ActionChat, Response: response}
}
