package assistant

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimbus/internal/agent"
	"nimbus/internal/ai"
	"nimbus/internal/health"
	"nimbus/internal/history"
	"nimbus/internal/intent"
)

func uplinkIntent() intent.Intent {
	return intent.Intent{Action: intent.ActionUplink, Sub: intent.UplinkLatestShot}
}

type fakeSpeech struct {
	enqueued []string
	stops    int
}

func (f *fakeSpeech) Enqueue(text string) bool {
	f.enqueued = append(f.enqueued, text)
	return true
}
func (f *fakeSpeech) StopNow()       { f.stops++ }
func (f *fakeSpeech) Speaking() bool { return false }

type fakeAI struct {
	reply string
	err   error
	reqs  []ai.Request
}

func (f *fakeAI) Ask(ctx context.Context, req ai.Request) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.reply, f.err
}

type fakeAgent struct {
	goals []string
	res   agent.Termination
}

func (f *fakeAgent) Run(ctx context.Context, goal string, maxSteps int) agent.Termination {
	f.goals = append(f.goals, goal)
	return f.res
}

type fakeHistory struct {
	entries []history.Entry
	dump    string
}

func (f *fakeHistory) Append(ctx context.Context, e history.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}
func (f *fakeHistory) Dump(ctx context.Context) (string, error) { return f.dump, nil }

type fakeHealth struct {
	snap health.Snapshot
}

func (f *fakeHealth) Collect(ctx context.Context) health.Snapshot { return f.snap }

type fakeSystem struct {
	volumes    []string
	brightness []int
	volumeErr  error
}

func (f *fakeSystem) Volume(direction string) error {
	f.volumes = append(f.volumes, direction)
	return f.volumeErr
}
func (f *fakeSystem) Brightness(percent int) error {
	f.brightness = append(f.brightness, percent)
	return nil
}
func (f *fakeSystem) Notify(title, body string) error { return nil }

type fakeMedia struct {
	shot    string
	shotErr error
	shots   []string
	removed []string
}

func (f *fakeMedia) Screenshot() (string, error)    { return f.shot, f.shotErr }
func (f *fakeMedia) Photo() (string, error)         { return f.shot, f.shotErr }
func (f *fakeMedia) Screenshots() ([]string, error) { return f.shots, nil }
func (f *fakeMedia) Visuals() ([]string, error)     { return f.shots, nil }
func (f *fakeMedia) Remove(path string) error {
	f.removed = append(f.removed, path)
	return nil
}

type fakeFiles struct {
	created []string
}

func (f *fakeFiles) CreateFolder(target string) (string, error) {
	path := "/home/user/" + target
	f.created = append(f.created, path)
	return path, nil
}
func (f *fakeFiles) CreateFile(target string) (string, error) {
	path := "/home/user/" + target
	f.created = append(f.created, path)
	return path, nil
}
func (f *fakeFiles) List(target string) (string, error) { return "Contents: notes.txt.", nil }

type fakeWeb struct {
	queries []string
}

func (f *fakeWeb) Search(query string) error {
	f.queries = append(f.queries, query)
	return nil
}
func (f *fakeWeb) Scrape(ctx context.Context, url string) (string, error) {
	return "Report Title: Example.", nil
}

type fakePusher struct {
	sent []string
}

func (f *fakePusher) Configured() bool { return true }
func (f *fakePusher) SendPhoto(ctx context.Context, path, caption string) error {
	f.sent = append(f.sent, path)
	return nil
}

type fixture struct {
	speech  *fakeSpeech
	ai      *fakeAI
	agent   *fakeAgent
	history *fakeHistory
	system  *fakeSystem
	media   *fakeMedia
	files   *fakeFiles
	web     *fakeWeb
	pusher  *fakePusher
	asst    *Assistant
}

func newFixture() *fixture {
	f := &fixture{
		speech:  &fakeSpeech{},
		ai:      &fakeAI{reply: "Certainly."},
		agent:   &fakeAgent{res: agent.Termination{Kind: agent.Completed, Message: "Task completed."}},
		history: &fakeHistory{},
		system:  &fakeSystem{},
		media:   &fakeMedia{},
		files:   &fakeFiles{},
		web:     &fakeWeb{},
		pusher:  &fakePusher{},
	}
	f.asst = New(Deps{
		Speech:  f.speech,
		AI:      f.ai,
		Agent:   f.agent,
		History: f.history,
		Health:  &fakeHealth{},
		System:  f.system,
		Media:   f.media,
		Files:   f.files,
		Web:     f.web,
		Photos:  f.pusher,
	})
	return f
}

func TestProcessVolume(t *testing.T) {
	f := newFixture()

	out := f.asst.Process(context.Background(), "volume up please", false)

	assert.Equal(t, []string{"up"}, f.system.volumes)
	assert.Equal(t, "Volume raised.", out.Text)
	assert.False(t, out.Shutdown)
	assert.Contains(t, f.speech.enqueued, "Volume raised.")
}

func TestProcessPreemptsSpeech(t *testing.T) {
	f := newFixture()

	f.asst.Process(context.Background(), "volume up", false)
	assert.GreaterOrEqual(t, f.speech.stops, 1, "a new command must silence the previous reply")
}

func TestProcessSilentSuppressesSpeech(t *testing.T) {
	f := newFixture()

	out := f.asst.Process(context.Background(), "volume up", true)

	assert.Equal(t, "Volume raised.", out.Text)
	assert.Empty(t, f.speech.enqueued)
	require.Len(t, f.history.entries, 1, "silent calls still record history")
}

func TestProcessScreenshotAttachesPath(t *testing.T) {
	f := newFixture()
	shot := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(shot, []byte("png"), 0o644))
	f.media.shot = shot

	out := f.asst.Process(context.Background(), "take a screenshot", false)

	assert.Contains(t, out.Text, "Screenshot taken.")
	assert.Contains(t, out.Text, shot)
}

func TestProcessScreenshotFailure(t *testing.T) {
	f := newFixture()
	f.media.shotErr = errors.New("scrot missing")

	out := f.asst.Process(context.Background(), "take a screenshot", false)

	assert.Equal(t, "Screenshot failed.", out.Text)
	assert.Contains(t, f.speech.enqueued, "I missed the shot.")
}

func TestProcessShutdown(t *testing.T) {
	f := newFixture()

	out := f.asst.Process(context.Background(), "power down", false)

	assert.True(t, out.Shutdown)
	assert.Contains(t, f.speech.enqueued, "Powering down. Goodbye.")
	require.Len(t, f.history.entries, 1, "the farewell is recorded before exit")
	assert.Equal(t, "power down", f.history.entries[0].User)
}

func TestProcessAskAI(t *testing.T) {
	f := newFixture()
	f.ai.reply = "Dragons it is."

	out := f.asst.Process(context.Background(), "tell me a story about dragons", false)

	assert.Equal(t, "Dragons it is.", out.Text)
	require.Len(t, f.ai.reqs, 1)
	assert.True(t, f.ai.reqs[0].WithHistory, "conversation replies carry recent context")
}

func TestProcessAskAIDegraded(t *testing.T) {
	f := newFixture()
	f.ai.err = ai.ErrUnreachable

	out := f.asst.Process(context.Background(), "tell me a story about dragons", false)

	assert.Equal(t, ai.Degraded, out.Text)
	assert.Contains(t, f.speech.enqueued, ai.Degraded)
}

func TestProcessAppGoesAgentic(t *testing.T) {
	f := newFixture()

	out := f.asst.Process(context.Background(), "open firefox", false)

	require.Len(t, f.agent.goals, 1)
	assert.Equal(t, "launch firefox", f.agent.goals[0])
	assert.Equal(t, "Task completed.", out.Text)
}

func TestProcessWebSearch(t *testing.T) {
	f := newFixture()

	out := f.asst.Process(context.Background(), "search golang generics", false)

	assert.Equal(t, []string{"golang generics"}, f.web.queries)
	assert.Contains(t, out.Text, "golang generics")
}

func TestProcessStopWord(t *testing.T) {
	f := newFixture()

	out := f.asst.Process(context.Background(), "stop", false)

	assert.Equal(t, "Standing by.", out.Text)
	// Once from the resolver interrupt rule, once from command preemption.
	assert.GreaterOrEqual(t, f.speech.stops, 2)
}

func TestProcessEmptyCommand(t *testing.T) {
	f := newFixture()

	out := f.asst.Process(context.Background(), "   ", false)

	assert.Empty(t, out.Text)
	assert.Empty(t, f.speech.enqueued)
	assert.Empty(t, f.history.entries)
}

func TestProcessRecordsHistoryWithoutMarker(t *testing.T) {
	f := newFixture()
	shot := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(shot, []byte("png"), 0o644))
	f.media.shot = shot

	f.asst.Process(context.Background(), "take a screenshot", false)

	require.Len(t, f.history.entries, 1)
	assert.Equal(t, "Screenshot taken.", f.history.entries[0].Assistant)
}

func TestUplinkSendsLatestVisual(t *testing.T) {
	f := newFixture()
	f.media.shots = []string{"/tmp/a.png", "/tmp/b.png"}

	out := f.asst.dispatch(context.Background(), uplinkIntent(), false)

	assert.Equal(t, []string{"/tmp/b.png"}, f.pusher.sent)
	assert.Contains(t, out.Text, "b.png")
}

type failingListener struct {
	mu    sync.Mutex
	calls int
}

func (l *failingListener) Listen(ctx context.Context) (string, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return "", errors.New("no audio device")
}

func (l *failingListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func TestRunPacesListenFailures(t *testing.T) {
	f := newFixture()
	listener := &failingListener{}
	f.asst.deps.Listener = listener
	f.asst.listenRetry = 40 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		f.asst.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}

	// 200ms of runtime at a 40ms retry pace allows only a handful of
	// attempts; a tight spin would log hundreds.
	assert.LessOrEqual(t, listener.count(), 10)
	assert.GreaterOrEqual(t, listener.count(), 1)
}

func TestUplinkNoVisuals(t *testing.T) {
	f := newFixture()

	out := f.asst.dispatch(context.Background(), uplinkIntent(), false)

	assert.Equal(t, "No visuals found.", out.Text)
	assert.Empty(t, f.pusher.sent)
}
