package speech

import (
	"context"
	log "log/slog"
	"sync"
	"time"
)

// Renderer turns text into audible speech, blocking until playback finishes
// or ctx is canceled. Cancelation must kill the underlying playback.
type Renderer interface {
	Speak(ctx context.Context, text string) error
}

// StatusFunc observes speaking-state transitions (idle <-> speaking).
type StatusFunc func(speaking bool)

// echoWindow suppresses a duplicate utterance arriving this soon after an
// identical one, so rapid-fire internal calls do not announce twice.
const echoWindow = 2 * time.Second

// idlePoll is how long the worker sleeps when the queue is empty.
const idlePoll = 100 * time.Millisecond

// Queue serializes all spoken output: producers append, one background
// worker pops and renders. StopNow clears the backlog and kills in-flight
// audio; a new command always has the right to silence the previous reply.
type Queue struct {
	mu       sync.Mutex
	pending  []string
	speaking bool
	cancel   context.CancelFunc // in-flight render, nil when idle
	lastText string
	lastAt   time.Time

	renderer Renderer
	onStatus StatusFunc
	now      func() time.Time

	done chan struct{}
	once sync.Once
}

func NewQueue(r Renderer, onStatus StatusFunc) *Queue {
	if onStatus == nil {
		onStatus = func(bool) {}
	}
	return &Queue{
		renderer: r,
		onStatus: onStatus,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start launches the single consumer goroutine.
func (q *Queue) Start() {
	go q.worker()
}

// Close stops the worker after the current utterance.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
}

// Enqueue appends text for speaking. Returns false when the anti-echo rule
// suppressed it (identical to the previous enqueue within the window).
func (q *Queue) Enqueue(text string) bool {
	if text == "" {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	if text == q.lastText && now.Sub(q.lastAt) < echoWindow {
		return false
	}
	q.lastText = text
	q.lastAt = now
	q.pending = append(q.pending, text)
	return true
}

// StopNow atomically clears the pending queue and terminates in-flight
// playback. Safe to call concurrently with an active render and idempotent
// when nothing is playing.
func (q *Queue) StopNow() {
	q.mu.Lock()
	q.pending = nil
	cancel := q.cancel
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Speaking reports whether an utterance is currently being rendered.
func (q *Queue) Speaking() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.speaking
}

// Pending returns a copy of the queued utterances, front first.
func (q *Queue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.pending...)
}

func (q *Queue) worker() {
	for {
		select {
		case <-q.done:
			return
		default:
		}

		text, ctx, ok := q.pop()
		if !ok {
			time.Sleep(idlePoll)
			continue
		}

		q.onStatus(true)
		if err := q.renderer.Speak(ctx, text); err != nil && ctx.Err() == nil {
			log.Error("speech render failed", "err", err)
		}
		q.finish()
		q.onStatus(false)
	}
}

// pop removes the front utterance and installs its cancelable context.
func (q *Queue) pop() (string, context.Context, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return "", nil, false
	}
	text := q.pending[0]
	q.pending = q.pending[1:]

	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.speaking = true
	return text, ctx, true
}

func (q *Queue) finish() {
	q.mu.Lock()
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	q.speaking = false
	q.mu.Unlock()
}
