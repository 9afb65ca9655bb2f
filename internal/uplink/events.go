// Package uplink carries outbound traffic to external collaborators: the
// event hub the web UI listens on, and the messaging channel photos and
// text are pushed to.
package uplink

import (
	"encoding/json"
	log "log/slog"
	"time"

	ws "github.com/gorilla/websocket"
)

// frame is one event on the wire.
type frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// EventSink pushes events to a websocket hub. Emit never blocks: frames go
// through a buffered channel and are dropped when the writer falls behind.
// The writer reconnects forever with a fixed backoff.
type EventSink struct {
	url    string
	reconn time.Duration
	frames chan frame
	done   chan struct{}
}

func NewEventSink(url string, reconn time.Duration) *EventSink {
	if reconn <= 0 {
		reconn = 3 * time.Second
	}
	s := &EventSink{
		url:    url,
		reconn: reconn,
		frames: make(chan frame, 64),
		done:   make(chan struct{}),
	}
	go s.writer()
	return s
}

// Emit queues one event, dropping it if the buffer is full. The core must
// never block on delivery.
func (s *EventSink) Emit(event string, payload map[string]any) {
	select {
	case s.frames <- frame{Event: event, Data: payload}:
	default:
		log.Debug("event dropped, hub writer behind", "event", event)
	}
}

func (s *EventSink) Close() {
	close(s.done)
}

func (s *EventSink) writer() {
	var conn *ws.Conn

	dial := func() *ws.Conn {
		for {
			c, _, err := ws.DefaultDialer.Dial(s.url, nil)
			if err == nil {
				log.Info("connected to event hub", "url", s.url)
				return c
			}
			log.Debug("event hub dial failed", "err", err)
			select {
			case <-s.done:
				return nil
			case <-time.After(s.reconn):
			}
		}
	}

	for {
		select {
		case <-s.done:
			if conn != nil {
				_ = conn.Close()
			}
			return
		case f := <-s.frames:
			payload, err := json.Marshal(f)
			if err != nil {
				log.Warn("event marshal failed", "event", f.Event, "err", err)
				continue
			}
			if conn == nil {
				if conn = dial(); conn == nil {
					return
				}
			}
			if err := conn.WriteMessage(ws.TextMessage, payload); err != nil {
				log.Warn("event write failed, reconnecting", "err", err)
				_ = conn.Close()
				conn = nil
			}
		}
	}
}
