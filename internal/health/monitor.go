package health

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"nimbus/internal/events"
)

// Alert thresholds are stricter than Report's: the monitor speaks only on
// genuinely critical readings.
const (
	alertBattery = 25
	alertTemp    = 75
	alertCPU     = 98
	alertMemory  = 95
)

// Monitor periodically checks health and announces breaches, then backs off
// for several minutes to avoid repeat-alert spam.
type Monitor struct {
	Provider *Provider
	Announce func(text string)              // spoken+logged alert path
	Notify   func(title, body string) error // desktop notification
	Interval time.Duration                  // default 1m
	Backoff  time.Duration                  // default 5m after an alert
}

func (m *Monitor) Run(ctx context.Context) {
	interval := m.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	backoff := m.Backoff
	if backoff <= 0 {
		backoff = 5 * time.Minute
	}

	for {
		wait := interval
		if msg := alertMessage(m.Provider.Collect(ctx)); msg != "" {
			if m.Notify != nil {
				if err := m.Notify("System Alert", msg); err != nil {
					log.Warn("desktop notification failed", "err", err)
				}
			}
			if m.Announce != nil {
				m.Announce("Alert. " + msg)
			}
			wait = backoff
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func alertMessage(s Snapshot) string {
	var parts []string
	if s.Battery != nil && *s.Battery < alertBattery && (s.Plugged == nil || !*s.Plugged) {
		parts = append(parts, fmt.Sprintf("Critical power level: %.0f percent.", *s.Battery))
	}
	if s.Temp != nil && *s.Temp > alertTemp {
		parts = append(parts, fmt.Sprintf("Caution: System overheating at %.0f degrees.", *s.Temp))
	}
	if s.CPU != nil && *s.CPU > alertCPU {
		parts = append(parts, fmt.Sprintf("System stress detected: %.0f percent.", *s.CPU))
	}
	if s.Memory != nil && *s.Memory > alertMemory {
		parts = append(parts, fmt.Sprintf("Memory resources depleted: %.0f percent.", *s.Memory))
	}
	return strings.Join(parts, " ")
}

// Telemetry pushes snapshots to the event sink at a fixed interval for
// real-time visualization.
type Telemetry struct {
	Provider *Provider
	Sink     events.Sink
	Interval time.Duration // default 5s
}

func (t *Telemetry) Run(ctx context.Context) {
	interval := t.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sink.Emit(events.SystemStats, t.Provider.Collect(ctx).Fields())
		}
	}
}
