package health

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/sensors"
)

// Snapshot is an ephemeral view of device health, recomputed per call.
// Fields are pointers because battery and temperature are absent on
// unsupported hardware; consumers must tolerate missing values.
type Snapshot struct {
	Battery  *float64
	Plugged  *bool
	TimeLeft string
	Temp     *float64
	CPU      *float64
	Memory   *float64
	Disk     *float64
	PID      int
}

// sensor keys that plausibly report a core temperature, in preference order.
var coreTempKeys = []string{"coretemp", "package_id_0", "cpu_thermal", "k10temp"}

// Provider polls device health metrics on demand.
type Provider struct {
	diskPath string
}

func NewProvider() *Provider {
	return &Provider{diskPath: "/"}
}

// Collect gathers a fresh snapshot. Individual probe failures leave the
// corresponding field nil rather than failing the whole call.
func (p *Provider) Collect(ctx context.Context) Snapshot {
	s := Snapshot{PID: os.Getpid()}

	if bats, err := battery.GetAll(); err == nil && len(bats) > 0 {
		b := bats[0]
		if b.Full > 0 {
			pct := b.Current / b.Full * 100
			s.Battery = &pct
		}
		state := b.State.String()
		plugged := state == "Charging" || state == "Full"
		s.Plugged = &plugged
		if !plugged && b.ChargeRate > 0 {
			hoursLeft := b.Current / b.ChargeRate
			secs := int(hoursLeft * 3600)
			s.TimeLeft = fmt.Sprintf("%d hours and %d minutes", secs/3600, (secs%3600)/60)
		}
	}

	if temps, err := sensors.TemperaturesWithContext(ctx); err == nil {
		for _, key := range coreTempKeys {
			for _, t := range temps {
				if strings.Contains(t.SensorKey, key) && t.Temperature > 0 {
					v := t.Temperature
					s.Temp = &v
					break
				}
			}
			if s.Temp != nil {
				break
			}
		}
	}

	if pcts, err := cpu.PercentWithContext(ctx, 100*time.Millisecond, false); err == nil && len(pcts) > 0 {
		s.CPU = &pcts[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		v := vm.UsedPercent
		s.Memory = &v
	}
	if du, err := disk.UsageWithContext(ctx, p.diskPath); err == nil {
		v := du.UsedPercent
		s.Disk = &v
	}

	return s
}

// Fields flattens the snapshot for event payloads, skipping absent metrics.
func (s Snapshot) Fields() map[string]any {
	out := map[string]any{"pid": s.PID}
	if s.Battery != nil {
		out["battery"] = *s.Battery
	}
	if s.Plugged != nil {
		out["plugged"] = *s.Plugged
	}
	if s.TimeLeft != "" {
		out["time_left"] = s.TimeLeft
	}
	if s.Temp != nil {
		out["temp"] = *s.Temp
	}
	if s.CPU != nil {
		out["cpu"] = *s.CPU
	}
	if s.Memory != nil {
		out["memory"] = *s.Memory
	}
	if s.Disk != nil {
		out["disk"] = *s.Disk
	}
	return out
}

// Report summarizes the snapshot: explicit issues when critical thresholds
// are breached, otherwise a short all-clear.
func Report(s Snapshot) string {
	var issues []string
	if s.Battery != nil && *s.Battery < 30 && (s.Plugged == nil || !*s.Plugged) {
		issues = append(issues, fmt.Sprintf("Battery level critical at %.0f percent.", *s.Battery))
		if s.TimeLeft != "" {
			issues = append(issues, fmt.Sprintf("Estimated time remaining: %s.", s.TimeLeft))
		}
	}
	if s.Temp != nil && *s.Temp > 80 {
		issues = append(issues, fmt.Sprintf("Core temperature high at %.0f degrees.", *s.Temp))
	}
	if s.CPU != nil && *s.CPU > 90 {
		issues = append(issues, fmt.Sprintf("CPU usage critical at %.0f percent.", *s.CPU))
	}
	if s.Memory != nil && *s.Memory > 90 {
		issues = append(issues, fmt.Sprintf("Memory usage critical at %.0f percent.", *s.Memory))
	}

	if len(issues) > 0 {
		return "Warning. " + strings.Join(issues, " ")
	}
	return fmt.Sprintf("Systems optimal. Battery at %s percent. CPU at %s percent.",
		fmtMetric(s.Battery), fmtMetric(s.CPU))
}

func fmtMetric(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.0f", *v)
}

// StatusLine is the spoken answer to a direct stats query.
func StatusLine(s Snapshot) string {
	temp := "stable"
	if s.Temp != nil {
		temp = fmt.Sprintf("%.0f", *s.Temp)
	}
	return fmt.Sprintf(
		"Systems are operating within normal parameters. Battery at %s percent. CPU load is at %s percent. Thermal readings are %s degrees.",
		fmtMetric(s.Battery), fmtMetric(s.CPU), temp)
}
