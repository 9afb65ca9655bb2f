package effector

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// DeviceInfo returns a short OS description used for planner context and
// the startup log.
func DeviceInfo() string {
	info := fmt.Sprintf("OS: %s/%s", runtime.GOOS, runtime.GOARCH)
	out, err := exec.Command("sh", "-c", "cat /etc/*release 2>/dev/null | grep PRETTY_NAME").Output()
	if err != nil {
		return info
	}
	if line := strings.TrimSpace(string(out)); line != "" {
		info += "\nDistro: " + line
	}
	return info
}
