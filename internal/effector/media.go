package effector

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"
)

const (
	shotPrefix  = "nimbus_screenshot_"
	photoPrefix = "nimbus_camera_"
)

// Screenshot captures the screen and returns the absolute file path.
func (d *Desktop) Screenshot() (string, error) {
	path := d.capturePath(shotPrefix)
	if out, err := exec.Command("scrot", "--overwrite", path).CombinedOutput(); err != nil {
		return "", fmt.Errorf("scrot: %w: %s", err, out)
	}
	return path, nil
}

// Photo captures a webcam frame and returns the absolute file path.
func (d *Desktop) Photo() (string, error) {
	path := d.capturePath(photoPrefix)
	// -S 2 skips warm-up frames so the sensor has settled.
	if out, err := exec.Command("fswebcam", "-S", "2", "--no-banner", path).CombinedOutput(); err != nil {
		return "", fmt.Errorf("fswebcam: %w: %s", err, out)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("camera produced no image: %w", err)
	}
	return path, nil
}

func (d *Desktop) capturePath(prefix string) string {
	name := prefix + time.Now().Format("20060102-150405") + ".png"
	return filepath.Join(d.ShotDir, name)
}

// Visuals lists all screenshots and camera captures, oldest first.
func (d *Desktop) Visuals() ([]string, error) {
	var all []string
	for _, pattern := range []string{shotPrefix + "*.png", photoPrefix + "*.png"} {
		matches, err := filepath.Glob(filepath.Join(d.ShotDir, pattern))
		if err != nil {
			return nil, err
		}
		all = append(all, matches...)
	}
	sortByMtime(all)
	return all, nil
}

// Screenshots lists only screen captures, oldest first.
func (d *Desktop) Screenshots() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(d.ShotDir, shotPrefix+"*.png"))
	if err != nil {
		return nil, err
	}
	sortByMtime(matches)
	return matches, nil
}

// Remove deletes one captured file.
func (d *Desktop) Remove(path string) error {
	return os.Remove(path)
}

func sortByMtime(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		fi, erri := os.Stat(paths[i])
		fj, errj := os.Stat(paths[j])
		if erri != nil || errj != nil {
			return paths[i] < paths[j]
		}
		return fi.ModTime().Before(fj.ModTime())
	})
}
