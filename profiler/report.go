package profiler

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ReportStats writes sum as indented JSON to path.
func ReportStats(path string, sum Summary) error {
	jsonStr, err := json.MarshalIndent(sum, "", " ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if err := os.WriteFile(path, jsonStr, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}

	return nil
}

// WallTime measures named intervals of real time.
type WallTime struct {
	startTimes map[string]time.Time
}

// NewWallTime returns a WallTime with no running interval.
func NewWallTime() *WallTime {
	return &WallTime{
		startTimes: make(map[string]time.Time),
	}
}

// Start begins the interval named flag.
func (w *WallTime) Start(flag string) {
	if _, found := w.startTimes[flag]; found {
		panic("one flag can only have one walltime")
	}
	w.startTimes[flag] = time.Now()
}

// Stop ends the interval named flag and returns its length in seconds.
func (w *WallTime) Stop(flag string) float64 {
	startTime, found := w.startTimes[flag]
	if !found {
		panic("walltime must be started before stopped")
	}
	delete(w.startTimes, flag)

	return time.Since(startTime).Seconds()
}
