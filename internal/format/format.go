// Package format renders collector values for display.
package format

import "fmt"

const (
	secondsPerHour   = 3600
	secondsPerMinute = 60
)

// ElapsedTime renders seconds as H:MM:SS. Hours are not bounded or padded.
// Negative input is treated as 0.
func ElapsedTime(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / secondsPerHour
	minutes := (seconds / secondsPerMinute) % secondsPerMinute
	secs := seconds % secondsPerMinute
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
}

// Bytes renders a byte count with binary units, e.g. "1.5 GB".
func Bytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
