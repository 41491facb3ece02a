package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateID returns a new random identifier.
func GenerateID() string {
	return uuid.New().String()
}

// FormatTime renders a timestamp for display, blank for the zero value.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// FormatDuration renders an optional duration, "-" when absent.
func FormatDuration(d *time.Duration) string {
	if d == nil {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}

// Truncate shortens s to at most n runes, appending an ellipsis when
// anything was cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}
