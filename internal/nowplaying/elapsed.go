package nowplaying

import (
	"strconv"
	"time"
)

// Elapsed renders how long ago playedAt was, relative to now: "3h ago",
// "12m ago" or "just now". Minutes are dropped once a full hour has passed.
// A zero playedAt yields an empty string.
func Elapsed(playedAt, now time.Time) string {
	if playedAt.IsZero() {
		return ""
	}

	secs := int64(now.Sub(playedAt) / time.Second)
	if hours := secs / 3600; hours >= 1 {
		return strconv.FormatInt(hours, 10) + "h ago"
	}
	if minutes := (secs % 3600) / 60; minutes >= 1 {
		return strconv.FormatInt(minutes, 10) + "m ago"
	}
	return "just now"
}
