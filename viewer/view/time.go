package view

import (
	"fmt"
	"time"
)

const shortHashEdge = 6

// ShortenHash renders a hash as its first and last six characters. Hashes
// short enough to show whole are returned untouched.
func ShortenHash(hash string) string {
	if len(hash) <= shortHashEdge*2 {
		return hash
	}
	return fmt.Sprintf("%s...%s", hash[:shortHashEdge], hash[len(hash)-shortHashEdge:])
}

// RelativeTime renders how long ago ts was relative to now, in the coarsest
// unit that fits: seconds, then minutes, hours, days.
func RelativeTime(ts, now time.Time) string {
	seconds := int64(now.Sub(ts).Seconds())
	if seconds < 0 {
		seconds = 0
	}

	switch {
	case seconds < 60:
		return fmt.Sprintf("%d seconds ago", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%d minutes ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%d hours ago", seconds/3600)
	default:
		return fmt.Sprintf("%d days ago", seconds/86400)
	}
}
