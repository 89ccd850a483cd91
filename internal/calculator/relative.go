package calculator

import (
	"fmt"
	"time"
)

// FormatRelativeTime renders how long ago lastUpdated was, using whole seconds,
// minutes or hours (floored). A zero lastUpdated renders as "Never".
func FormatRelativeTime(lastUpdated, now time.Time) string {
	if lastUpdated.IsZero() {
		return "Never"
	}
	diff := int64(now.Sub(lastUpdated) / time.Second)
	if diff < 0 {
		diff = 0
	}
	switch {
	case diff < 60:
		return fmt.Sprintf("%ds ago", diff)
	case diff < 3600:
		return fmt.Sprintf("%dm ago", diff/60)
	default:
		return fmt.Sprintf("%dh ago", diff/3600)
	}
}
