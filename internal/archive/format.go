package archive

import (
	"fmt"
	"time"
)

// FormatWhen renders t relative to now for display: "Today at 15:04",
// "Yesterday at 15:04", "3 days ago", or a plain date after a week.
func FormatWhen(t, now time.Time) string {
	t = t.In(now.Location())
	days := int(now.Sub(t).Abs() / (24 * time.Hour))
	switch {
	case days == 0:
		return "Today at " + t.Format("15:04")
	case days == 1:
		return "Yesterday at " + t.Format("15:04")
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	}
	return t.Format("2006-01-02")
}
