package countdown

import (
	"fmt"
	"time"

	"quickbidz-storefront/internal/models"

	"github.com/dustin/go-humanize"
)

const (
	dateLayout     = "January 2, 2006"
	dateTimeLayout = "January 2, 2006, 3:04 PM"
)

// FormatDate renders a backend timestamp as "March 4, 2025". Unparseable
// input is returned unchanged.
func FormatDate(raw string) string {
	t, ok := models.ParseTime(raw)
	if !ok {
		return raw
	}
	return t.Format(dateLayout)
}

// FormatDateTime renders "March 4, 2025, 5:07 PM".
func FormatDateTime(raw string) string {
	t, ok := models.ParseTime(raw)
	if !ok {
		return raw
	}
	return t.Format(dateTimeLayout)
}

// Relative renders t relative to now, e.g. "3 hours ago".
func Relative(raw string, now time.Time) string {
	t, ok := models.ParseTime(raw)
	if !ok {
		return raw
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatDuration renders the span between start and end as "3d 4h",
// "4h 5m" or "5m". Negative spans render as "0m".
func FormatDuration(start, end time.Time) string {
	d := end.Sub(start)
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int(d%(24*time.Hour)) / int(time.Hour)
	minutes := int(d%time.Hour) / int(time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
