package countdown

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quickbidz-storefront/internal/models"
)

// EndedLabel is the terminal state shown once an auction has closed.
const EndedLabel = "Auction ended"

// DefaultInterval is how often a running countdown re-renders.
const DefaultInterval = time.Second

// Remaining renders end-now as HH:MM:SS. Any non-positive remainder renders
// as EndedLabel, so negative digits are never produced. Hours are not
// wrapped at 24.
func Remaining(end, now time.Time) string {
	if end.IsZero() {
		return EndedLabel
	}
	diff := end.Sub(now)
	if diff <= 0 {
		return EndedLabel
	}

	total := int64(diff / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// RemainingFromString is Remaining for a raw backend timestamp. Malformed or
// empty input is treated as already ended.
func RemainingFromString(raw string, now time.Time) string {
	end, ok := models.ParseTime(raw)
	if !ok {
		return EndedLabel
	}
	return Remaining(end, now)
}

// IsEnded reports whether label is the terminal state.
func IsEnded(label string) bool {
	return strings.EqualFold(label, EndedLabel)
}

// Ticker drives a live countdown.
type Ticker struct {
	Interval time.Duration
	Now      func() time.Time
}

// Run emits the current label immediately and then once per interval until
// the terminal label has been emitted or ctx is done.
func (t Ticker) Run(ctx context.Context, end time.Time, emit func(label string)) {
	interval := t.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	now := t.Now
	if now == nil {
		now = time.Now
	}

	label := Remaining(end, now())
	emit(label)
	if IsEnded(label) {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			label = Remaining(end, now())
			emit(label)
			if IsEnded(label) {
				return
			}
		}
	}
}
