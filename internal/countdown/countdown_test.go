package countdown

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRemaining(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want string
	}{
		{name: "one_second", end: now.Add(time.Second), want: "00:00:01"},
		{name: "sub_second_rounds_down", end: now.Add(900 * time.Millisecond), want: "00:00:00"},
		{name: "mixed", end: now.Add(2*time.Hour + 3*time.Minute + 4*time.Second), want: "02:03:04"},
		{name: "beyond_a_day", end: now.Add(49 * time.Hour), want: "49:00:00"},
		{name: "exactly_now", end: now, want: EndedLabel},
		{name: "zero_time", end: time.Time{}, want: EndedLabel},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Remaining(tc.end, now))
		})
	}
}

func TestRemaining_PastNeverNegative(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	for _, back := range []time.Duration{time.Nanosecond, time.Second, 59 * time.Minute, 1000 * time.Hour, 50 * 365 * 24 * time.Hour} {
		label := Remaining(now.Add(-back), now)
		require.Equal(t, EndedLabel, label)
		require.False(t, strings.Contains(label, "-"))
	}
}

func TestRemainingFromString(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "rfc3339", raw: "2025-03-04T13:30:00Z", want: "01:30:00"},
		{name: "rfc3339_millis", raw: "2025-03-04T12:00:10.500Z", want: "00:00:10"},
		{name: "offset", raw: "2025-03-04T14:00:00+01:00", want: "01:00:00"},
		{name: "past", raw: "2025-03-01T00:00:00Z", want: EndedLabel},
		{name: "malformed", raw: "next tuesday", want: EndedLabel},
		{name: "empty", raw: "", want: EndedLabel},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, RemainingFromString(tc.raw, now))
		})
	}
}

func TestIsEnded(t *testing.T) {
	t.Parallel()
	require.True(t, IsEnded(EndedLabel))
	require.True(t, IsEnded("auction ended"))
	require.False(t, IsEnded("00:00:01"))
}

// fakeClock advances by step every time it is read.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func TestTicker_RunsUntilEnded(t *testing.T) {
	start := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start, step: time.Second}

	var labels []string
	Ticker{Interval: time.Millisecond, Now: clock.Now}.Run(context.Background(), start.Add(3*time.Second), func(label string) {
		labels = append(labels, label)
	})

	require.Equal(t, []string{"00:00:03", "00:00:02", "00:00:01", EndedLabel}, labels)
}

func TestTicker_AlreadyEnded(t *testing.T) {
	var labels []string
	Ticker{}.Run(context.Background(), time.Now().Add(-time.Minute), func(label string) {
		labels = append(labels, label)
	})
	require.Equal(t, []string{EndedLabel}, labels)
}

func TestTicker_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	emitted := make(chan string, 16)
	go func() {
		defer close(done)
		Ticker{Interval: 5 * time.Millisecond}.Run(ctx, time.Now().Add(time.Hour), func(label string) {
			select {
			case emitted <- label:
			default:
			}
		})
	}()

	first := <-emitted
	require.NotEqual(t, EndedLabel, first)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ticker did not stop after cancel")
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{name: "days", d: 3*24*time.Hour + 4*time.Hour + 30*time.Minute, want: "3d 4h"},
		{name: "hours", d: 4*time.Hour + 5*time.Minute, want: "4h 5m"},
		{name: "minutes", d: 5*time.Minute + 59*time.Second, want: "5m"},
		{name: "negative", d: -time.Hour, want: "0m"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, FormatDuration(start, start.Add(tc.d)))
		})
	}
}

func TestDateFormatting(t *testing.T) {
	t.Parallel()

	require.Equal(t, "March 4, 2025", FormatDate("2025-03-04T17:07:00Z"))
	require.Equal(t, "March 4, 2025, 5:07 PM", FormatDateTime("2025-03-04T17:07:00Z"))
	require.Equal(t, "garbage", FormatDate("garbage"))

	now := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	require.Equal(t, "3 hours ago", Relative("2025-03-04T09:00:00Z", now))
	require.Equal(t, "2 days from now", Relative("2025-03-06T12:00:00Z", now))
}
