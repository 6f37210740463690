package rating

import (
	"fmt"
	"strings"
	"time"
)

type PeriodLength string

const (
	Weekly  PeriodLength = "weekly"
	Monthly PeriodLength = "monthly"
)

func ParsePeriodLength(v string) (PeriodLength, error) {
	switch PeriodLength(strings.ToLower(strings.TrimSpace(v))) {
	case "", Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	default:
		return "", fmt.Errorf("unknown rating period %q", v)
	}
}

type Period struct {
	Key   string
	Start time.Time
	End   time.Time
}

// PeriodFor returns the period containing t. Weekly periods are ISO weeks
// starting Monday 00:00 UTC and keyed like 2026-W42; monthly ones are keyed
// like 2026-10.
func PeriodFor(t time.Time, length PeriodLength) Period {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if length == Monthly {
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Period{
			Key:   start.Format("2006-01"),
			Start: start,
			End:   start.AddDate(0, 1, 0),
		}
	}
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	year, week := start.ISOWeek()
	return Period{
		Key:   fmt.Sprintf("%04d-W%02d", year, week),
		Start: start,
		End:   start.AddDate(0, 0, 7),
	}
}

// RetentionCutoff is the start of the oldest period kept when retaining keep
// periods, the current one included.
func RetentionCutoff(now time.Time, length PeriodLength, keep int) time.Time {
	if keep < 1 {
		keep = 1
	}
	cur := PeriodFor(now, length)
	if length == Monthly {
		return cur.Start.AddDate(0, -(keep - 1), 0)
	}
	return cur.Start.AddDate(0, 0, -7*(keep-1))
}
