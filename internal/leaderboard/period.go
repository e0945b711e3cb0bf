// Package leaderboard defines the ranking periods user scores are aggregated over.
package leaderboard

import "time"

const week = 7 * 24 * time.Hour

// Period is the half-open interval [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// WeekPeriod returns the UTC week containing now, starting Monday 00:00.
func WeekPeriod(now time.Time) Period {
	now = now.UTC()
	offset := (int(now.Weekday()) + 6) % 7
	start := time.Date(now.Year(), now.Month(), now.Day()-offset, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.Add(week)}
}
