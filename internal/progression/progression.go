// Package progression computes attempt scores and the XP, level and streak
// they earn a user.
package progression

import (
	"time"

	"github.com/vytor/quizforge/internal/models"
)

const (
	xpPerLevel = 100
	day        = 24 * time.Hour
)

// Score is round(100 * correct / total) with halves rounded up. A quiz
// without questions scores 0.
func Score(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// XPForScore is floor(score/10).
func XPForScore(score int) int {
	if score <= 0 {
		return 0
	}
	return score / 10
}

// LevelForXP is floor(xp/100)+1.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/xpPerLevel + 1
}

// Apply credits a completed attempt to p. Streak days are UTC calendar days:
// the streak grows when the previous activity was exactly one day earlier,
// stays on the same day, and restarts at 1 after a longer gap or on first activity.
func Apply(p models.UserProgress, score int, now time.Time) models.UserProgress {
	p.XP += XPForScore(score)
	p.Level = LevelForXP(p.XP)

	switch {
	case p.LastActiveAt == nil:
		p.Streak = 1
	default:
		switch gap := daysBetween(*p.LastActiveAt, now); {
		case gap <= 0:
			if p.Streak < 1 {
				p.Streak = 1
			}
		case gap == 1:
			p.Streak++
		default:
			p.Streak = 1
		}
	}

	at := now.UTC()
	p.LastActiveAt = &at
	return p
}

func daysBetween(from, to time.Time) int {
	a := from.UTC().Truncate(day)
	b := to.UTC().Truncate(day)
	return int(b.Sub(a) / day)
}
