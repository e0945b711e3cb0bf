package progression_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizforge/internal/models"
	"github.com/vytor/quizforge/internal/progression"
)

func TestScore(t *testing.T) {
	tests := []struct {
		correct, total, want int
	}{
		{7, 10, 70},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds up
		{0, 5, 0},
		{5, 5, 100},
		{0, 0, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, progression.Score(tt.correct, tt.total), "%d/%d", tt.correct, tt.total)
	}
}

func TestXPAndLevel(t *testing.T) {
	assert.Equal(t, 7, progression.XPForScore(70))
	assert.Equal(t, 9, progression.XPForScore(99))
	assert.Equal(t, 0, progression.XPForScore(0))

	assert.Equal(t, 1, progression.LevelForXP(0))
	assert.Equal(t, 1, progression.LevelForXP(99))
	assert.Equal(t, 2, progression.LevelForXP(100))
	assert.Equal(t, 4, progression.LevelForXP(350))
}

func ptr(t time.Time) *time.Time { return &t }

func TestApply_FirstActivity(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

	got := progression.Apply(models.UserProgress{UserID: 1}, 80, now)

	assert.Equal(t, 8, got.XP)
	assert.Equal(t, 1, got.Level)
	assert.Equal(t, 1, got.Streak)
	require.NotNil(t, got.LastActiveAt)
	assert.True(t, got.LastActiveAt.Equal(now))
}

func TestApply_Streak(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		lastActive time.Time
		streak     int
		want       int
	}{
		{name: "previous calendar day", lastActive: time.Date(2024, 3, 9, 23, 50, 0, 0, time.UTC), streak: 4, want: 5},
		{name: "same day", lastActive: time.Date(2024, 3, 10, 0, 1, 0, 0, time.UTC), streak: 4, want: 4},
		{name: "two day gap", lastActive: time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC), streak: 4, want: 1},
		{name: "same day with empty streak", lastActive: now, streak: 0, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.UserProgress{Streak: tt.streak, LastActiveAt: ptr(tt.lastActive)}

			got := progression.Apply(p, 50, now)

			assert.Equal(t, tt.want, got.Streak)
		})
	}
}

func TestApply_LevelUp(t *testing.T) {
	p := models.UserProgress{XP: 95, Level: 1}

	got := progression.Apply(p, 100, time.Now())

	assert.Equal(t, 105, got.XP)
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, 95, p.XP, "input must not be mutated")
}
