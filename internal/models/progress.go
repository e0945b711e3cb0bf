package models

import "time"

// AutoSaveSnapshot is the ephemeral in-progress state written by the client.
type AutoSaveSnapshot struct {
	AttemptID            string          `json:"attemptId"`
	CurrentQuestionIndex int             `json:"currentQuestionIndex"`
	Answers              map[int64]int64 `json:"answers"`
	TimeSpent            int             `json:"timeSpent"`
	FeedbackHistory      map[int64]bool  `json:"feedbackHistory,omitempty"`
	Timestamp            time.Time       `json:"timestamp"`
}

type UserProgress struct {
	UserID       int64      `json:"user_id"`
	XP           int        `json:"xp"`
	Level        int        `json:"level"`
	Streak       int        `json:"streak"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}

type LeaderboardEntry struct {
	UserID        int64     `json:"user_id"`
	PeriodStart   time.Time `json:"period_start"`
	TotalScore    int       `json:"total_score"`
	AttemptsCount int       `json:"attempts_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Leaderboard struct {
	PeriodStart time.Time          `json:"period_start"`
	PeriodEnd   time.Time          `json:"period_end"`
	Entries     []LeaderboardEntry `json:"entries"`
}
