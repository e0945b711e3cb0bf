package models

import "time"

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptPaused     AttemptStatus = "PAUSED"
	AttemptCompleted  AttemptStatus = "COMPLETED"
)

// Valid reports whether s is a known status.
func (s AttemptStatus) Valid() bool {
	switch s {
	case AttemptInProgress, AttemptPaused, AttemptCompleted:
		return true
	}
	return false
}

// ConfigSnapshot is frozen at attempt start and never mutated afterwards.
type ConfigSnapshot struct {
	QuestionCount    *int `json:"questionCount"`
	ShuffleQuestions bool `json:"shuffleQuestions"`
	ShuffleOptions   bool `json:"shuffleOptions"`
	ReviewMode       bool `json:"reviewMode"`
}

// StartConfig is the caller-supplied attempt configuration; nil fields take defaults.
type StartConfig struct {
	QuestionCount    *int
	ShuffleQuestions *bool
	ShuffleOptions   *bool
	ReviewMode       *bool
}

// Snapshot applies defaults: shuffleQuestions=true, shuffleOptions=false, reviewMode=false.
func (c StartConfig) Snapshot() ConfigSnapshot {
	snap := ConfigSnapshot{
		QuestionCount:    c.QuestionCount,
		ShuffleQuestions: true,
	}
	if c.ShuffleQuestions != nil {
		snap.ShuffleQuestions = *c.ShuffleQuestions
	}
	if c.ShuffleOptions != nil {
		snap.ShuffleOptions = *c.ShuffleOptions
	}
	if c.ReviewMode != nil {
		snap.ReviewMode = *c.ReviewMode
	}
	return snap
}

type QuizAttempt struct {
	ID                  string         `json:"id"`
	UserID              int64          `json:"user_id"`
	QuizID              int64          `json:"quiz_id"`
	Status              AttemptStatus  `json:"status"`
	TotalQuestions      int            `json:"total_questions"`
	SelectedQuestionIDs []int64        `json:"selected_question_ids"`
	Config              ConfigSnapshot `json:"config_snapshot"`
	StartedAt           time.Time      `json:"started_at"`
	PausedAt            *time.Time     `json:"paused_at,omitempty"`
	ResumedAt           *time.Time     `json:"resumed_at,omitempty"`
	CompletedAt         *time.Time     `json:"completed_at,omitempty"`
	TimeSpent           int            `json:"time_spent"`
	CorrectAnswers      *int           `json:"correct_answers,omitempty"`
	Score               *int           `json:"score,omitempty"`
	TabSwitchCount      int            `json:"tab_switch_count"`
	SuspiciousActivity  bool           `json:"suspicious_activity"`
}

// HasQuestion reports whether questionID was selected for this attempt.
func (a QuizAttempt) HasQuestion(questionID int64) bool {
	for _, id := range a.SelectedQuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

type AttemptAnswer struct {
	AttemptID        string    `json:"attempt_id"`
	QuestionID       int64     `json:"question_id"`
	SelectedOptionID int64     `json:"selected_option_id"`
	IsCorrect        bool      `json:"is_correct"`
	AnsweredAt       time.Time `json:"answered_at"`
}

type AttemptFilter struct {
	UserID int64
	QuizID int64
	Status AttemptStatus
	Limit  int
	Offset int
}

type AttemptPage struct {
	Items []QuizAttempt `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// CompletedAttempt carries the fields written when an attempt is submitted.
type CompletedAttempt struct {
	ID             string
	TimeSpent      int
	CorrectAnswers int
	Score          int
	CompletedAt    time.Time
}

type AttemptListParams struct {
	QuizID int64
	Status AttemptStatus
	Page   int
	Limit  int
}

type StartResult struct {
	Attempt   *QuizAttempt `json:"attempt"`
	IsResumed bool         `json:"isResumed"`
}

// AnswerFeedback is returned for every answer regardless of review mode.
type AnswerFeedback struct {
	QuestionID       int64  `json:"question_id"`
	SelectedOptionID int64  `json:"selected_option_id"`
	IsCorrect        bool   `json:"is_correct"`
	CorrectOption    Option `json:"correct_option"`
	Explanation      string `json:"explanation,omitempty"`
}

type TabSwitchResult struct {
	TabSwitchCount     int  `json:"tab_switch_count"`
	SuspiciousActivity bool `json:"suspicious_activity"`
}

type SubmitResult struct {
	Attempt  *QuizAttempt  `json:"attempt"`
	XPGained int           `json:"xp_gained"`
	Progress *UserProgress `json:"progress,omitempty"`
}

// OptionView hides IsCorrect (nil) until the attempt is completed.
type OptionView struct {
	ID        int64  `json:"id"`
	Label     string `json:"label"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

type QuestionView struct {
	ID               int64        `json:"id"`
	Text             string       `json:"text"`
	Explanation      string       `json:"explanation,omitempty"`
	Options          []OptionView `json:"options"`
	SelectedOptionID *int64       `json:"selected_option_id,omitempty"`
	IsCorrect        *bool        `json:"is_correct,omitempty"`
}

// AttemptView is an attempt as presented to its owner, in presentation order.
type AttemptView struct {
	Attempt   *QuizAttempt   `json:"attempt"`
	Questions []QuestionView `json:"questions"`
	Answered  int            `json:"answered"`
}

type ReviewItem struct {
	QuestionID     int64    `json:"question_id"`
	Text           string   `json:"text"`
	Explanation    string   `json:"explanation,omitempty"`
	SelectedOption Option   `json:"selected_option"`
	CorrectOption  Option   `json:"correct_option"`
	IsCorrect      bool     `json:"is_correct"`
	Options        []Option `json:"options"`
}

type AttemptReview struct {
	Attempt *QuizAttempt `json:"attempt"`
	Items   []ReviewItem `json:"items"`
}
