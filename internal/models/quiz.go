package models

import "time"

type Quiz struct {
	ID            int64      `json:"id"`
	OwnerID       int64      `json:"owner_id"`
	Title         string     `json:"title"`
	Template      string     `json:"template"`
	QuestionCount int        `json:"question_count"`
	CreatedAt     time.Time  `json:"created_at"`
	Questions     []Question `json:"questions,omitempty"`
}

type Question struct {
	ID          int64    `json:"id"`
	QuizID      int64    `json:"quiz_id"`
	OrderIndex  int      `json:"order_index"`
	Text        string   `json:"text"`
	Explanation string   `json:"explanation,omitempty"`
	Options     []Option `json:"options"`
}

// CorrectOption returns the option flagged correct, or nil.
func (q Question) CorrectOption() *Option {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

// Option looks up an option of this question by id.
func (q Question) Option(id int64) *Option {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i]
		}
	}
	return nil
}

type Option struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Label      string `json:"label"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
}

type QuizFilter struct {
	OwnerID int64
	Limit   int
	Offset  int
}

// NewQuiz is the transactional create payload built from a parse report.
type NewQuiz struct {
	OwnerID   int64
	Title     string
	Template  string
	Questions []NewQuestion
}

type NewQuestion struct {
	OrderIndex  int
	Text        string
	Explanation string
	Options     []NewOption
}

type NewOption struct {
	Label     string
	Text      string
	IsCorrect bool
}

type QuizPage struct {
	Items []Quiz `json:"items"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}
