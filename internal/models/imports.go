package models

import (
	"time"

	"github.com/vytor/quizforge/internal/quizparse"
)

type ImportState string

const (
	ImportPending   ImportState = "PENDING"
	ImportCompleted ImportState = "COMPLETED"
	ImportFailed    ImportState = "FAILED"
)

// ImportRequest is an uploaded document waiting to be parsed into a quiz.
type ImportRequest struct {
	OwnerID  int64  `json:"owner_id"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Data     []byte `json:"-"`
}

// ImportStatus tracks an asynchronous import. Report is set once the document
// has been parsed, including when no question was valid.
type ImportStatus struct {
	JobID     string                 `json:"job_id"`
	OwnerID   int64                  `json:"owner_id"`
	State     ImportState            `json:"state"`
	QuizID    *int64                 `json:"quiz_id,omitempty"`
	Report    *quizparse.ParseReport `json:"report,omitempty"`
	ErrorCode string                 `json:"error_code,omitempty"`
	Error     string                 `json:"error,omitempty"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type ImportResult struct {
	Quiz     *Quiz                  `json:"quiz,omitempty"`
	Template quizparse.TemplateKind `json:"template"`
	Report   *quizparse.ParseReport `json:"report"`
}
