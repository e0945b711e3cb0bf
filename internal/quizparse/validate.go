package quizparse

import (
	stderrors "errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vytor/quizforge/internal/errors"
)

const previewLength = 50

// ErrNoQuestions means the document contained nothing question-shaped.
var ErrNoQuestions = stderrors.New("no questions found in document")

// Validate splits drafts into valid questions and per-question errors.
// A report with zero valid questions is still a successful result; only an
// empty draft list fails.
func Validate(drafts []ParsedQuestion) (*ParseReport, error) {
	if len(drafts) == 0 {
		return nil, errors.NewParseFailureError(ErrNoQuestions)
	}

	report := &ParseReport{
		Questions:   make([]ParsedQuestion, 0, len(drafts)),
		TotalParsed: len(drafts),
		Errors:      []QuestionError{},
	}
	for _, d := range drafts {
		reasons := violations(d)
		if len(reasons) == 0 {
			report.Questions = append(report.Questions, d)
			continue
		}
		report.Errors = append(report.Errors, QuestionError{
			QuestionOrder:       d.Order,
			QuestionTextPreview: preview(d.Text),
			Reasons:             strings.Join(reasons, ", "),
		})
	}
	report.TotalValid = len(report.Questions)
	return report, nil
}

func violations(d ParsedQuestion) []string {
	var reasons []string
	if strings.TrimSpace(d.Text) == "" {
		reasons = append(reasons, "missing question text")
	}
	if len(d.Options) < 2 {
		reasons = append(reasons, fmt.Sprintf("insufficient options (need at least 2, got %d)", len(d.Options)))
	}
	if d.CorrectAnswer == "" {
		reasons = append(reasons, "missing correct answer")
	} else if !d.HasOption(d.CorrectAnswer) {
		reasons = append(reasons, fmt.Sprintf("correct answer %s not found among options", d.CorrectAnswer))
	}
	return reasons
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLength]) + "..."
}
