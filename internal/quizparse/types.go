// Package quizparse turns normalized quiz documents into validated questions.
//
// A document is first classified into a TemplateKind by cheap textual signals,
// then handed to the matching parser, and the resulting drafts are validated
// into a ParseReport. Per-question problems are reported as data, never as errors.
package quizparse

type TemplateKind string

const (
	// ExplicitAnswer documents carry an "Đáp án: B" / "Answer: B" line per question.
	ExplicitAnswer TemplateKind = "EXPLICIT_ANSWER"
	// BoldAnswer documents mark the correct option by bold formatting.
	BoldAnswer TemplateKind = "BOLD_ANSWER"
)

// ParsedOption is one labelled choice of a draft question.
type ParsedOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// ParsedQuestion is a draft produced by a template parser. CorrectAnswer is
// empty when no answer was marked.
type ParsedQuestion struct {
	Order         int            `json:"order"`
	Text          string         `json:"text"`
	Explanation   string         `json:"explanation,omitempty"`
	Options       []ParsedOption `json:"options"`
	CorrectAnswer string         `json:"correctAnswer,omitempty"`
}

// HasOption reports whether label is among the question's options.
func (q ParsedQuestion) HasOption(label string) bool {
	for _, o := range q.Options {
		if o.Label == label {
			return true
		}
	}
	return false
}

type QuestionError struct {
	QuestionOrder       int    `json:"questionOrder"`
	QuestionTextPreview string `json:"questionTextPreview"`
	Reasons             string `json:"reasons"`
}

// ParseReport holds the valid questions plus one error entry per rejected draft.
type ParseReport struct {
	Questions   []ParsedQuestion `json:"questions"`
	TotalParsed int              `json:"totalParsed"`
	TotalValid  int              `json:"totalValid"`
	Errors      []QuestionError  `json:"errors"`
}

// Document is the normalized input: a plain-text view and an HTML view that keeps formatting.
type Document struct {
	Text string
	HTML string
}
