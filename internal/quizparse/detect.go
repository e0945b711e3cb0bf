package quizparse

import (
	"github.com/vytor/quizforge/internal/errors"
)

const unrecognizedMessage = "unrecognized quiz document format; supported formats are: " +
	"(1) an explicit answer line after each question's options, e.g. \"Đáp án: B\" or \"Answer: B\"; " +
	"(2) the correct option written in bold, e.g. a bold \"B. 4\" line"

// Detect classifies a document by the cheapest signal first: an explicit
// answer line anywhere in the text wins over bold option formatting.
func Detect(rawText, htmlSrc string) (TemplateKind, error) {
	if answerLineRe.MatchString(rawText) {
		return ExplicitAnswer, nil
	}
	if boldOptionRe.MatchString(htmlSrc) {
		return BoldAnswer, nil
	}
	return "", errors.NewUnrecognizedTemplateError(unrecognizedMessage)
}
