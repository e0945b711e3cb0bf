package quizparse

import (
	"fmt"

	"github.com/vytor/quizforge/internal/errors"
)

// ParserFunc converts a normalized document into draft questions.
type ParserFunc func(doc Document) []ParsedQuestion

var parsers = map[TemplateKind]ParserFunc{
	ExplicitAnswer: func(doc Document) []ParsedQuestion { return ParseExplicit(doc.Text) },
	BoldAnswer:     func(doc Document) []ParsedQuestion { return ParseBold(doc.HTML) },
}

// Result is the outcome of a full parse.
type Result struct {
	Template TemplateKind `json:"template"`
	Report   *ParseReport `json:"report"`
}

// Parse runs detection, the template parser and validation. It is
// deterministic: the same document always yields the same report.
func Parse(doc Document) (res *Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res = nil
			err = errors.NewParseFailureError(fmt.Errorf("parser panic: %v", rec))
		}
	}()

	kind, err := Detect(doc.Text, doc.HTML)
	if err != nil {
		return nil, err
	}
	parse, ok := parsers[kind]
	if !ok {
		return nil, errors.NewParseFailureError(fmt.Errorf("no parser registered for template %s", kind))
	}
	report, err := Validate(parse(doc))
	if err != nil {
		return nil, err
	}
	return &Result{Template: kind, Report: report}, nil
}
