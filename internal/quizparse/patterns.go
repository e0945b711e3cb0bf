package quizparse

import (
	"regexp"
	"strconv"
	"strings"
)

// Line patterns shared by both templates. Each is matched against a single
// trimmed line (explicit template) or a stripped block (bold template).
var (
	questionRe    = regexp.MustCompile(`(?i)^(?:câu\s*hỏi|câu|cau|question|q)\s*(\d+)\s*[.:)\-]\s*(.*)$`)
	optionRe      = regexp.MustCompile(`^([A-D])\s*[.:)]\s*(.+)$`)
	answerRe      = regexp.MustCompile(`(?i)^(?:đáp\s*án(?:\s*đúng)?|dap\s*an|correct\s*answer|answer|ans)\s*[:.\-=]\s*([A-D])\b`)
	explanationRe = regexp.MustCompile(`(?i)^(?:giải\s*thích|giai\s*thich|explanation|explain)\s*[:.\-]\s*(.+)$`)

	// Detection signals are searched across the whole document.
	answerLineRe = regexp.MustCompile(`(?im)^[ \t]*(?:đáp\s*án(?:\s*đúng)?|dap\s*an|correct\s*answer|answer|ans)\s*[:.\-=]\s*[A-D]\b`)
	boldOptionRe = regexp.MustCompile(`(?is)<(?:strong|b)(?:\s[^>]*)?>\s*(?:<[^>]+>\s*)*[A-D]\s*[.:)]`)
)

type lineKind int

const (
	lineOther lineKind = iota
	lineQuestion
	lineOption
	lineAnswer
	lineExplanation
)

// classified is the result of matching one line against the patterns in priority order.
type classified struct {
	kind  lineKind
	order int
	label string
	text  string
}

func classify(line string) classified {
	if m := questionRe.FindStringSubmatch(line); m != nil {
		order, err := strconv.Atoi(m[1])
		if err == nil {
			return classified{kind: lineQuestion, order: order, text: strings.TrimSpace(m[2])}
		}
	}
	if m := optionRe.FindStringSubmatch(line); m != nil {
		return classified{kind: lineOption, label: m[1], text: strings.TrimSpace(m[2])}
	}
	if m := answerRe.FindStringSubmatch(line); m != nil {
		return classified{kind: lineAnswer, label: strings.ToUpper(m[1])}
	}
	if m := explanationRe.FindStringSubmatch(line); m != nil {
		return classified{kind: lineExplanation, text: strings.TrimSpace(m[1])}
	}
	return classified{kind: lineOther}
}
