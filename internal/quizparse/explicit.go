package quizparse

import "strings"

// ParseExplicit parses the explicit-answer template line by line.
// Lines that match no pattern are skipped; the order of each draft comes
// from the number in its question marker.
func ParseExplicit(rawText string) []ParsedQuestion {
	var s state
	for _, line := range splitLines(rawText) {
		s = s.applyExplicit(classify(line))
	}
	return s.finish()
}

func (s state) applyExplicit(c classified) state {
	switch c.kind {
	case lineQuestion:
		return s.openQuestion(c.order, c.text)
	case lineOption:
		return s.withOption(c.label, c.text)
	case lineAnswer:
		return s.withAnswer(c.label)
	case lineExplanation:
		return s.withExplanation(c.text)
	default:
		return s
	}
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
