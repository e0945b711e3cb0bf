package quizparse

import "slices"

// state is the parser accumulator. Every transition returns a new value;
// slices are copied before mutation so earlier states stay valid.
type state struct {
	drafts []ParsedQuestion
	cur    ParsedQuestion
	open   bool
	// boldTaken records that the current question already accepted a bold option.
	boldTaken bool
}

func (s state) flush() state {
	if s.open {
		s.drafts = append(slices.Clip(s.drafts), s.cur)
	}
	s.cur = ParsedQuestion{}
	s.open = false
	s.boldTaken = false
	return s
}

func (s state) openQuestion(order int, text string) state {
	s = s.flush()
	s.cur = ParsedQuestion{Order: order, Text: text}
	s.open = true
	return s
}

// withOption appends an option, or replaces the text of an existing option
// with the same label in place.
func (s state) withOption(label, text string) state {
	if !s.open {
		return s
	}
	opts := slices.Clone(s.cur.Options)
	replaced := false
	for i := range opts {
		if opts[i].Label == label {
			opts[i].Text = text
			replaced = true
			break
		}
	}
	if !replaced {
		opts = append(opts, ParsedOption{Label: label, Text: text})
	}
	s.cur.Options = opts
	return s
}

func (s state) withAnswer(label string) state {
	if !s.open {
		return s
	}
	s.cur.CorrectAnswer = label
	return s
}

// withBoldAnswer marks label correct only for the first bold option of the question.
func (s state) withBoldAnswer(label string) state {
	if !s.open || s.boldTaken {
		return s
	}
	s.cur.CorrectAnswer = label
	s.boldTaken = true
	return s
}

func (s state) withExplanation(text string) state {
	if !s.open {
		return s
	}
	s.cur.Explanation = text
	return s
}

func (s state) finish() []ParsedQuestion {
	return s.flush().drafts
}
