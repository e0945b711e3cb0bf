package quizparse

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// block is one paragraph-level chunk of the HTML view with tags stripped.
type block struct {
	text string
	bold bool
}

// ParseBold parses the bold-answer template. A block that contains bold
// formatting marks the option it introduces as correct; only the first such
// option per question is accepted, later bold options are ignored.
func ParseBold(htmlSrc string) []ParsedQuestion {
	var s state
	for _, b := range splitBlocks(htmlSrc) {
		s = s.applyBold(b)
	}
	return s.finish()
}

func (s state) applyBold(b block) state {
	c := classify(b.text)
	switch c.kind {
	case lineQuestion:
		return s.openQuestion(c.order, c.text)
	case lineOption:
		s = s.withOption(c.label, c.text)
		if b.bold {
			s = s.withBoldAnswer(c.label)
		}
		return s
	default:
		return s
	}
}

func isBlockBoundary(a atom.Atom) bool {
	switch a {
	case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Li, atom.Div, atom.Tr, atom.Br:
		return true
	}
	return false
}

func isBoldTag(a atom.Atom) bool {
	return a == atom.Strong || a == atom.B
}

// splitBlocks tokenizes src and cuts it at paragraph, heading, list item and
// line-break boundaries. A chunk is bold when a bold tag opens inside it or is
// still open when it starts.
func splitBlocks(src string) []block {
	z := html.NewTokenizer(strings.NewReader(src))
	var (
		blocks    []block
		buf       strings.Builder
		boldDepth int
		bold      bool
	)

	flush := func() {
		text := strings.Join(strings.Fields(buf.String()), " ")
		if text != "" {
			blocks = append(blocks, block{text: text, bold: bold})
		}
		buf.Reset()
		bold = boldDepth > 0
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			flush()
			return blocks
		case html.TextToken:
			buf.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if isBlockBoundary(a) {
				flush()
				continue
			}
			if isBoldTag(a) {
				boldDepth++
				bold = true
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if isBoldTag(a) && boldDepth > 0 {
				boldDepth--
			}
			if isBlockBoundary(a) {
				flush()
			}
		}
	}
}
