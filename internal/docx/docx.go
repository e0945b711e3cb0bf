// Package docx converts Word documents into the plain-text and HTML views the
// quiz parser consumes.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/vytor/quizforge/internal/errors"
	"github.com/vytor/quizforge/internal/quizparse"
)

const (
	documentPart = "word/document.xml"
	extension    = ".docx"
)

var (
	ErrNotArchive      = stderrors.New("file is not a docx archive")
	ErrMissingDocument = stderrors.New("docx document part not found")
	ErrNoContent       = stderrors.New("docx contains no text")
)

// CheckUpload rejects anything that is not a non-empty .docx within max bytes.
func CheckUpload(filename string, size, max int64) error {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != extension {
		return errors.NewInvalidInputError(fmt.Sprintf("unsupported file type %q, only %s files are accepted", ext, extension))
	}
	if size <= 0 {
		return errors.NewInvalidInputError("uploaded file is empty")
	}
	if max > 0 && size > max {
		return errors.NewInvalidInputError(fmt.Sprintf("file is %d bytes, maximum allowed is %d", size, max))
	}
	return nil
}

// Convert reads the main document part of a .docx archive.
func Convert(data []byte) (quizparse.Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return quizparse.Document{}, fmt.Errorf("%w: %v", ErrNotArchive, err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return quizparse.Document{}, ErrMissingDocument
	}

	rc, err := part.Open()
	if err != nil {
		return quizparse.Document{}, fmt.Errorf("open %s: %w", documentPart, err)
	}
	defer rc.Close()

	paragraphs, err := readParagraphs(rc)
	if err != nil {
		return quizparse.Document{}, err
	}
	return render(paragraphs)
}

// piece is a contiguous run fragment; br marks a line break inside a paragraph.
type piece struct {
	text string
	bold bool
	br   bool
}

type paragraph struct {
	heading int
	pieces  []piece
}

// runBold tracks w:b and w:bCs of the current run. w:bCs only applies when
// w:b is absent.
type runBold struct {
	b, bSet     bool
	bCs, bCsSet bool
}

func (rb runBold) on() bool {
	if rb.bSet {
		return rb.b
	}
	return rb.bCsSet && rb.bCs
}

func readParagraphs(r io.Reader) ([]paragraph, error) {
	dec := xml.NewDecoder(r)
	var (
		out    []paragraph
		cur    *paragraph
		inRun  bool
		inText bool
		bold   runBold
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "txbxContent":
				// Text box paragraphs nest inside a run and are repeated in the
				// VML fallback, so they are left out of the body text.
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("decode %s: %w", documentPart, err)
				}
			case "p":
				cur = &paragraph{}
			case "pStyle":
				if cur != nil {
					cur.heading = headingLevel(attr(t, "val"))
				}
			case "r":
				inRun = true
				bold = runBold{}
			case "b":
				if inRun {
					bold.b, bold.bSet = toggleOn(attr(t, "val")), true
				}
			case "bCs":
				if inRun {
					bold.bCs, bold.bCsSet = toggleOn(attr(t, "val")), true
				}
			case "t":
				inText = true
			case "tab":
				if inRun && cur != nil {
					cur.pieces = append(cur.pieces, piece{text: "\t", bold: bold.on()})
				}
			case "br", "cr":
				if inRun && cur != nil {
					cur.pieces = append(cur.pieces, piece{br: true})
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if cur != nil {
					out = append(out, *cur)
				}
				cur = nil
			case "r":
				inRun = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && cur != nil {
				cur.pieces = append(cur.pieces, piece{text: string(t), bold: bold.on()})
			}
		}
	}
}

func render(paragraphs []paragraph) (quizparse.Document, error) {
	var text, markup strings.Builder
	for _, p := range paragraphs {
		line, frag := renderParagraph(p)
		if strings.TrimSpace(line) == "" {
			continue
		}
		text.WriteString(line)
		text.WriteByte('\n')

		tag := "p"
		if p.heading > 0 {
			tag = "h" + strconv.Itoa(p.heading)
		}
		fmt.Fprintf(&markup, "<%s>%s</%s>\n", tag, frag, tag)
	}

	if text.Len() == 0 {
		return quizparse.Document{}, ErrNoContent
	}
	return quizparse.Document{
		Text: norm.NFC.String(text.String()),
		HTML: norm.NFC.String(markup.String()),
	}, nil
}

// renderParagraph merges adjacent bold pieces so a label split across runs
// still sits inside one <strong> element.
func renderParagraph(p paragraph) (string, string) {
	var line, frag strings.Builder
	open := false
	closeBold := func() {
		if open {
			frag.WriteString("</strong>")
			open = false
		}
	}
	for _, pc := range p.pieces {
		if pc.br {
			closeBold()
			line.WriteByte('\n')
			frag.WriteString("<br/>")
			continue
		}
		if pc.bold && !open && strings.TrimSpace(pc.text) != "" {
			frag.WriteString("<strong>")
			open = true
		} else if !pc.bold {
			closeBold()
		}
		line.WriteString(pc.text)
		frag.WriteString(html.EscapeString(pc.text))
	}
	closeBold()
	return line.String(), frag.String()
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// toggleOn interprets an OOXML on/off property; a missing value means on.
func toggleOn(val string) bool {
	switch strings.ToLower(val) {
	case "0", "false", "off":
		return false
	}
	return true
}

func headingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return 1
	}
	if n, ok := strings.CutPrefix(s, "heading"); ok {
		if lvl, err := strconv.Atoi(n); err == nil && lvl >= 1 && lvl <= 6 {
			return lvl
		}
	}
	return 0
}
