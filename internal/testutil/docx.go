package testutil

import (
	"archive/zip"
	"bytes"
	"html"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// BuildDocx returns a minimal .docx archive whose document body is body.
func BuildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// DocxLines builds a .docx with one plain paragraph per line. A line
// prefixed with "**" is written as a bold run.
func DocxLines(t *testing.T, lines ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, line := range lines {
		body.WriteString("<w:p><w:r>")
		if rest, ok := strings.CutPrefix(line, "**"); ok {
			body.WriteString("<w:rPr><w:b/></w:rPr>")
			line = rest
		}
		body.WriteString(`<w:t xml:space="preserve">` + html.EscapeString(line) + "</w:t></w:r></w:p>")
	}
	return BuildDocx(t, body.String())
}
