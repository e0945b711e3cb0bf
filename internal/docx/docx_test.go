package docx_test

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizforge/internal/docx"
	"github.com/vytor/quizforge/internal/errors"
	"github.com/vytor/quizforge/internal/quizparse"
	"github.com/vytor/quizforge/internal/testutil"
)

func TestConvert_ParagraphsAndBold(t *testing.T) {
	body := `<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Đề ôn tập</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Câu 1. What is 2+2?</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>A. 3</w:t></w:r></w:p>` +
		`<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>B</w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">. 4</w:t></w:r></w:p>` +
		`<w:p><w:r><w:rPr><w:b w:val="0"/></w:rPr><w:t>C. 5 &amp; more</w:t></w:r></w:p>`

	doc, err := docx.Convert(testutil.BuildDocx(t, body))
	require.NoError(t, err)

	assert.Equal(t, "Đề ôn tập\nCâu 1. What is 2+2?\nA. 3\nB. 4\nC. 5 & more\n", doc.Text)
	assert.Contains(t, doc.HTML, "<h1>Đề ôn tập</h1>")
	assert.Contains(t, doc.HTML, "<p><strong>B. 4</strong></p>")
	assert.Contains(t, doc.HTML, "<p>C. 5 &amp; more</p>")
}

func TestConvert_BoldKeysOnLatinFlag(t *testing.T) {
	body := `<w:p><w:r><w:rPr><w:b/><w:bCs w:val="0"/></w:rPr><w:t>A. latin bold</w:t></w:r></w:p>` +
		`<w:p><w:r><w:rPr><w:b w:val="false"/><w:bCs/></w:rPr><w:t>B. latin off</w:t></w:r></w:p>` +
		`<w:p><w:r><w:rPr><w:bCs/></w:rPr><w:t>C. complex only</w:t></w:r></w:p>`

	doc, err := docx.Convert(testutil.BuildDocx(t, body))
	require.NoError(t, err)

	assert.Contains(t, doc.HTML, "<p><strong>A. latin bold</strong></p>")
	assert.Contains(t, doc.HTML, "<p>B. latin off</p>")
	assert.Contains(t, doc.HTML, "<p><strong>C. complex only</strong></p>")
}

func TestConvert_TextBoxDoesNotTruncateParagraph(t *testing.T) {
	body := `<w:p><w:r><w:t>Câu 1. Outer</w:t></w:r>` +
		`<w:r><w:pict><w:txbxContent><w:p><w:r><w:t>boxed</w:t></w:r></w:p></w:txbxContent></w:pict></w:r>` +
		`<w:r><w:t xml:space="preserve"> question?</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>A. yes</w:t></w:r></w:p>`

	doc, err := docx.Convert(testutil.BuildDocx(t, body))
	require.NoError(t, err)

	assert.Equal(t, "Câu 1. Outer question?\nA. yes\n", doc.Text)
	assert.NotContains(t, doc.HTML, "boxed")
}

func TestConvert_BreaksAndTabs(t *testing.T) {
	body := `<w:p><w:r><w:t>Câu 1.</w:t><w:tab/><w:t>Pick</w:t><w:br/><w:t>A. x</w:t></w:r></w:p>` +
		`<w:p></w:p>`

	doc, err := docx.Convert(testutil.BuildDocx(t, body))
	require.NoError(t, err)

	assert.Equal(t, "Câu 1.\tPick\nA. x\n", doc.Text)
	assert.Equal(t, "<p>Câu 1.\tPick<br/>A. x</p>\n", doc.HTML)
}

func TestConvert_NormalizesToNFC(t *testing.T) {
	// "Câu" with a combining circumflex.
	body := `<w:p><w:r><w:t>Ca` + "\u0302" + `u 1. x</w:t></w:r></w:p>`

	doc, err := docx.Convert(testutil.BuildDocx(t, body))
	require.NoError(t, err)

	assert.Equal(t, "Câu 1. x\n", doc.Text)
}

func TestConvert_FeedsBothParsers(t *testing.T) {
	body := `<w:p><w:r><w:t>Câu 1. Capital?</w:t></w:r></w:p>` +
		`<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>A. Hanoi</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>B. Paris</w:t></w:r></w:p>`

	doc, err := docx.Convert(testutil.BuildDocx(t, body))
	require.NoError(t, err)

	res, err := quizparse.Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, quizparse.BoldAnswer, res.Template)
	require.Equal(t, 1, res.Report.TotalValid)
	assert.Equal(t, "A", res.Report.Questions[0].CorrectAnswer)
}

func TestConvert_Errors(t *testing.T) {
	_, err := docx.Convert([]byte("plain text, not a zip"))
	assert.ErrorIs(t, err, docx.ErrNotArchive)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err = zw.Create("word/styles.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	_, err = docx.Convert(buf.Bytes())
	assert.ErrorIs(t, err, docx.ErrMissingDocument)

	_, err = docx.Convert(testutil.BuildDocx(t, `<w:p></w:p>`))
	assert.ErrorIs(t, err, docx.ErrNoContent)
}

func TestCheckUpload(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  bool
	}{
		{name: "valid", filename: "quiz.docx", size: 100},
		{name: "uppercase extension", filename: "QUIZ.DOCX", size: 100},
		{name: "wrong extension", filename: "quiz.pdf", size: 100, wantErr: true},
		{name: "legacy doc", filename: "quiz.doc", size: 100, wantErr: true},
		{name: "empty", filename: "quiz.docx", size: 0, wantErr: true},
		{name: "too large", filename: "quiz.docx", size: 2048, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := docx.CheckUpload(tt.filename, tt.size, 1024)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
				return
			}
			assert.NoError(t, err)
		})
	}
}
