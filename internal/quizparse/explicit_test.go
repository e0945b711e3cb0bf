package quizparse_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizforge/internal/errors"
	"github.com/vytor/quizforge/internal/quizparse"
)

func TestParse_ExplicitSingleQuestion(t *testing.T) {
	doc := quizparse.Document{Text: "Câu 1. What is 2+2?\nA. 3\nB. 4\nĐáp án: B"}

	res, err := quizparse.Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, quizparse.ExplicitAnswer, res.Template)
	report := res.Report
	require.Len(t, report.Questions, 1)
	assert.Equal(t, 1, report.TotalParsed)
	assert.Equal(t, 1, report.TotalValid)
	assert.Empty(t, report.Errors)

	q := report.Questions[0]
	assert.Equal(t, 1, q.Order)
	assert.Equal(t, "What is 2+2?", q.Text)
	assert.Equal(t, []quizparse.ParsedOption{{Label: "A", Text: "3"}, {Label: "B", Text: "4"}}, q.Options)
	assert.Equal(t, "B", q.CorrectAnswer)
}

func TestParseExplicit_DuplicateLabelKeepsLater(t *testing.T) {
	text := `Câu 1. Pick one
A. alpha
B. first
B. second
Đáp án: A`

	drafts := quizparse.ParseExplicit(text)

	require.Len(t, drafts, 1)
	require.Len(t, drafts[0].Options, 2)
	assert.Equal(t, "A", drafts[0].Options[0].Label)
	assert.Equal(t, "B", drafts[0].Options[1].Label)
	assert.Equal(t, "second", drafts[0].Options[1].Text)
}

func TestParseExplicit_OrderComesFromMarker(t *testing.T) {
	text := `Câu 5. Fifth
A. a
B. b
Đáp án: A
Question 2: Second
A. a
B. b
Answer: b`

	drafts := quizparse.ParseExplicit(text)

	require.Len(t, drafts, 2)
	assert.Equal(t, 5, drafts[0].Order)
	assert.Equal(t, 2, drafts[1].Order)
	assert.Equal(t, "B", drafts[1].CorrectAnswer, "answer letters are case-insensitive")
}

func TestParseExplicit_IgnoresUnmatchedLines(t *testing.T) {
	text := `ĐỀ KIỂM TRA GIỮA KỲ
Họ tên: ............
A. orphan option before any question

Câu 1) Which is prime?
some stray note
A) 4
B) 7
Đáp án đúng: B
Giải thích: 7 has no divisors other than 1 and itself`

	drafts := quizparse.ParseExplicit(text)

	require.Len(t, drafts, 1)
	q := drafts[0]
	assert.Equal(t, "Which is prime?", q.Text)
	assert.Len(t, q.Options, 2)
	assert.Equal(t, "B", q.CorrectAnswer)
	assert.Equal(t, "7 has no divisors other than 1 and itself", q.Explanation)
}

func TestParseExplicit_HandlesCRLF(t *testing.T) {
	drafts := quizparse.ParseExplicit("Q1. Yes?\r\nA. yes\r\nB. no\r\nAns: A\r\n")

	require.Len(t, drafts, 1)
	assert.Equal(t, "A", drafts[0].CorrectAnswer)
	assert.Equal(t, "no", drafts[0].Options[1].Text)
}

func TestValidate_InsufficientOptionsAndMissingAnswer(t *testing.T) {
	drafts := quizparse.ParseExplicit("Câu 1. Lonely question\nA. only option")

	report, err := quizparse.Validate(drafts)
	require.NoError(t, err)

	assert.Empty(t, report.Questions)
	assert.Equal(t, 0, report.TotalValid)
	assert.Equal(t, 1, report.TotalParsed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 1, report.Errors[0].QuestionOrder)
	assert.Contains(t, report.Errors[0].Reasons, "insufficient options")
	assert.Contains(t, report.Errors[0].Reasons, "missing correct answer")
}

func TestValidate_AnswerNotAmongOptions(t *testing.T) {
	drafts := quizparse.ParseExplicit("Câu 1. Q\nA. a\nB. b\nĐáp án: D")

	report, err := quizparse.Validate(drafts)
	require.NoError(t, err)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, "correct answer D not found among options", report.Errors[0].Reasons)
}

func TestValidate_MissingText(t *testing.T) {
	drafts := quizparse.ParseExplicit("Câu 3.\nA. a\nB. b\nĐáp án: A")

	report, err := quizparse.Validate(drafts)
	require.NoError(t, err)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, 3, report.Errors[0].QuestionOrder)
	assert.Equal(t, "missing question text", report.Errors[0].Reasons)
	assert.Equal(t, "", report.Errors[0].QuestionTextPreview)
}

func TestValidate_PreviewTruncation(t *testing.T) {
	long := strings.Repeat("ă", 60)
	drafts := []quizparse.ParsedQuestion{{Order: 1, Text: long}}

	report, err := quizparse.Validate(drafts)
	require.NoError(t, err)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, strings.Repeat("ă", 50)+"...", report.Errors[0].QuestionTextPreview)

	exact := strings.Repeat("x", 50)
	report, err = quizparse.Validate([]quizparse.ParsedQuestion{{Order: 1, Text: exact}})
	require.NoError(t, err)
	assert.Equal(t, exact, report.Errors[0].QuestionTextPreview)
}

func TestValidate_EmptyInputFails(t *testing.T) {
	report, err := quizparse.Validate(nil)

	assert.Nil(t, report)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeParseFailure))
	assert.ErrorIs(t, err, quizparse.ErrNoQuestions)
}

func TestParse_AnswerLineWithoutQuestionsFails(t *testing.T) {
	_, err := quizparse.Parse(quizparse.Document{Text: "Đáp án: B"})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeParseFailure))
}

func TestParse_PartialDocumentStillSucceeds(t *testing.T) {
	text := `Câu 1. Good
A. yes
B. no
Đáp án: A
Câu 2. Bad
A. only`

	res, err := quizparse.Parse(quizparse.Document{Text: text})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Report.TotalParsed)
	assert.Equal(t, 1, res.Report.TotalValid)
	require.Len(t, res.Report.Errors, 1)
	assert.Equal(t, 2, res.Report.Errors[0].QuestionOrder)
}

func TestParse_Deterministic(t *testing.T) {
	doc := quizparse.Document{Text: `Câu 1. One
A. a
B. b
C. c
Đáp án: C
Câu 2. Two
A. a
Đáp án: A
Câu 3. Three
A. a
B. b
Đáp án: B`}

	first, err := quizparse.Parse(doc)
	require.NoError(t, err)
	second, err := quizparse.Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParse_ReportInvariants(t *testing.T) {
	docs := []string{
		"Câu 1. a\nA. x\nB. y\nĐáp án: A",
		"Câu 1. a\nA. x\nĐáp án: A\nCâu 2. b\nA. x\nB. y\nĐáp án: C\nCâu 3. c\nA. x\nB. y\nC. z\nD. w\nĐáp án: D",
		"Câu 1.\nA. x\nB. y\nĐáp án: B\nCâu 2. ok\nB. y\nC. z\nAnswer: C",
		"Câu 10. ten\nA. x\nB. y\nB. y2\nĐáp án: B\nCâu 10. ten again\nĐáp án: A",
	}

	for _, text := range docs {
		res, err := quizparse.Parse(quizparse.Document{Text: text})
		require.NoError(t, err)

		r := res.Report
		assert.Equal(t, r.TotalParsed, r.TotalValid+len(r.Errors))
		assert.Equal(t, r.TotalValid, len(r.Questions))
		for _, q := range r.Questions {
			assert.True(t, q.HasOption(q.CorrectAnswer), "question %d answer %q must be an option", q.Order, q.CorrectAnswer)
		}
	}
}
