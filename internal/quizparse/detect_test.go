package quizparse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizforge/internal/errors"
	"github.com/vytor/quizforge/internal/quizparse"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		html     string
		expected quizparse.TemplateKind
	}{
		{
			name:     "vietnamese answer line",
			text:     "Câu 1. x\nA. a\nB. b\nĐáp án: B",
			expected: quizparse.ExplicitAnswer,
		},
		{
			name:     "english answer line, lowercase",
			text:     "Question 1: x\nA. a\nB. b\nanswer - c",
			expected: quizparse.ExplicitAnswer,
		},
		{
			name:     "indented answer line",
			text:     "Q1. x\n   ANSWER: d",
			expected: quizparse.ExplicitAnswer,
		},
		{
			name:     "bold option",
			text:     "Câu 1. x\nA. a\nB. b",
			html:     `<p>Câu 1. x</p><p>A. a</p><p><strong>B. b</strong></p>`,
			expected: quizparse.BoldAnswer,
		},
		{
			name:     "bold option with nested span",
			html:     `<p><b class="c1"><span>C) c</span></b></p>`,
			expected: quizparse.BoldAnswer,
		},
		{
			name:     "explicit wins over bold",
			text:     "Câu 1. x\nĐáp án: A",
			html:     `<p><strong>A. a</strong></p>`,
			expected: quizparse.ExplicitAnswer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := quizparse.Detect(tt.text, tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, kind)
		})
	}
}

func TestDetect_Unrecognized(t *testing.T) {
	tests := []struct {
		name string
		text string
		html string
	}{
		{name: "plain prose", text: "Hello world", html: "<p>Hello world</p>"},
		{name: "bold but not an option", text: "x", html: "<p><strong>Important</strong> note</p>"},
		{name: "answer letter out of range", text: "Đáp án: F"},
		{name: "empty document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := quizparse.Detect(tt.text, tt.html)
			assert.Empty(t, kind)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeUnrecognizedTemplate))
			assert.Contains(t, err.Error(), "Đáp án: B")
			assert.Contains(t, err.Error(), "bold")
		})
	}
}
