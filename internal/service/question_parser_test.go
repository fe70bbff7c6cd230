package service

import (
	"testing"

	"rag-quiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanModelOutput(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		wantErr  bool
	}{
		{name: "bare array", raw: `[{"a":1}]`, expected: `[{"a":1}]`},
		{name: "markdown fence", raw: "```json\n[1, 2]\n```", expected: "[1, 2]"},
		{name: "reasoning block", raw: "<think>maybe [0]</think>\n[3]", expected: "[3]"},
		{name: "unterminated reasoning block", raw: "[4]<think>still thinking [5]", expected: "[4]"},
		{name: "prose around array", raw: "以下是題目：\n[6]\n祝你順利", expected: "[6]"},
		{name: "no array", raw: `{"question_text": "x"}`, wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cleanModelOutput(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, errNoJSONArray)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseQuestions(t *testing.T) {
	t.Run("all variants", func(t *testing.T) {
		raw := `[
		  {"question_text": "下列何者正確？", "question_type": "multiple_choice",
		   "options": [{"text": "甲", "is_correct": false}, {"text": "乙", "is_correct": true}],
		   "answer_text": "乙", "explanation": "因為乙"},
		  {"question_text": "地球是圓的。", "question_type": "true_false",
		   "options": [{"text": "正確", "is_correct": true}, {"text": "錯誤", "is_correct": false}],
		   "answer_text": "正確", "explanation": "衛星照片"},
		  {"question_text": "什麼是光合作用？", "question_type": "short_answer", "answer_text": "植物製造養分", "explanation": "定義"},
		  {"question_text": "論述能源政策。", "question_type": "essay", "answer_text": "重點一、重點二", "explanation": "評分要點"}
		]`

		qs, err := ParseQuestions(raw)
		require.NoError(t, err)
		require.Len(t, qs, 4)
		assert.Equal(t, domain.TypeMultipleChoice, qs[0].Kind())
		assert.Equal(t, "乙", qs[0].CorrectAnswer())
		assert.Equal(t, "正確", qs[1].CorrectAnswer())
		assert.Equal(t, "植物製造養分", qs[2].CorrectAnswer())
		assert.Equal(t, domain.TypeEssay, qs[3].Kind())
	})

	t.Run("invalid items are dropped", func(t *testing.T) {
		raw := `[
		  {"question_text": "沒有選項", "question_type": "multiple_choice", "answer_text": "甲", "explanation": "x"},
		  {"question_text": "沒有正確選項", "question_type": "multiple_choice",
		   "options": [{"text": "甲", "is_correct": false}], "answer_text": "甲", "explanation": "x"},
		  {"question_text": "兩個正確選項", "question_type": "true_false",
		   "options": [{"text": "正確", "is_correct": true}, {"text": "錯誤", "is_correct": true}],
		   "answer_text": "正確", "explanation": "x"},
		  {"question_text": "未知類型", "question_type": "matching", "answer_text": "a", "explanation": "x"},
		  {"question_text": "", "question_type": "essay", "answer_text": "a", "explanation": "x"},
		  {"question_text": "缺少解釋", "question_type": "short_answer", "answer_text": "a"},
		  "not an object",
		  {"question_text": "保留", "question_type": "short_answer", "answer_text": "a", "explanation": "x"}
		]`

		qs, err := ParseQuestions(raw)
		require.NoError(t, err)
		require.Len(t, qs, 1)
		assert.Equal(t, "保留", qs[0].Prompt())
	})

	t.Run("empty array", func(t *testing.T) {
		qs, err := ParseQuestions("[]")
		require.NoError(t, err)
		assert.Empty(t, qs)
	})

	t.Run("malformed array", func(t *testing.T) {
		_, err := ParseQuestions(`[{"question_text": ]`)
		assert.Error(t, err)
	})

	t.Run("generated fixture round trips", func(t *testing.T) {
		qs, err := ParseQuestions(questionsJSON(3, domain.TypeMultipleChoice, 0))
		require.NoError(t, err)
		assert.Len(t, qs, 3)
	})
}
