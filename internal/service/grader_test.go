package service

import (
	"context"
	"errors"
	"testing"

	"rag-quiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trueFalseQuestion() domain.Question {
	return &domain.TrueFalse{
		Text:        "水在攝氏一百度沸騰。",
		Options:     []domain.Option{{Text: "正確", IsCorrect: true}, {Text: "錯誤"}},
		AnswerText:  "正確",
		Explanation: "一大氣壓下",
	}
}

func shortAnswerQuestion() domain.Question {
	return &domain.ShortAnswer{Text: "什麼是光合作用？", AnswerText: "植物利用光能製造養分", Explanation: "定義"}
}

func constGenerator(reply string, err error) *fakeGenerator {
	return &fakeGenerator{fn: func(ctx context.Context, prompt string) (string, error) { return reply, err }}
}

func TestGrader_ObjectiveExactMatch(t *testing.T) {
	gen := constGenerator("", errors.New("must not be called"))
	g := NewGrader(gen, nil, testQuizConfig())
	q := trueFalseQuestion()

	assert.Equal(t, 100, g.Grade(context.Background(), q, "正確"))
	assert.Equal(t, 100, g.Grade(context.Background(), q, "  正確\n"))
	assert.Equal(t, 0, g.Grade(context.Background(), q, "錯誤"))
	assert.Equal(t, 0, g.Grade(context.Background(), q, ""))
	assert.Empty(t, gen.prompts)

	mc := &domain.MultipleChoice{
		Text:        "哪個是質數？",
		Options:     []domain.Option{{Text: "4"}, {Text: "7", IsCorrect: true}},
		AnswerText:  "7",
		Explanation: "只能被1和自己整除",
	}
	assert.Equal(t, 100, g.Grade(context.Background(), mc, mc.CorrectAnswer()))
	assert.Equal(t, 0, g.Grade(context.Background(), mc, "4"))
}

func TestGrader_Rubric(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		err      error
		expected int
	}{
		{name: "plain score", reply: "85", expected: 85},
		{name: "score inside prose", reply: "分數：72 分，理由充分。", expected: 72},
		{name: "first integer wins", reply: "60/100", expected: 60},
		{name: "clamped high", reply: "150", expected: 100},
		{name: "huge digit run", reply: "99999999999999999999999", expected: 100},
		{name: "no digits", reply: "無法評分", expected: 50},
		{name: "model error", err: errors.New("connection refused"), expected: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := constGenerator(tt.reply, tt.err)
			g := NewGrader(gen, nil, testQuizConfig())

			score := g.Grade(context.Background(), shortAnswerQuestion(), "植物用陽光做食物")

			assert.Equal(t, tt.expected, score)
			require.Len(t, gen.prompts, 1)
			assert.Contains(t, gen.prompts[0], "植物利用光能製造養分")
			assert.Contains(t, gen.prompts[0], "植物用陽光做食物")
		})
	}
}

func TestGrader_CachesRubricScores(t *testing.T) {
	gen := constGenerator("80", nil)
	g := NewGrader(gen, NewGradeCache(newMemCache(), 0), testQuizConfig())
	q := shortAnswerQuestion()

	assert.Equal(t, 80, g.Grade(context.Background(), q, "植物 用陽光"))
	// whitespace-normalized submissions share a cache entry
	assert.Equal(t, 80, g.Grade(context.Background(), q, "植物   用陽光 "))
	assert.Len(t, gen.prompts, 1)

	assert.Equal(t, 80, g.Grade(context.Background(), q, "完全不同的答案"))
	assert.Len(t, gen.prompts, 2)
}

func TestGrader_NeutralScoreIsNotCached(t *testing.T) {
	gen := constGenerator("", errors.New("timeout"))
	g := NewGrader(gen, NewGradeCache(newMemCache(), 0), testQuizConfig())
	q := shortAnswerQuestion()

	assert.Equal(t, 50, g.Grade(context.Background(), q, "答案"))
	assert.Equal(t, 50, g.Grade(context.Background(), q, "答案"))
	assert.Len(t, gen.prompts, 2)
}

func TestGradeCache_IgnoresMalformedEntries(t *testing.T) {
	mem := newMemCache()
	c := NewGradeCache(mem, 0)
	q := shortAnswerQuestion()
	require.NoError(t, mem.Set(context.Background(), gradeCacheKey(q, "x"), "not a number", 0))

	_, ok := c.Get(context.Background(), q, "x")
	assert.False(t, ok)

	assert.Nil(t, NewGradeCache(nil, 0))
}
