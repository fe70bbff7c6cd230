package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"rag-quiz/internal/config"
	"rag-quiz/internal/domain"
	"rag-quiz/internal/logger"

	"go.uber.org/zap"
)

var firstInteger = regexp.MustCompile(`\d+`)

// Grader scores submissions from 0 to 100. It always produces a score.
type Grader struct {
	generator domain.TextGenerator
	cache     GradeCache
	cfg       config.QuizConfig
}

// NewGrader builds a Grader; cache may be nil.
func NewGrader(generator domain.TextGenerator, cache GradeCache, cfg config.QuizConfig) *Grader {
	return &Grader{generator: generator, cache: cache, cfg: cfg}
}

func (g *Grader) Grade(ctx context.Context, q domain.Question, submission string) int {
	if q.Kind().Objective() {
		if strings.TrimSpace(submission) == q.CorrectAnswer() {
			return 100
		}
		return 0
	}
	return g.rubricScore(ctx, q, submission)
}

func (g *Grader) rubricScore(ctx context.Context, q domain.Question, submission string) int {
	l := logger.Get()
	if g.cache != nil {
		if score, ok := g.cache.Get(ctx, q, submission); ok {
			return score
		}
	}

	callCtx := ctx
	if g.cfg.GradingTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.cfg.GradingTimeout)
		defer cancel()
	}

	prompt := buildGradingPrompt(q.Prompt(), q.CorrectAnswer(), submission)
	reply, err := g.generator.Complete(callCtx, prompt, g.cfg.GradingTemperature)
	if err != nil {
		l.Warn("Rubric grading failed, using neutral score",
			zap.String("question_type", string(q.Kind())),
			zap.Int("score", g.cfg.NeutralScore),
			zap.Error(err))
		return g.cfg.NeutralScore
	}

	score, ok := parseScore(reply)
	if !ok {
		l.Warn("Rubric reply has no score, using neutral score",
			zap.String("reply", reply),
			zap.Int("score", g.cfg.NeutralScore))
		return g.cfg.NeutralScore
	}
	if g.cache != nil {
		g.cache.Put(ctx, q, submission, score)
	}
	return score
}

// parseScore takes the first integer in reply, clamped to [0, 100].
func parseScore(reply string) (int, bool) {
	m := firstInteger.FindString(reply)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// overflowing digit runs are far above the range
		return 100, true
	}
	return min(max(n, 0), 100), true
}
