package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rag-quiz/internal/config"
	"rag-quiz/internal/domain"
	"rag-quiz/internal/logger"

	"go.uber.org/zap"
)

var errNoValidQuestions = errors.New("batch produced no valid questions")

// QuizOrchestrator drives batched question generation. Each batch asks for at
// most BatchCap questions; a failed batch is retried at half the size down to
// one question, after which generation gives up.
type QuizOrchestrator struct {
	generator domain.TextGenerator
	cfg       config.QuizConfig
}

func NewQuizOrchestrator(generator domain.TextGenerator, cfg config.QuizConfig) *QuizOrchestrator {
	if cfg.BatchCap <= 0 {
		cfg.BatchCap = 10
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	return &QuizOrchestrator{generator: generator, cfg: cfg}
}

// Generate returns at most target validated questions built from content.
// historySeed is newest first, as returned by HistoryLedger.Recent.
func (o *QuizOrchestrator) Generate(ctx context.Context, content string, types []domain.QuestionType, difficulty string, target int, historySeed []domain.QuestionPayload) ([]domain.Question, error) {
	l := logger.Get()
	if target <= 0 {
		return []domain.Question{}, nil
	}

	// oldest first, so the tail is always the most recent window
	history := historyFromPayloads(historySeed)
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	history = o.trimHistory(history)

	accumulated := make([]domain.Question, 0, target)
	remaining := target
	batchSize := min(remaining, o.cfg.BatchCap)

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, err := o.runBatch(ctx, content, types, difficulty, batchSize, history)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if batchSize == 1 {
				l.Error("Question generation exhausted",
					zap.Int("generated", len(accumulated)),
					zap.Int("target", target),
					zap.Error(err))
				return nil, domain.NewGenerationExhaustedError(err)
			}
			next := batchSize / 2
			l.Warn("Generation batch failed, halving batch size",
				zap.Int("batch_size", batchSize),
				zap.Int("next_batch_size", next),
				zap.Error(err))
			batchSize = next
			continue
		}

		accumulated = append(accumulated, batch...)
		remaining -= len(batch)
		for _, q := range batch {
			history = append(history, historyItem{QuestionText: q.Prompt(), QuestionType: q.Kind()})
		}
		history = o.trimHistory(history)

		l.Info("Generation batch succeeded",
			zap.Int("batch_size", batchSize),
			zap.Int("valid", len(batch)),
			zap.Int("remaining", max(remaining, 0)))
		batchSize = min(max(remaining, 0), o.cfg.BatchCap)
	}

	if len(accumulated) > target {
		accumulated = accumulated[:target]
	}
	return accumulated, nil
}

// runBatch makes one bounded model call. Transport errors, timeouts,
// unparseable output and zero surviving questions are all failures.
func (o *QuizOrchestrator) runBatch(ctx context.Context, content string, types []domain.QuestionType, difficulty string, size int, history []historyItem) ([]domain.Question, error) {
	prompt := buildGenerationPrompt(generationRequest{
		Content:    content,
		Types:      types,
		Difficulty: difficulty,
		Count:      size,
		History:    history,
		Language:   o.cfg.Language,
		TrueLabel:  o.cfg.TrueLabel,
		FalseLabel: o.cfg.FalseLabel,
	})

	callCtx := ctx
	if o.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.cfg.GenerationTimeout)
		defer cancel()
	}

	started := time.Now()
	raw, err := o.generator.Complete(callCtx, prompt, o.cfg.GenerationTemperature)
	if err != nil {
		return nil, fmt.Errorf("generation call failed after %s: %w", time.Since(started).Round(time.Millisecond), err)
	}
	logger.Get().Debug("Raw generation output", zap.Int("batch_size", size), zap.String("raw", raw))

	parsed, err := ParseQuestions(raw)
	if err != nil {
		return nil, err
	}

	allowed := make(map[domain.QuestionType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	valid := parsed[:0]
	for _, q := range parsed {
		if allowed[q.Kind()] {
			valid = append(valid, q)
		}
	}
	if len(valid) == 0 {
		return nil, errNoValidQuestions
	}
	return valid, nil
}

func (o *QuizOrchestrator) trimHistory(h []historyItem) []historyItem {
	if len(h) > o.cfg.HistoryLimit {
		return h[len(h)-o.cfg.HistoryLimit:]
	}
	return h
}
