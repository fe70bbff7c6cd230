package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rag-quiz/internal/domain"
	"rag-quiz/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// LangchainGenerator adapts any langchaingo model (Ollama, OpenAI) to domain.TextGenerator.
type LangchainGenerator struct {
	model llms.Model
	name  string
}

// NewLangchainGenerator wraps model; name is only used in logs.
func NewLangchainGenerator(model llms.Model, name string) *LangchainGenerator {
	return &LangchainGenerator{model: model, name: name}
}

func (g *LangchainGenerator) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	completion, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, llms.WithTemperature(temperature))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Get().Warn("LLM request timed out", zap.String("model", g.name))
			return "", fmt.Errorf("LLM request timed out: %w", err)
		}
		logger.Get().Error("Failed to get response from LLM", zap.String("model", g.name), zap.Error(err))
		return "", domain.NewLLMServiceError(fmt.Errorf("LLM call failed: %w", err))
	}
	return completion, nil
}

func (g *LangchainGenerator) Ping(ctx context.Context) error {
	reply, err := llms.GenerateFromSinglePrompt(ctx, g.model, "ping", llms.WithMaxTokens(1), llms.WithTemperature(0))
	if err != nil {
		return fmt.Errorf("%s unavailable: %w", g.name, err)
	}
	if strings.TrimSpace(reply) == "" {
		logger.Get().Debug("LLM probe returned empty completion", zap.String("model", g.name))
	}
	return nil
}

var _ domain.TextGenerator = (*LangchainGenerator)(nil)
