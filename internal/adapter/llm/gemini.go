package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"rag-quiz/internal/domain"

	"google.golang.org/genai"
)

// geminiModels is the subset of genai.Models used here.
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// GeminiGenerator implements domain.TextGenerator with the Google Gemini API.
type GeminiGenerator struct {
	models geminiModels
	model  string
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiGenerator{models: client.Models, model: model}, nil
}

func (g *GeminiGenerator) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	temp := float32(temperature)
	result, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: &temp,
	})
	if err != nil {
		return "", mapGeminiError(err)
	}
	return result.Text(), nil
}

func (g *GeminiGenerator) Ping(ctx context.Context) error {
	if _, err := g.models.Get(ctx, g.model, nil); err != nil {
		return mapGeminiError(err)
	}
	return nil
}

// mapGeminiError classifies SDK failures; genai returns APIError by value.
func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return domain.NewLLMServiceError(fmt.Errorf("gemini rate limited: %w", err))
		case apiErr.Code >= 500:
			return domain.NewLLMServiceError(fmt.Errorf("gemini unavailable: %w", err))
		}
	}
	return domain.NewLLMServiceError(fmt.Errorf("gemini request failed: %w", err))
}

var _ domain.TextGenerator = (*GeminiGenerator)(nil)
