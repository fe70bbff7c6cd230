package embedding

import (
	"context"
	"fmt"

	"rag-quiz/internal/config"

	"github.com/tmc/langchaingo/embeddings"
	ollamaLLM "github.com/tmc/langchaingo/llms/ollama"
	openaiLLM "github.com/tmc/langchaingo/llms/openai"
)

// NewLangchainLoader returns a Loader for the provider named in cfg.
func NewLangchainLoader(cfg config.EmbeddingConfig) Loader {
	return func(ctx context.Context) (embeddings.Embedder, error) {
		var client embeddings.EmbedderClient
		switch cfg.Provider {
		case "ollama", "":
			if cfg.ServerURL == "" {
				return nil, fmt.Errorf("ollama server URL cannot be empty")
			}
			llm, err := ollamaLLM.New(
				ollamaLLM.WithModel(cfg.Model),
				ollamaLLM.WithServerURL(cfg.ServerURL),
			)
			if err != nil {
				return nil, fmt.Errorf("failed to create Ollama client for embedder: %w", err)
			}
			client = llm
		case "openai":
			if cfg.APIKey == "" {
				return nil, fmt.Errorf("openai API key cannot be empty")
			}
			llm, err := openaiLLM.New(
				openaiLLM.WithToken(cfg.APIKey),
				openaiLLM.WithEmbeddingModel(cfg.Model),
			)
			if err != nil {
				return nil, fmt.Errorf("failed to create OpenAI client for embedder: %w", err)
			}
			client = llm
		default:
			return nil, fmt.Errorf("unsupported embedding provider %q", cfg.Provider)
		}

		embedder, err := embeddings.NewEmbedder(client)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		return embedder, nil
	}
}
