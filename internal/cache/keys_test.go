package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCacheKey(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		objectType  string
		identifier  string
		paramsKey   []string
		expectedKey string
	}{
		{
			name:        "without paramsKey",
			serviceName: "embedding",
			objectType:  "ollama",
			identifier:  "abc123",
			expectedKey: "ragquiz:embedding:ollama:abc123",
		},
		{
			name:        "with empty paramsKey",
			serviceName: "embedding",
			objectType:  "ollama",
			identifier:  "abc123",
			paramsKey:   []string{},
			expectedKey: "ragquiz:embedding:ollama:abc123",
		},
		{
			name:        "with model and dimension",
			serviceName: "embedding",
			objectType:  "openai",
			identifier:  "abc123",
			paramsKey:   []string{"text-embedding-3-small", "768"},
			expectedKey: "ragquiz:embedding:openai:abc123:text-embedding-3-small_768",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedKey, GenerateCacheKey(tt.serviceName, tt.objectType, tt.identifier, tt.paramsKey...))
		})
	}
}
