package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 10, cfg.RAG.MinChunkLength)
	assert.Equal(t, 3, cfg.RAG.TopKPerType)
	assert.Equal(t, "判斷 對錯 是非", cfg.RAG.TypeQueries["true_false"])
	assert.Equal(t, 0.9, cfg.RAG.Lexical.FullMatch)
	assert.Equal(t, 0.7, cfg.RAG.Lexical.PrefixMatch)
	assert.Equal(t, 0.5, cfg.RAG.Lexical.NoMatch)
	assert.Equal(t, 10, cfg.Quiz.BatchCap)
	assert.Equal(t, 20, cfg.Quiz.HistoryLimit)
	assert.Equal(t, 90*time.Second, cfg.Quiz.GenerationTimeout)
	assert.Equal(t, 50, cfg.Quiz.NeutralScore)
	assert.Equal(t, 768, cfg.Embedding.Dimension)
	assert.Equal(t, int64(10*1024*1024), cfg.Knowledge.MaxUploadBytes)
	assert.Equal(t, 120*time.Second, cfg.Server.ReadTimeout)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("QUIZ_BATCH_CAP", "4")
	t.Setenv("LLM_PROVIDER", "gemini")

	cfg, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, 4, cfg.Quiz.BatchCap)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{DB: DBConfig{
		Host: "db", Port: 5432, User: "quiz", Password: "p@ss", DBName: "ragquiz", SSLMode: "disable",
	}}
	assert.Equal(t, "postgres://quiz:p%40ss@db:5432/ragquiz?sslmode=disable", cfg.GetDSN())
}
