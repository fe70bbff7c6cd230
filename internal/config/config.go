package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	LLM       LLMConfig
	Embedding EmbeddingConfig
	RAG       RAGConfig
	Quiz      QuizConfig
	Knowledge KnowledgeConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

type DBConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type LoggerConfig struct {
	Level string
	Env   string
	// File enables a rotating log file next to stdout when set.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type LLMConfig struct {
	Provider  string // ollama | openai | gemini
	ServerURL string
	Model     string
	APIKey    string
	Timeout   time.Duration
}

type EmbeddingConfig struct {
	Provider  string // ollama | openai
	ServerURL string
	Model     string
	APIKey    string
	Dimension int
	CacheTTL  time.Duration
}

type RAGConfig struct {
	ChunkSize      int
	ChunkOverlap   int
	MinChunkLength int
	MaxChunks      int
	TopKPerType    int
	TypeQueries    map[string]string
	Lexical        LexicalScores
}

// LexicalScores are the fixed similarities assigned by the textual fallback search.
type LexicalScores struct {
	FullMatch   float64
	PrefixMatch float64
	NoMatch     float64
}

type QuizConfig struct {
	BatchCap              int
	HistoryLimit          int
	MaxQuestions          int
	GenerationTimeout     time.Duration
	GenerationTemperature float64
	GradingTimeout        time.Duration
	GradingTemperature    float64
	NeutralScore          int
	Language              string
	TrueLabel             string
	FalseLabel            string
}

type KnowledgeConfig struct {
	MaxUploadBytes    int64
	SummaryMaxRunes   int
	SummaryInputRunes int
	SummaryTimeout    time.Duration
	SummaryFallback   string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "120s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.body_limit", 12*1024*1024)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "ragquiz")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
	v.SetDefault("logger.max_size_mb", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age_days", 30)
	v.SetDefault("logger.compress", true)

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.server_url", "http://localhost:11434")
	v.SetDefault("llm.model", "gemma3:4b")
	v.SetDefault("llm.timeout", "90s")

	v.SetDefault("embedding.provider", "ollama")
	v.SetDefault("embedding.server_url", "http://localhost:11434")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.dimension", 768)
	v.SetDefault("embedding.cache_ttl", "168h")

	v.SetDefault("rag.chunk_size", 500)
	v.SetDefault("rag.chunk_overlap", 50)
	v.SetDefault("rag.min_chunk_length", 10)
	v.SetDefault("rag.max_chunks", 10)
	v.SetDefault("rag.top_k_per_type", 3)
	v.SetDefault("rag.type_queries", map[string]string{
		"multiple_choice": "選擇題 概念 定義",
		"true_false":      "判斷 對錯 是非",
		"short_answer":    "簡答 解釋 說明",
		"essay":           "論述 分析 評論",
	})
	v.SetDefault("rag.lexical.full_match", 0.9)
	v.SetDefault("rag.lexical.prefix_match", 0.7)
	v.SetDefault("rag.lexical.no_match", 0.5)

	v.SetDefault("quiz.batch_cap", 10)
	v.SetDefault("quiz.history_limit", 20)
	v.SetDefault("quiz.max_questions", 50)
	v.SetDefault("quiz.generation_timeout", "90s")
	v.SetDefault("quiz.generation_temperature", 0.7)
	v.SetDefault("quiz.grading_timeout", "30s")
	v.SetDefault("quiz.grading_temperature", 0.3)
	v.SetDefault("quiz.neutral_score", 50)
	v.SetDefault("quiz.language", "台灣繁體中文")
	v.SetDefault("quiz.true_label", "正確")
	v.SetDefault("quiz.false_label", "錯誤")

	v.SetDefault("knowledge.max_upload_bytes", 10*1024*1024)
	v.SetDefault("knowledge.summary_max_runes", 50)
	v.SetDefault("knowledge.summary_input_runes", 1000)
	v.SetDefault("knowledge.summary_timeout", "60s")
	v.SetDefault("knowledge.summary_fallback", "無法生成摘要")
}

// LoadConfig reads .env, config.yaml and the environment, in increasing priority.
// A missing config file is not an error.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			BodyLimit:    v.GetInt("server.body_limit"),
		},
		DB: DBConfig{
			Host:         v.GetString("db.host"),
			Port:         v.GetInt("db.port"),
			User:         v.GetString("db.user"),
			Password:     v.GetString("db.password"),
			DBName:       v.GetString("db.name"),
			SSLMode:      v.GetString("db.sslmode"),
			MaxOpenConns: v.GetInt("db.max_open_conns"),
			MaxIdleConns: v.GetInt("db.max_idle_conns"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Logger: LoggerConfig{
			Level:      v.GetString("logger.level"),
			Env:        v.GetString("logger.env"),
			File:       v.GetString("logger.file"),
			MaxSizeMB:  v.GetInt("logger.max_size_mb"),
			MaxBackups: v.GetInt("logger.max_backups"),
			MaxAgeDays: v.GetInt("logger.max_age_days"),
			Compress:   v.GetBool("logger.compress"),
		},
		LLM: LLMConfig{
			Provider:  v.GetString("llm.provider"),
			ServerURL: v.GetString("llm.server_url"),
			Model:     v.GetString("llm.model"),
			APIKey:    v.GetString("llm.api_key"),
			Timeout:   v.GetDuration("llm.timeout"),
		},
		Embedding: EmbeddingConfig{
			Provider:  v.GetString("embedding.provider"),
			ServerURL: v.GetString("embedding.server_url"),
			Model:     v.GetString("embedding.model"),
			APIKey:    v.GetString("embedding.api_key"),
			Dimension: v.GetInt("embedding.dimension"),
			CacheTTL:  v.GetDuration("embedding.cache_ttl"),
		},
		RAG: RAGConfig{
			ChunkSize:      v.GetInt("rag.chunk_size"),
			ChunkOverlap:   v.GetInt("rag.chunk_overlap"),
			MinChunkLength: v.GetInt("rag.min_chunk_length"),
			MaxChunks:      v.GetInt("rag.max_chunks"),
			TopKPerType:    v.GetInt("rag.top_k_per_type"),
			TypeQueries:    v.GetStringMapString("rag.type_queries"),
			Lexical: LexicalScores{
				FullMatch:   v.GetFloat64("rag.lexical.full_match"),
				PrefixMatch: v.GetFloat64("rag.lexical.prefix_match"),
				NoMatch:     v.GetFloat64("rag.lexical.no_match"),
			},
		},
		Quiz: QuizConfig{
			BatchCap:              v.GetInt("quiz.batch_cap"),
			HistoryLimit:          v.GetInt("quiz.history_limit"),
			MaxQuestions:          v.GetInt("quiz.max_questions"),
			GenerationTimeout:     v.GetDuration("quiz.generation_timeout"),
			GenerationTemperature: v.GetFloat64("quiz.generation_temperature"),
			GradingTimeout:        v.GetDuration("quiz.grading_timeout"),
			GradingTemperature:    v.GetFloat64("quiz.grading_temperature"),
			NeutralScore:          v.GetInt("quiz.neutral_score"),
			Language:              v.GetString("quiz.language"),
			TrueLabel:             v.GetString("quiz.true_label"),
			FalseLabel:            v.GetString("quiz.false_label"),
		},
		Knowledge: KnowledgeConfig{
			MaxUploadBytes:    v.GetInt64("knowledge.max_upload_bytes"),
			SummaryMaxRunes:   v.GetInt("knowledge.summary_max_runes"),
			SummaryInputRunes: v.GetInt("knowledge.summary_input_runes"),
			SummaryTimeout:    v.GetDuration("knowledge.summary_timeout"),
			SummaryFallback:   v.GetString("knowledge.summary_fallback"),
		},
	}
}

// GetDSN returns the Postgres connection URL.
func (c *Config) GetDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     fmt.Sprintf("%s:%d", c.DB.Host, c.DB.Port),
		Path:     c.DB.DBName,
		RawQuery: "sslmode=" + c.DB.SSLMode,
	}
	return u.String()
}
