// @title RAG Quiz API
// @version 1.0
// @description Upload plain-text knowledge bases and generate graded quizzes and flashcards from them.
// @host localhost:8090
// @BasePath /api
// @schemes http https
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "rag-quiz/cmd/api/docs"
	"rag-quiz/internal/adapter"
	"rag-quiz/internal/adapter/embedding"
	"rag-quiz/internal/adapter/llm"
	"rag-quiz/internal/cache"
	"rag-quiz/internal/config"
	"rag-quiz/internal/database"
	"rag-quiz/internal/domain"
	"rag-quiz/internal/handler"
	"rag-quiz/internal/logger"
	"rag-quiz/internal/middleware"
	"rag-quiz/internal/repository"
	"rag-quiz/internal/service"
	"rag-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

const resultCacheTTL = 24 * time.Hour

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx := context.Background()

	db, err := database.NewPostgresDB(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := database.RunMigrations(db.DB); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis is optional; without it embeddings, grades and results are not cached.
	var cacheAdapter domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
			appLogger.Info("Successfully connected to Redis", zap.String("address", cfg.Redis.Address))
		}
	}

	generator, err := llm.NewTextGenerator(ctx, cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	appLogger.Info("Text generator initialized",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model))

	encoder := embedding.NewEncoder(embedding.NewLangchainLoader(cfg.Embedding), embedding.Options{
		Dimension: cfg.Embedding.Dimension,
		Namespace: cfg.Embedding.Provider,
		Model:     cfg.Embedding.Model,
		Cache:     cacheAdapter,
		CacheTTL:  cfg.Embedding.CacheTTL,
	})

	// Repositories
	txManager := repository.NewTransactionManagerAdapter(db)
	knowledgeBases := repository.NewKnowledgeBaseRepository(db)
	chunkIndex := repository.NewChunkIndex(db, txManager, encoder.Dimension(), cfg.RAG.Lexical)
	sessions := repository.NewQuizSessionRepository(db)
	answers := repository.NewAnswerRepository(db)
	history := repository.NewHistoryRepository(db)

	// Services
	knowledgeBaseService := service.NewKnowledgeBaseService(knowledgeBases, chunkIndex, encoder, generator, service.NewChunker(cfg.RAG), cfg)
	quizSessionService := service.NewQuizSessionService(
		knowledgeBases, sessions, answers, txManager,
		service.NewContentAssembler(encoder, chunkIndex, cfg.RAG),
		service.NewHistoryLedger(history),
		service.NewQuizOrchestrator(generator, cfg.Quiz),
		service.NewGrader(generator, service.NewGradeCache(cacheAdapter, 0), cfg.Quiz),
		service.NewResultCache(cacheAdapter, resultCacheTTL),
		cfg,
	)
	statsService := service.NewStatsService(sessions)

	validator := validation.NewValidator(cfg.Quiz.MaxQuestions)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept," + middleware.OwnerHeader, MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)

	handler.RegisterRoutes(app, handler.Handlers{
		Health:         handler.NewHealthHandler(generator),
		KnowledgeBases: handler.NewKnowledgeBaseHandler(knowledgeBaseService, validator, cfg.Knowledge.MaxUploadBytes),
		QuizSessions:   handler.NewQuizSessionHandler(quizSessionService, validator),
		Stats:          handler.NewStatsHandler(statsService),
	}, middleware.NewValidationMiddleware(validator))

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
