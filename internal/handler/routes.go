package handler

import (
	"rag-quiz/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	Health         *HealthHandler
	KnowledgeBases *KnowledgeBaseHandler
	QuizSessions   *QuizSessionHandler
	Stats          *StatsHandler
}

// RegisterRoutes mounts the public probes and the owner-scoped /api routes.
func RegisterRoutes(app *fiber.App, h Handlers, vm *middleware.ValidationMiddleware) {
	app.Get("/health", h.Health.Liveness)

	api := app.Group("/api")
	api.Get("/llm/health", h.Health.LLM)

	kb := api.Group("/knowledge-bases", middleware.RequireOwner())
	kb.Post("", h.KnowledgeBases.Upload)
	kb.Get("", h.KnowledgeBases.List)
	kb.Get("/:id", vm.ValidateIDParam(), h.KnowledgeBases.Get)
	kb.Delete("/:id", vm.ValidateIDParam(), h.KnowledgeBases.Delete)
	kb.Post("/:id/reindex", vm.ValidateIDParam(), h.KnowledgeBases.Reindex)

	sessions := api.Group("/quiz-sessions", middleware.RequireOwner())
	sessions.Post("", h.QuizSessions.Create)
	sessions.Get("/:id", vm.ValidateIDParam(), h.QuizSessions.Get)
	sessions.Post("/:id/answers", vm.ValidateIDParam(), h.QuizSessions.SubmitAnswer)
	sessions.Get("/:id/result", vm.ValidateIDParam(), h.QuizSessions.Result)

	api.Get("/users/me/stats", middleware.RequireOwner(), h.Stats.GetMyStats)
}
