package handler

import (
	"context"
	"time"

	"rag-quiz/internal/domain"
	"rag-quiz/internal/dto"
	"rag-quiz/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const llmProbeTimeout = 10 * time.Second

// HealthHandler reports process and model availability
type HealthHandler struct {
	generator domain.TextGenerator
}

func NewHealthHandler(generator domain.TextGenerator) *HealthHandler {
	return &HealthHandler{generator: generator}
}

// Liveness godoc
// @Summary Liveness probe
// @Tags health
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /health [get]
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// LLM godoc
// @Summary Generative model probe
// @Description Checks that the configured text generation backend answers
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /llm/health [get]
func (h *HealthHandler) LLM(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), llmProbeTimeout)
	defer cancel()
	if err := h.generator.Ping(ctx); err != nil {
		logger.Get().Warn("LLM health probe failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.HealthResponse{Status: "unavailable", Message: err.Error()})
	}
	return c.JSON(dto.HealthResponse{Status: "ok"})
}
