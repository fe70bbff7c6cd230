package handler

import (
	"rag-quiz/internal/dto"
	"rag-quiz/internal/service"

	"github.com/gofiber/fiber/v2"
)

type StatsHandler struct {
	statsService service.StatsService
}

func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetMyStats godoc
// @Summary Get My Statistics
// @Description Completed quizzes and flashcard decks with their mean scores, plus the knowledge base count.
// @Tags users
// @Produce json
// @Param X-User-ID header string true "Owner identity"
// @Success 200 {object} dto.UserStatsResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /users/me/stats [get]
func (h *StatsHandler) GetMyStats(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	stats, err := h.statsService.UserStats(c.UserContext(), owner)
	if err != nil {
		return err
	}
	return c.JSON(dto.UserStatsResponse{
		CompletedQuizzes:      stats.CompletedQuizzes,
		AverageScore:          stats.AverageScore,
		KnowledgeBaseCount:    stats.KnowledgeBaseCount,
		CompletedFlashcards:   stats.CompletedFlashcards,
		FlashcardAverageScore: stats.FlashcardAverageScore,
	})
}
