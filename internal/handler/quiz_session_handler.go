package handler

import (
	"rag-quiz/internal/domain"
	"rag-quiz/internal/dto"
	"rag-quiz/internal/service"
	"rag-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// QuizSessionHandler handles quiz and flashcard sessions
type QuizSessionHandler struct {
	service   service.QuizSessionService
	validator *validation.Validator
}

// NewQuizSessionHandler creates a new QuizSessionHandler instance
func NewQuizSessionHandler(service service.QuizSessionService, validator *validation.Validator) *QuizSessionHandler {
	return &QuizSessionHandler{service: service, validator: validator}
}

// Create godoc
// @Summary Generate a quiz session
// @Description Retrieves content from the selected knowledge bases and generates questions. Flashcard decks are always true/false.
// @Tags quiz-sessions
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Owner identity"
// @Param request body dto.CreateSessionRequest true "Session parameters"
// @Success 201 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse "No retrievable content"
// @Failure 503 {object} middleware.ErrorResponse "Generation exhausted"
// @Router /quiz-sessions [post]
func (h *QuizSessionHandler) Create(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	var req dto.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}
	if errs := h.validator.ValidateCreateSession(&req); len(errs) > 0 {
		return errs
	}

	in := service.CreateSessionInput{
		Type:             domain.SessionType(req.Type),
		KnowledgeBaseIDs: req.KnowledgeBaseIDs,
		Difficulty:       req.Difficulty,
		Count:            req.Count,
	}
	for _, t := range req.QuestionTypes {
		in.QuestionTypes = append(in.QuestionTypes, domain.QuestionType(t))
	}

	session, err := h.service.Create(c.UserContext(), owner, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewSessionResponse(session))
}

// Get godoc
// @Summary Get quiz session state
// @Description Returns progress and the current question with its answer hidden
// @Tags quiz-sessions
// @Produce json
// @Param X-User-ID header string true "Owner identity"
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quiz-sessions/{id} [get]
func (h *QuizSessionHandler) Get(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	session, err := h.service.Get(c.UserContext(), owner, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSessionResponse(session))
}

// SubmitAnswer godoc
// @Summary Answer a question
// @Description Linear quizzes accept only the current question, once. Flashcard decks accept any question and keep the latest answer.
// @Tags quiz-sessions
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Owner identity"
// @Param id path string true "Session ID"
// @Param request body dto.SubmitAnswerRequest true "Answer"
// @Success 200 {object} dto.AnswerResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Out of order or duplicate answer"
// @Router /quiz-sessions/{id}/answers [post]
func (h *QuizSessionHandler) SubmitAnswer(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	var req dto.SubmitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}
	if errs := h.validator.ValidateSubmitAnswer(&req); len(errs) > 0 {
		return errs
	}

	outcome, err := h.service.SubmitAnswer(c.UserContext(), owner, c.Params("id"), *req.QuestionIndex, req.Answer)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAnswerResponse(outcome))
}

// Result godoc
// @Summary Get quiz session result
// @Description Per-question detail, correct count and accuracy
// @Tags quiz-sessions
// @Produce json
// @Param X-User-ID header string true "Owner identity"
// @Param id path string true "Session ID"
// @Success 200 {object} dto.ResultResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quiz-sessions/{id}/result [get]
func (h *QuizSessionHandler) Result(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	result, err := h.service.Result(c.UserContext(), owner, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewResultResponse(result))
}
