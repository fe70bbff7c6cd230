package handler

import (
	"io"

	"rag-quiz/internal/domain"
	"rag-quiz/internal/dto"
	"rag-quiz/internal/logger"
	"rag-quiz/internal/service"
	"rag-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// KnowledgeBaseHandler handles knowledge base uploads and management
type KnowledgeBaseHandler struct {
	service   service.KnowledgeBaseService
	validator *validation.Validator
	maxBytes  int64
}

// NewKnowledgeBaseHandler creates a new KnowledgeBaseHandler instance
func NewKnowledgeBaseHandler(service service.KnowledgeBaseService, validator *validation.Validator, maxBytes int64) *KnowledgeBaseHandler {
	return &KnowledgeBaseHandler{service: service, validator: validator, maxBytes: maxBytes}
}

// Upload godoc
// @Summary Upload a knowledge base
// @Description Uploads a UTF-8 .txt document, summarizes it and builds its search index
// @Tags knowledge-bases
// @Accept multipart/form-data
// @Produce json
// @Param X-User-ID header string true "Owner identity"
// @Param name formData string true "Knowledge base name"
// @Param file formData file true "Plain text document"
// @Success 201 {object} dto.UploadResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /knowledge-bases [post]
func (h *KnowledgeBaseHandler) Upload(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	name := c.FormValue("name")
	fileHeader, err := c.FormFile("file")
	filename := ""
	if err == nil {
		filename = fileHeader.Filename
	}
	if errs := h.validator.ValidateUpload(name, filename); len(errs) > 0 {
		return errs
	}

	f, err := fileHeader.Open()
	if err != nil {
		return domain.NewInvalidInputError("Uploaded file could not be read")
	}
	defer f.Close()

	reader := io.Reader(f)
	if h.maxBytes > 0 {
		// one byte past the limit is enough for the service to reject it
		reader = io.LimitReader(f, h.maxBytes+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return domain.NewInvalidInputError("Uploaded file could not be read")
	}

	result, err := h.service.Upload(c.UserContext(), owner, name, content)
	if err != nil {
		return err
	}
	if result.Warning != "" {
		logger.Get().Warn("Knowledge base uploaded without index",
			zap.String("knowledge_base_id", result.KnowledgeBase.ID),
			zap.String("owner_id", owner))
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewUploadResponse(result))
}

// List godoc
// @Summary List knowledge bases
// @Description Returns the caller's knowledge bases with their chunk counts
// @Tags knowledge-bases
// @Produce json
// @Param X-User-ID header string true "Owner identity"
// @Success 200 {object} dto.KnowledgeBaseListResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /knowledge-bases [get]
func (h *KnowledgeBaseHandler) List(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	list, err := h.service.List(c.UserContext(), owner)
	if err != nil {
		return err
	}
	resp := dto.KnowledgeBaseListResponse{KnowledgeBases: make([]dto.KnowledgeBaseResponse, len(list))}
	for i, kb := range list {
		resp.KnowledgeBases[i] = dto.NewKnowledgeBaseResponse(kb)
	}
	return c.JSON(resp)
}

// Get godoc
// @Summary Get a knowledge base
// @Tags knowledge-bases
// @Produce json
// @Param X-User-ID header string true "Owner identity"
// @Param id path string true "Knowledge base ID"
// @Success 200 {object} dto.KnowledgeBaseResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /knowledge-bases/{id} [get]
func (h *KnowledgeBaseHandler) Get(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	kb, err := h.service.Get(c.UserContext(), owner, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewKnowledgeBaseResponse(kb))
}

// Delete godoc
// @Summary Delete a knowledge base
// @Description Deletes the knowledge base and its chunks
// @Tags knowledge-bases
// @Param X-User-ID header string true "Owner identity"
// @Param id path string true "Knowledge base ID"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /knowledge-bases/{id} [delete]
func (h *KnowledgeBaseHandler) Delete(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), owner, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reindex godoc
// @Summary Rebuild the search index of a knowledge base
// @Tags knowledge-bases
// @Produce json
// @Param X-User-ID header string true "Owner identity"
// @Param id path string true "Knowledge base ID"
// @Success 200 {object} dto.UploadResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /knowledge-bases/{id}/reindex [post]
func (h *KnowledgeBaseHandler) Reindex(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	result, err := h.service.Reindex(c.UserContext(), owner, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUploadResponse(result))
}
