package handler

import (
	"rag-quiz/internal/domain"
	"rag-quiz/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// ownerID returns the caller identity set by middleware.RequireOwner.
func ownerID(c *fiber.Ctx) (string, error) {
	id, ok := middleware.OwnerID(c)
	if !ok {
		return "", domain.NewError(domain.ErrUnauthorized, "Owner identity not found in request context", nil)
	}
	return id, nil
}

func invalidBody(err error) error {
	return domain.NewError(domain.ErrInvalidInput, "Request body could not be parsed", err)
}
