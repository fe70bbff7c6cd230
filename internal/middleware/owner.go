package middleware

import (
	"regexp"
	"strings"

	"rag-quiz/internal/domain"
	"rag-quiz/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	OwnerHeader = "X-User-ID"
	OwnerIDKey  = "ownerID" // Key for storing the owner ID in fiber.Ctx locals
)

var ownerIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.@-]{1,64}$`)

// RequireOwner reads the caller identity set by the fronting gateway and
// stores it in the request locals. Requests without a usable identity are
// rejected with 401.
func RequireOwner() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID := strings.TrimSpace(c.Get(OwnerHeader))
		if ownerID == "" {
			return domain.NewError(domain.ErrUnauthorized, OwnerHeader+" header is missing", nil)
		}
		if !ownerIDPattern.MatchString(ownerID) {
			logger.Get().Warn("Rejected malformed owner id", zap.String("path", c.Path()))
			return domain.NewError(domain.ErrUnauthorized, OwnerHeader+" header is malformed", nil)
		}
		c.Locals(OwnerIDKey, ownerID)
		return c.Next()
	}
}

// OwnerID returns the identity stored by RequireOwner.
func OwnerID(c *fiber.Ctx) (string, bool) {
	ownerID, ok := c.Locals(OwnerIDKey).(string)
	return ownerID, ok && ownerID != ""
}
