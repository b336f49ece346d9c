package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/rehab360/internal/models"
	"github.com/terraincognita07/rehab360/internal/services"
	"go.uber.org/zap"
)

const contextUserKey = "current_user"

func currentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(contextUserKey).(*models.User)
	return user, ok
}

// AuthRequired resolves the bearer token to a user stored in c.Locals.
func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	claims, err := services.ParseSessionToken(handler.secretKey, bearerToken(c), handler.now())
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := handler.authService.FindByID(claims.UserID)
	if err != nil {
		if !errors.Is(err, services.ErrAuthUserNotFound) {
			handler.logger.Error("load session user", zap.Error(err))
		}
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	c.Locals(contextUserKey, &user)
	return c.Next()
}

// PasswordChangeGate blocks accounts holding a temporary password.
func (handler *Handler) PasswordChangeGate(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if user.MustChangePassword {
		return apiError(c, fiber.StatusForbidden, "password change required")
	}
	return c.Next()
}

func bearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
