package api

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/rehab360/internal/models"
	"github.com/terraincognita07/rehab360/internal/services"
	"go.uber.org/zap"
)

type credentialsInput struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type changePasswordInput struct {
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
}

type sessionResponse struct {
	Token              string    `json:"token"`
	UserID             string    `json:"user_id"`
	ExpiresAt          time.Time `json:"expires_at"`
	MustChangePassword bool      `json:"must_change_password,omitempty"`
}

func (handler *Handler) Register(c *fiber.Ctx) error {
	var credentials credentialsInput
	if err := c.BodyParser(&credentials); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	user, err := handler.authService.Register(credentials.Email, credentials.Password, handler.now())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAuthCredentialsInvalid):
			return apiError(c, fiber.StatusBadRequest, "invalid input")
		case errors.Is(err, services.ErrPasswordTooLong):
			return apiError(c, fiber.StatusBadRequest, "password too long")
		case errors.Is(err, services.ErrWeakPassword):
			return apiError(c, fiber.StatusBadRequest, "weak password")
		case errors.Is(err, services.ErrAuthEmailTaken):
			return apiError(c, fiber.StatusConflict, "email already exists")
		default:
			handler.logger.Error("register user", zap.Error(err))
			return apiError(c, fiber.StatusInternalServerError, "failed to create account")
		}
	}

	return handler.respondSession(c, fiber.StatusCreated, user)
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	now := handler.now()
	limiterKey := requestLimiterKey(c)
	if handler.loginLimiter.tooManyRecent(limiterKey, now) {
		wait := handler.loginLimiter.retryAfter(limiterKey, now)
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		return apiError(c, fiber.StatusTooManyRequests, "too many login attempts")
	}

	var credentials credentialsInput
	if err := c.BodyParser(&credentials); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	user, err := handler.authService.Authenticate(credentials.Email, credentials.Password)
	if err != nil {
		if errors.Is(err, services.ErrAuthCredentialsInvalid) {
			handler.loginLimiter.addFailure(limiterKey, now)
			return apiError(c, fiber.StatusUnauthorized, "invalid credentials")
		}
		handler.logger.Error("authenticate user", zap.Error(err))
		return apiError(c, fiber.StatusInternalServerError, "failed to sign in")
	}
	handler.loginLimiter.reset(limiterKey)

	return handler.respondSession(c, fiber.StatusOK, user)
}

func (handler *Handler) ChangePassword(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var input changePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	if err := handler.authService.ChangePassword(user.ID, input.CurrentPassword, input.NewPassword); err != nil {
		switch {
		case errors.Is(err, services.ErrPasswordChangeInvalidInput):
			return apiError(c, fiber.StatusBadRequest, "invalid input")
		case errors.Is(err, services.ErrInvalidCurrentPassword):
			return apiError(c, fiber.StatusUnauthorized, "invalid current password")
		case errors.Is(err, services.ErrNewPasswordMustDiffer):
			return apiError(c, fiber.StatusBadRequest, "new password must differ")
		case errors.Is(err, services.ErrPasswordTooLong):
			return apiError(c, fiber.StatusBadRequest, "password too long")
		case errors.Is(err, services.ErrWeakPassword):
			return apiError(c, fiber.StatusBadRequest, "weak password")
		default:
			handler.logger.Error("change password", zap.Error(err))
			return apiError(c, fiber.StatusInternalServerError, "failed to update password")
		}
	}

	user.MustChangePassword = false
	return handler.respondSession(c, fiber.StatusOK, *user)
}

func (handler *Handler) respondSession(c *fiber.Ctx, status int, user models.User) error {
	token, expiresAt, err := services.BuildSessionToken(handler.secretKey, user.ID, handler.tokenTTL, handler.now())
	if err != nil {
		handler.logger.Error("build session token", zap.Error(err))
		return apiError(c, fiber.StatusInternalServerError, "failed to create session")
	}
	return c.Status(status).JSON(sessionResponse{
		Token:              token,
		UserID:             user.ID,
		ExpiresAt:          expiresAt.UTC(),
		MustChangePassword: user.MustChangePassword,
	})
}
