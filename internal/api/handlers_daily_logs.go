package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/rehab360/internal/models"
	"github.com/terraincognita07/rehab360/internal/services"
	"go.uber.org/zap"
)

func (handler *Handler) ListDailyLogs(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	logs, err := handler.logService.ListRecent(user.ID, c.QueryInt("limit", services.DefaultLogListLimit))
	if err != nil {
		handler.logger.Error("list daily logs", zap.String("user_id", user.ID), zap.Error(err))
		return apiError(c, fiber.StatusInternalServerError, "failed to load logs")
	}
	return c.JSON(logs)
}

func (handler *Handler) UpsertDailyLog(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var entry models.DailyLog
	if err := c.BodyParser(&entry); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	stored, err := handler.logService.Upsert(user.ID, entry, handler.now())
	if err != nil {
		return handler.respondLogWriteError(c, err)
	}
	return c.JSON(stored)
}

func (handler *Handler) UpdateDailyLog(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var patch models.LogPatch
	if err := c.BodyParser(&patch); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	stored, err := handler.logService.Update(user.ID, c.Params("id"), patch, handler.now())
	if err != nil {
		return handler.respondLogWriteError(c, err)
	}
	return c.JSON(stored)
}

func (handler *Handler) DeleteDailyLogs(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	deleted, err := handler.logService.Clear(user.ID)
	if err != nil {
		handler.logger.Error("clear daily logs", zap.String("user_id", user.ID), zap.Error(err))
		return apiError(c, fiber.StatusInternalServerError, "failed to clear logs")
	}
	return c.JSON(fiber.Map{"deleted": deleted})
}

func (handler *Handler) respondLogWriteError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidLog):
		return apiError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrLogDateImmutable):
		return apiError(c, fiber.StatusBadRequest, "log_date cannot be changed")
	case errors.Is(err, services.ErrDailyLogNotFound):
		return apiError(c, fiber.StatusNotFound, "log not found")
	default:
		handler.logger.Error("save daily log", zap.Error(err))
		return apiError(c, fiber.StatusInternalServerError, "failed to save log")
	}
}
