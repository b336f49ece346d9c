package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/rehab360/internal/gateway"
	"github.com/terraincognita07/rehab360/internal/models"
	"github.com/terraincognita07/rehab360/internal/services"
	"go.uber.org/zap"
)

const (
	rateLimitedMessage            = "Rate limits exceeded. Please try again in a moment."
	chatCreditsDepletedMessage    = "AI credits depleted. Please add funds to continue using Ally."
	predictCreditsDepletedMessage = "AI credits depleted. Please add funds."
	gatewayUnavailableMessage     = "AI service temporarily unavailable"
)

type streamDelta struct {
	Content string `json:"content"`
}

type streamChoice struct {
	Index int         `json:"index"`
	Delta streamDelta `json:"delta"`
}

type streamChunk struct {
	Choices []streamChoice `json:"choices"`
}

// Chat relays the assistant reply as an OpenAI-style event stream ending
// with "data: [DONE]".
func (handler *Handler) Chat(c *fiber.Ctx) error {
	var request models.ChatRequest
	if err := c.BodyParser(&request); err != nil {
		chatStreamsTotal.WithLabelValues("invalid").Inc()
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	started := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), handler.streamTimeout)
	stream, err := handler.chatService.Stream(ctx, request)
	if err != nil {
		cancel()
		if errors.Is(err, models.ErrInvalidChat) {
			chatStreamsTotal.WithLabelValues("invalid").Inc()
			return apiError(c, fiber.StatusBadRequest, err.Error())
		}
		outcome := gatewayOutcome(err)
		chatStreamsTotal.WithLabelValues(outcome).Inc()
		switch outcome {
		case "rate_limited":
			return apiError(c, fiber.StatusTooManyRequests, rateLimitedMessage)
		case "credits_depleted":
			return apiError(c, fiber.StatusPaymentRequired, chatCreditsDepletedMessage)
		}
		handler.logger.Error("chat request failed", zap.Error(err))
		return apiError(c, fiber.StatusInternalServerError, gatewayUnavailableMessage)
	}

	logger := handler.logger
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer stream.Close()

		outcome := relayDeltas(w, stream, logger)
		chatStreamsTotal.WithLabelValues(outcome).Inc()
		chatStreamDuration.Observe(time.Since(started).Seconds())
	})
	return nil
}

func relayDeltas(w *bufio.Writer, stream gateway.DeltaStream, logger *zap.Logger) string {
	outcome := "ok"
	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warn("chat stream interrupted", zap.Error(err))
			outcome = "interrupted"
			break
		}
		if delta == "" {
			continue
		}

		payload, err := json.Marshal(streamChunk{Choices: []streamChoice{{Delta: streamDelta{Content: delta}}}})
		if err != nil {
			logger.Error("encode chat chunk", zap.Error(err))
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return "client_gone"
		}
		if err := w.Flush(); err != nil {
			return "client_gone"
		}
	}

	_, _ = io.WriteString(w, "data: [DONE]\n\n")
	_ = w.Flush()
	return outcome
}

// Predict answers with the model prediction for the posted logs. When the
// gateway fails for reasons other than 429/402 the body is the unavailable
// fallback with an error message.
func (handler *Handler) Predict(c *fiber.Ctx) error {
	var request models.PredictRequest
	if err := c.BodyParser(&request); err != nil {
		predictionsTotal.WithLabelValues("invalid").Inc()
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), handler.streamTimeout)
	defer cancel()

	logs := services.MostRecent(request.Logs, services.PredictionWindowSize)
	result, err := handler.predictionService.Predict(ctx, logs)
	if err != nil {
		outcome := gatewayOutcome(err)
		predictionsTotal.WithLabelValues(outcome).Inc()
		switch outcome {
		case "rate_limited":
			return apiError(c, fiber.StatusTooManyRequests, rateLimitedMessage)
		case "credits_depleted":
			return apiError(c, fiber.StatusPaymentRequired, predictCreditsDepletedMessage)
		}
		predictionFallbacksTotal.Inc()
		handler.logger.Error("prediction request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(models.UnavailablePrediction(gatewayUnavailableMessage))
	}

	predictionsTotal.WithLabelValues("ok").Inc()
	return c.JSON(result)
}

func gatewayOutcome(err error) string {
	switch {
	case errors.Is(err, gateway.ErrGatewayRateLimited):
		return "rate_limited"
	case errors.Is(err, gateway.ErrGatewayCreditsDepleted):
		return "credits_depleted"
	default:
		return "error"
	}
}
