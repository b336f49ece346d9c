// Package prediction fetches the risk/trend outlook for recent logs.
package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/terraincognita07/rehab360/internal/models"
	"github.com/terraincognita07/rehab360/internal/remote"
	"github.com/terraincognita07/rehab360/internal/services"
	"go.uber.org/zap"
)

var (
	ErrRateLimited           = errors.New("prediction rate limited")
	ErrCreditsDepleted       = errors.New("ai credits depleted")
	ErrPredictionUnavailable = errors.New("prediction unavailable")
)

type Predictor interface {
	Predict(ctx context.Context, token string, request models.PredictRequest) ([]byte, error)
}

type Client struct {
	predictor Predictor
	token     string
	logger    *zap.Logger
}

func NewClient(predictor Predictor, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{predictor: predictor, token: token, logger: logger.Named("prediction")}
}

// FetchPrediction asks the predict function about the most recent records.
// Every failure returns the fallback result together with the error.
func (client *Client) FetchPrediction(ctx context.Context, records []models.DailyLog) (models.PredictionResult, error) {
	if len(records) == 0 {
		return models.PlaceholderPrediction(), nil
	}

	request := models.PredictRequest{Logs: services.MostRecent(records, services.PredictionWindowSize)}
	body, err := client.predictor.Predict(ctx, client.token, request)
	if err != nil {
		return client.fallback(classify(err), err)
	}

	var result models.PredictionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return client.fallback(fmt.Errorf("%w: decode response: %v", ErrPredictionUnavailable, err), err)
	}
	if err := models.ValidatePrediction(result); err != nil {
		return client.fallback(fmt.Errorf("%w: %v", ErrPredictionUnavailable, err), err)
	}
	return result, nil
}

func (client *Client) fallback(mapped error, cause error) (models.PredictionResult, error) {
	client.logger.Warn("prediction failed", zap.Error(cause))
	return models.FallbackPrediction(), mapped
}

func classify(err error) error {
	var statusErr *remote.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		case http.StatusPaymentRequired:
			return fmt.Errorf("%w: %w", ErrCreditsDepleted, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrPredictionUnavailable, err)
}
