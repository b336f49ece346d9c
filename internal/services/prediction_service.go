package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/terraincognita07/rehab360/internal/gateway"
	"github.com/terraincognita07/rehab360/internal/models"
	"go.uber.org/zap"
)

const predictionSystemPrompt = `You are an AI health analyst for a recovery tracking app. Analyze the user's last 7 days of wellness data and provide a prediction.

IMPORTANT: You must respond with ONLY a valid JSON object (no markdown, no explanation). The JSON must have exactly these fields:
{
  "riskLevel": "Low" | "Medium" | "High",
  "trend": "Improving" | "Stable" | "Declining",
  "prediction": "A specific prediction about the next 2-3 days based on patterns (max 2 sentences)",
  "actionableTip": "One specific, actionable piece of advice (max 1 sentence)",
  "confidence": 0-100
}

ANALYSIS GUIDELINES:
- Low sleep quality (<60%) + high cravings (>6) = High risk
- Declining mood trend over 3+ days = Warning sign
- Exercise and meditation are protective factors
- Look for patterns: weekend cravings, late-night triggers, etc.
- Be specific about days (e.g., "Friday evening may be challenging")`

const (
	PredictionWindowSize  = 7
	predictionTemperature = 0.3
	predictionMaxTokens   = 500
)

var codeFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

type Completer interface {
	Complete(ctx context.Context, messages []gateway.Message, options gateway.CompletionOptions) (string, error)
}

type PredictionService struct {
	gateway Completer
	logger  *zap.Logger
}

func NewPredictionService(completer Completer, logger *zap.Logger) *PredictionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionService{gateway: completer, logger: logger.Named("prediction")}
}

// predictionLogRow is the compact per-day shape shown to the model.
type predictionLogRow struct {
	Date              string   `json:"date"`
	SleepHours        *float64 `json:"sleepHours"`
	SleepQuality      *int     `json:"sleepQuality"`
	CravingIntensity  *int     `json:"cravingIntensity"`
	CravingTrigger    *string  `json:"cravingTrigger"`
	Mood              *string  `json:"mood"`
	ExerciseMinutes   int      `json:"exerciseMinutes"`
	MeditationMinutes int      `json:"meditationMinutes"`
	WaterGlasses      int      `json:"waterGlasses"`
}

// Predict asks the model for a prediction over logs. An answer that cannot be
// parsed or validated falls back to HeuristicPrediction without error. Gateway
// failures are returned to the caller.
func (service *PredictionService) Predict(ctx context.Context, logs []models.DailyLog) (models.PredictionResult, error) {
	if len(logs) == 0 {
		return models.PlaceholderPrediction(), nil
	}
	if service.gateway == nil {
		return models.PredictionResult{}, gateway.ErrGatewayNotConfigured
	}

	rows := make([]predictionLogRow, 0, len(logs))
	for _, entry := range logs {
		rows = append(rows, predictionLogRow{
			Date:              entry.LogDate,
			SleepHours:        entry.SleepHours,
			SleepQuality:      entry.SleepQuality,
			CravingIntensity:  entry.CravingIntensity,
			CravingTrigger:    entry.CravingTrigger,
			Mood:              entry.MoodTag,
			ExerciseMinutes:   entry.ExerciseMinutes,
			MeditationMinutes: entry.MeditationMinutes,
			WaterGlasses:      entry.WaterGlasses,
		})
	}
	encoded, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("encode prediction input: %w", err)
	}

	userMessage := fmt.Sprintf(
		"Here is the user's wellness data for the last %d days:\n\n%s\n\nAnalyze this data and provide your prediction as a JSON object.",
		len(logs),
		encoded,
	)
	content, err := service.gateway.Complete(ctx, []gateway.Message{
		{Role: models.RoleSystem, Content: predictionSystemPrompt},
		{Role: models.RoleUser, Content: userMessage},
	}, gateway.CompletionOptions{Temperature: predictionTemperature, MaxTokens: predictionMaxTokens})
	if err != nil {
		return models.PredictionResult{}, err
	}

	result, err := ParsePredictionContent(content)
	if err != nil {
		service.logger.Warn("unparsable model prediction, using heuristic", zap.Error(err))
		return HeuristicPrediction(logs), nil
	}
	return result, nil
}

// ParsePredictionContent decodes a model answer that may be wrapped in a
// markdown code fence.
func ParsePredictionContent(content string) (models.PredictionResult, error) {
	raw := strings.TrimSpace(content)
	if matches := codeFencePattern.FindStringSubmatch(raw); len(matches) == 2 && strings.TrimSpace(matches[1]) != "" {
		raw = strings.TrimSpace(matches[1])
	}

	// Models sometimes answer with a fractional confidence.
	var decoded struct {
		RiskLevel     string  `json:"riskLevel"`
		Trend         string  `json:"trend"`
		Prediction    string  `json:"prediction"`
		ActionableTip string  `json:"actionableTip"`
		Confidence    float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return models.PredictionResult{}, fmt.Errorf("%w: %v", models.ErrInvalidPrediction, err)
	}
	result := models.PredictionResult{
		RiskLevel:     decoded.RiskLevel,
		Trend:         decoded.Trend,
		Prediction:    decoded.Prediction,
		ActionableTip: decoded.ActionableTip,
		Confidence:    int(math.Round(decoded.Confidence)),
	}
	if err := models.ValidatePrediction(result); err != nil {
		return models.PredictionResult{}, err
	}
	return result, nil
}
