package services

import (
	"fmt"

	"github.com/terraincognita07/rehab360/internal/models"
)

const (
	heuristicConfidence = 60

	// Substitutes for absent values when averaging.
	heuristicMissingCraving      = 0
	heuristicMissingSleepQuality = 50
)

// HeuristicPrediction derives a prediction from averages alone. It is the
// deterministic answer used when the language model cannot produce one.
func HeuristicPrediction(records []models.DailyLog) models.PredictionResult {
	if len(records) == 0 {
		return models.PlaceholderPrediction()
	}

	cravingSum, sleepSum := 0, 0
	for _, record := range records {
		if record.CravingIntensity != nil {
			cravingSum += *record.CravingIntensity
		} else {
			cravingSum += heuristicMissingCraving
		}
		if record.SleepQuality != nil {
			sleepSum += *record.SleepQuality
		} else {
			sleepSum += heuristicMissingSleepQuality
		}
	}
	avgCraving := float64(cravingSum) / float64(len(records))
	avgSleep := float64(sleepSum) / float64(len(records))

	result := models.PredictionResult{
		RiskLevel:  models.RiskLow,
		Trend:      models.TrendDeclining,
		Confidence: heuristicConfidence,
		Prediction: fmt.Sprintf(
			"Based on your data, your average craving level is %.1f/10. Continue monitoring your triggers.",
			avgCraving,
		),
		ActionableTip: "Maintain your current wellness routine.",
	}

	switch {
	case avgCraving > 6:
		result.RiskLevel = models.RiskHigh
	case avgCraving > 3:
		result.RiskLevel = models.RiskMedium
	}

	switch {
	case avgSleep > 60:
		result.Trend = models.TrendImproving
	case avgSleep > 40:
		result.Trend = models.TrendStable
	}

	if avgSleep < 60 {
		result.ActionableTip = "Focus on improving sleep quality - aim for 7-8 hours tonight."
	}
	return result
}
