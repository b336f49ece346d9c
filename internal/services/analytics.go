package services

import (
	"math"
	"time"

	"github.com/terraincognita07/rehab360/internal/models"
)

const (
	analyticsWindowDays       = 14
	correlationMinRecords     = 3
	strongCorrelationPercent  = 50.0
	highSleepQualityThreshold = 70
)

// BuildAnalyticsSummary reports two-week averages and how closely sleep
// quality tracks craving intensity. Absent values count as 0, matching the
// dashboard charts.
func BuildAnalyticsSummary(records []models.DailyLog, now time.Time) models.AnalyticsSummary {
	window := FilterByRecency(records, analyticsWindowDays, now)
	summary := models.AnalyticsSummary{
		Days:          analyticsWindowDays,
		LoggedDays:    len(window),
		CurrentStreak: CurrentStreak(records, now),
	}

	if len(window) > 0 {
		sleepSum, cravingSum := 0, 0
		highSleepDays, calmHighSleepDays := 0, 0
		for _, record := range window {
			quality := valueOrZero(record.SleepQuality)
			craving := valueOrZero(record.CravingIntensity)
			sleepSum += quality
			cravingSum += craving
			if quality >= highSleepQualityThreshold {
				highSleepDays++
				if craving <= 4 {
					calmHighSleepDays++
				}
			}
		}
		summary.AvgSleepQuality = roundedMean(sleepSum, len(window))
		summary.AvgCraving = roundedMean(cravingSum, len(window))
		if highSleepDays > 0 {
			summary.CorrelationPercent = roundedMean(calmHighSleepDays*100, highSleepDays)
		}
	}

	chart := MostRecent(records, analyticsWindowDays)
	if len(chart) >= correlationMinRecords {
		matching := 0
		for _, record := range chart {
			quality := valueOrZero(record.SleepQuality)
			craving := valueOrZero(record.CravingIntensity)
			if quality < 60 && craving > 6 {
				matching++
			}
			if quality >= highSleepQualityThreshold && craving < 4 {
				matching++
			}
		}
		summary.CorrelationStrength = float64(matching) / float64(len(chart)) * 100
		summary.StrongCorrelation = summary.CorrelationStrength > strongCorrelationPercent
	}
	return summary
}

func valueOrZero(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}

func roundedMean(sum int, count int) int {
	return int(math.Round(float64(sum) / float64(count)))
}
