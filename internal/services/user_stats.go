package services

import (
	"time"

	"github.com/terraincognita07/rehab360/internal/models"
)

const userStatsWindowDays = 7

// BuildUserStats summarizes the last week for the chat assistant. It returns
// nil when nothing was logged in that window.
func BuildUserStats(records []models.DailyLog, now time.Time) *models.UserStats {
	recent := MostRecent(FilterByRecency(records, userStatsWindowDays, now), -1)
	if len(recent) == 0 {
		return nil
	}

	stats := &models.UserStats{}
	qualitySum, qualityCount := 0, 0
	for _, record := range recent {
		if record.SleepQuality != nil {
			qualitySum += *record.SleepQuality
			qualityCount++
		}
	}
	if qualityCount > 0 {
		average := roundedMean(qualitySum, qualityCount)
		stats.SleepQuality = &average
	}

	latest := recent[0]
	if latest.MoodTag != nil {
		stats.MoodTag = *latest.MoodTag
	}
	if latest.CravingIntensity != nil {
		craving := *latest.CravingIntensity
		stats.CravingIntensity = &craving
	}

	streak := CurrentStreak(records, now)
	stats.CurrentStreak = &streak
	return stats
}
