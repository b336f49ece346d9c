package services

import (
	"math"
	"strings"
	"time"

	"github.com/terraincognita07/rehab360/internal/models"
)

// Remote rows may carry seconds ("20:15:00").
var cravingClockLayouts = []string{models.ClockLayout, "15:04:05"}

func TimeOfDayForHour(hour int) models.TimeOfDay {
	switch {
	case hour >= 5 && hour <= 11:
		return models.Morning
	case hour >= 12 && hour <= 16:
		return models.Afternoon
	case hour >= 17 && hour <= 20:
		return models.Evening
	default:
		return models.Night
	}
}

func parseCravingHour(raw string) (int, bool) {
	value := strings.TrimSpace(raw)
	for _, layout := range cravingClockLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed.Hour(), true
		}
	}
	return 0, false
}

// CravingRiskByTimeOfDay averages craving intensity per time-of-day bucket and
// scales it to 0-100. The result always lists Morning, Afternoon, Evening and
// Night in that order; a bucket without records reports 0.
func CravingRiskByTimeOfDay(records []models.DailyLog) []models.TimeOfDayRisk {
	sums := make(map[models.TimeOfDay]int, 4)
	counts := make(map[models.TimeOfDay]int, 4)
	for _, record := range records {
		if record.CravingTime == nil || record.CravingIntensity == nil {
			continue
		}
		hour, ok := parseCravingHour(*record.CravingTime)
		if !ok {
			continue
		}
		bucket := TimeOfDayForHour(hour)
		sums[bucket] += *record.CravingIntensity
		counts[bucket]++
	}

	risks := make([]models.TimeOfDayRisk, 0, 4)
	for _, bucket := range models.TimesOfDay() {
		risk := 0
		if counts[bucket] > 0 {
			average := float64(sums[bucket]) / float64(counts[bucket])
			risk = int(math.Round(average * 10))
		}
		risks = append(risks, models.TimeOfDayRisk{Time: bucket, Risk: risk})
	}
	return risks
}
