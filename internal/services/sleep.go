package services

import "github.com/terraincognita07/rehab360/internal/models"

const DefaultIdealSleepHours = 8.0

func SleepDebt(hoursSlept float64, idealHours float64) float64 {
	debt := idealHours - hoursSlept
	if debt < 0 {
		return 0
	}
	return debt
}

// TotalSleepDebt sums SleepDebt against the default ideal across records.
// A record without sleep hours counts as a night with no sleep.
func TotalSleepDebt(records []models.DailyLog) float64 {
	total := 0.0
	for _, record := range records {
		hours := 0.0
		if record.SleepHours != nil {
			hours = *record.SleepHours
		}
		total += SleepDebt(hours, DefaultIdealSleepHours)
	}
	return total
}
