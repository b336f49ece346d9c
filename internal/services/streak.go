package services

import (
	"time"

	"github.com/terraincognita07/rehab360/internal/models"
)

// CurrentStreak counts consecutive logged days ending today, or ending
// yesterday when today has no entry yet.
func CurrentStreak(records []models.DailyLog, now time.Time) int {
	logged := make(map[string]struct{}, len(records))
	for _, record := range records {
		logged[record.LogDate] = struct{}{}
	}

	cursor := now
	if _, ok := logged[LocalDateString(cursor)]; !ok {
		cursor = cursor.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		if _, ok := logged[LocalDateString(cursor)]; !ok {
			return streak
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
}
