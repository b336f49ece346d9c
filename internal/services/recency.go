package services

import (
	"sort"
	"time"

	"github.com/terraincognita07/rehab360/internal/models"
)

// FilterByRecency keeps the records dated on or after now minus days,
// preserving input order. The cutoff date itself is included.
func FilterByRecency(records []models.DailyLog, days int, now time.Time) []models.DailyLog {
	cutoff := now.AddDate(0, 0, -days).Format(models.LogDateLayout)
	filtered := make([]models.DailyLog, 0, len(records))
	for _, record := range records {
		if record.LogDate >= cutoff {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// MostRecent returns up to limit records ordered by log_date, newest first.
// The input slice is not reordered.
func MostRecent(records []models.DailyLog, limit int) []models.DailyLog {
	sorted := make([]models.DailyLog, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LogDate > sorted[j].LogDate
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func LocalDateString(now time.Time) string {
	return now.Format(models.LogDateLayout)
}
