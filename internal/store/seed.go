package store

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/terraincognita07/rehab360/internal/models"
)

const SeedDays = 14

var (
	seedCravingTimes    = []string{"08:00", "14:00", "20:00", "23:00"}
	seedCravingTriggers = []string{"stress", "boredom", "social", "habit"}
	seedMoods           = []string{models.MoodHappy, models.MoodCalm, models.MoodAnxious, models.MoodSad, models.MoodAngry}
)

// SeedLogs builds the demo dataset: one schema-valid record per day for the
// SeedDays days ending on today, newest first.
func SeedLogs(today time.Time, random *rand.Rand) []models.DailyLog {
	if random == nil {
		random = rand.New(rand.NewPCG(uint64(today.UnixNano()), 0x5eed))
	}

	logs := make([]models.DailyLog, 0, SeedDays)
	for index := 0; index < SeedDays; index++ {
		day := today.AddDate(0, 0, -index)
		sleepHours := 5 + random.Float64()*4
		sleepQuality := 50 + random.IntN(50)
		craving := 1 + random.IntN(9)
		cravingTime := seedCravingTimes[random.IntN(len(seedCravingTimes))]
		trigger := seedCravingTriggers[random.IntN(len(seedCravingTriggers))]
		mood := seedMoods[random.IntN(len(seedMoods))]

		logs = append(logs, models.DailyLog{
			ID:                fmt.Sprintf("seed-%d", index),
			UserID:            models.LocalUserID,
			LogDate:           day.Format(models.LogDateLayout),
			SleepHours:        &sleepHours,
			SleepQuality:      &sleepQuality,
			CravingIntensity:  &craving,
			CravingTime:       &cravingTime,
			CravingTrigger:    &trigger,
			MoodTag:           &mood,
			WaterGlasses:      random.IntN(10),
			ExerciseMinutes:   random.IntN(60),
			MeditationMinutes: random.IntN(30),
			TookMeds:          random.Float64() > 0.3,
			CreatedAt:         day.UTC(),
			UpdatedAt:         day.UTC(),
		})
	}
	return logs
}
