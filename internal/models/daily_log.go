package models

import "time"

const (
	LocalUserID   = "local"
	TempIDPrefix  = "temp-"
	LogDateLayout = "2006-01-02"
	ClockLayout   = "15:04"

	MaxNotesLength = 2000
)

const (
	MoodHappy    = "happy"
	MoodCalm     = "calm"
	MoodAnxious  = "anxious"
	MoodSad      = "sad"
	MoodAngry    = "angry"
	MoodHopeful  = "hopeful"
	MoodTired    = "tired"
	MoodGrateful = "grateful"
)

func MoodTags() []string {
	return []string{MoodHappy, MoodCalm, MoodAnxious, MoodSad, MoodAngry, MoodHopeful, MoodTired, MoodGrateful}
}

type DailyLog struct {
	ID                string    `json:"id" gorm:"primaryKey;type:text"`
	UserID            string    `json:"user_id" gorm:"not null;uniqueIndex:uidx_daily_logs_user_date"`
	LogDate           string    `json:"log_date" gorm:"not null;uniqueIndex:uidx_daily_logs_user_date" validate:"required,datetime=2006-01-02"`
	SleepHours        *float64  `json:"sleep_hours" validate:"omitempty,gte=0,lte=24"`
	SleepQuality      *int      `json:"sleep_quality" validate:"omitempty,gte=0,lte=100"`
	CravingIntensity  *int      `json:"craving_intensity" validate:"omitempty,gte=1,lte=10"`
	CravingTime       *string   `json:"craving_time" validate:"omitempty,datetime=15:04"`
	CravingTrigger    *string   `json:"craving_trigger" validate:"omitempty,max=80"`
	MoodTag           *string   `json:"mood_tag" validate:"omitempty,oneof=happy calm anxious sad angry hopeful tired grateful"`
	WaterGlasses      int       `json:"water_glasses" gorm:"not null;default:0" validate:"gte=0"`
	ExerciseMinutes   int       `json:"exercise_minutes" gorm:"not null;default:0" validate:"gte=0"`
	MeditationMinutes int       `json:"meditation_minutes" gorm:"not null;default:0" validate:"gte=0"`
	TookMeds          bool      `json:"took_meds" gorm:"not null;default:false"`
	Notes             *string   `json:"notes" validate:"omitempty,max=2000"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (entry DailyLog) IsTemporary() bool {
	return len(entry.ID) >= len(TempIDPrefix) && entry.ID[:len(TempIDPrefix)] == TempIDPrefix
}

// Clone returns a copy that shares no pointers with entry.
func (entry DailyLog) Clone() DailyLog {
	cloned := entry
	cloned.SleepHours = clonePointer(entry.SleepHours)
	cloned.SleepQuality = clonePointer(entry.SleepQuality)
	cloned.CravingIntensity = clonePointer(entry.CravingIntensity)
	cloned.CravingTime = clonePointer(entry.CravingTime)
	cloned.CravingTrigger = clonePointer(entry.CravingTrigger)
	cloned.MoodTag = clonePointer(entry.MoodTag)
	cloned.Notes = clonePointer(entry.Notes)
	return cloned
}

func CloneLogs(entries []DailyLog) []DailyLog {
	cloned := make([]DailyLog, len(entries))
	for index := range entries {
		cloned[index] = entries[index].Clone()
	}
	return cloned
}

func clonePointer[T any](value *T) *T {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
