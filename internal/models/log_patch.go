package models

import "errors"

var ErrLogDateImmutable = errors.New("log_date cannot be changed by an update")

// LogPatch is a partial DailyLog. A nil field means "keep the current value".
type LogPatch struct {
	LogDate           *string  `json:"log_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	SleepHours        *float64 `json:"sleep_hours,omitempty" validate:"omitempty,gte=0,lte=24"`
	SleepQuality      *int     `json:"sleep_quality,omitempty" validate:"omitempty,gte=0,lte=100"`
	CravingIntensity  *int     `json:"craving_intensity,omitempty" validate:"omitempty,gte=1,lte=10"`
	CravingTime       *string  `json:"craving_time,omitempty" validate:"omitempty,datetime=15:04"`
	CravingTrigger    *string  `json:"craving_trigger,omitempty" validate:"omitempty,max=80"`
	MoodTag           *string  `json:"mood_tag,omitempty" validate:"omitempty,oneof=happy calm anxious sad angry hopeful tired grateful"`
	WaterGlasses      *int     `json:"water_glasses,omitempty" validate:"omitempty,gte=0"`
	ExerciseMinutes   *int     `json:"exercise_minutes,omitempty" validate:"omitempty,gte=0"`
	MeditationMinutes *int     `json:"meditation_minutes,omitempty" validate:"omitempty,gte=0"`
	TookMeds          *bool    `json:"took_meds,omitempty"`
	Notes             *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func (patch LogPatch) IsEmpty() bool {
	return patch == LogPatch{}
}

// Merge overlays every non-nil field of patch onto base. base is not modified.
func Merge(base DailyLog, patch LogPatch) DailyLog {
	merged := base.Clone()
	if patch.LogDate != nil {
		merged.LogDate = *patch.LogDate
	}
	if patch.SleepHours != nil {
		merged.SleepHours = clonePointer(patch.SleepHours)
	}
	if patch.SleepQuality != nil {
		merged.SleepQuality = clonePointer(patch.SleepQuality)
	}
	if patch.CravingIntensity != nil {
		merged.CravingIntensity = clonePointer(patch.CravingIntensity)
	}
	if patch.CravingTime != nil {
		merged.CravingTime = clonePointer(patch.CravingTime)
	}
	if patch.CravingTrigger != nil {
		merged.CravingTrigger = clonePointer(patch.CravingTrigger)
	}
	if patch.MoodTag != nil {
		merged.MoodTag = clonePointer(patch.MoodTag)
	}
	if patch.WaterGlasses != nil {
		merged.WaterGlasses = *patch.WaterGlasses
	}
	if patch.ExerciseMinutes != nil {
		merged.ExerciseMinutes = *patch.ExerciseMinutes
	}
	if patch.MeditationMinutes != nil {
		merged.MeditationMinutes = *patch.MeditationMinutes
	}
	if patch.TookMeds != nil {
		merged.TookMeds = *patch.TookMeds
	}
	if patch.Notes != nil {
		merged.Notes = clonePointer(patch.Notes)
	}
	return merged
}
