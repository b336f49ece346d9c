package models

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeveritySuccess  Severity = "success"
	SeverityInfo     Severity = "info"
)

type Insight struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Metric      string   `json:"metric,omitempty"`
}

type TimeOfDay string

const (
	Morning   TimeOfDay = "Morning"
	Afternoon TimeOfDay = "Afternoon"
	Evening   TimeOfDay = "Evening"
	Night     TimeOfDay = "Night"
)

func TimesOfDay() []TimeOfDay {
	return []TimeOfDay{Morning, Afternoon, Evening, Night}
}

type TimeOfDayRisk struct {
	Time TimeOfDay `json:"time"`
	Risk int       `json:"risk"`
}

type AnalyticsSummary struct {
	Days                int     `json:"days"`
	LoggedDays          int     `json:"logged_days"`
	AvgSleepQuality     int     `json:"avg_sleep_quality"`
	AvgCraving          int     `json:"avg_craving"`
	CorrelationPercent  int     `json:"correlation_percent"`
	CorrelationStrength float64 `json:"correlation_strength"`
	StrongCorrelation   bool    `json:"strong_correlation"`
	CurrentStreak       int     `json:"current_streak"`
}

// UserStats is the context the chat assistant receives about recent logs.
type UserStats struct {
	SleepQuality     *int   `json:"sleepQuality,omitempty"`
	MoodTag          string `json:"moodTag,omitempty"`
	CravingIntensity *int   `json:"cravingIntensity,omitempty"`
	CurrentStreak    *int   `json:"currentStreak,omitempty"`
}
