package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/terraincognita07/rehab360/internal/models"
)

var ExportCSVHeaders = []string{
	"Date",
	"Sleep hours",
	"Sleep quality",
	"Craving intensity",
	"Craving time",
	"Craving trigger",
	"Mood",
	"Water glasses",
	"Exercise minutes",
	"Meditation minutes",
	"Took meds",
	"Notes",
}

type ExportSummary struct {
	TotalEntries int
	HasData      bool
	DateFrom     string
	DateTo       string
}

type ExportJSONEntry struct {
	Date              string   `json:"date"`
	SleepHours        *float64 `json:"sleep_hours"`
	SleepQuality      *int     `json:"sleep_quality"`
	CravingIntensity  *int     `json:"craving_intensity"`
	CravingTime       string   `json:"craving_time"`
	CravingTrigger    string   `json:"craving_trigger"`
	Mood              string   `json:"mood"`
	WaterGlasses      int      `json:"water_glasses"`
	ExerciseMinutes   int      `json:"exercise_minutes"`
	MeditationMinutes int      `json:"meditation_minutes"`
	TookMeds          bool     `json:"took_meds"`
	Notes             string   `json:"notes"`
}

// SelectExportLogs returns the records inside exportRange, oldest first.
func SelectExportLogs(records []models.DailyLog, exportRange ExportRange) []models.DailyLog {
	selected := make([]models.DailyLog, 0, len(records))
	for _, record := range records {
		if exportRange.Contains(record.LogDate) {
			selected = append(selected, record)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].LogDate < selected[j].LogDate
	})
	return selected
}

func BuildExportSummary(records []models.DailyLog) ExportSummary {
	if len(records) == 0 {
		return ExportSummary{}
	}

	first, last := records[0].LogDate, records[0].LogDate
	for _, record := range records[1:] {
		if record.LogDate < first {
			first = record.LogDate
		}
		if record.LogDate > last {
			last = record.LogDate
		}
	}
	return ExportSummary{
		TotalEntries: len(records),
		HasData:      true,
		DateFrom:     first,
		DateTo:       last,
	}
}

func BuildExportJSONEntries(records []models.DailyLog) []ExportJSONEntry {
	entries := make([]ExportJSONEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, ExportJSONEntry{
			Date:              record.LogDate,
			SleepHours:        record.SleepHours,
			SleepQuality:      record.SleepQuality,
			CravingIntensity:  record.CravingIntensity,
			CravingTime:       stringOrEmpty(record.CravingTime),
			CravingTrigger:    stringOrEmpty(record.CravingTrigger),
			Mood:              stringOrEmpty(record.MoodTag),
			WaterGlasses:      record.WaterGlasses,
			ExerciseMinutes:   record.ExerciseMinutes,
			MeditationMinutes: record.MeditationMinutes,
			TookMeds:          record.TookMeds,
			Notes:             stringOrEmpty(record.Notes),
		})
	}
	return entries
}

// ExportCSVColumns follows ExportCSVHeaders. Absent values are empty cells.
func ExportCSVColumns(record models.DailyLog) []string {
	sleepHours := ""
	if record.SleepHours != nil {
		sleepHours = strconv.FormatFloat(*record.SleepHours, 'f', -1, 64)
	}
	return []string{
		record.LogDate,
		sleepHours,
		intOrEmpty(record.SleepQuality),
		intOrEmpty(record.CravingIntensity),
		stringOrEmpty(record.CravingTime),
		stringOrEmpty(record.CravingTrigger),
		stringOrEmpty(record.MoodTag),
		strconv.Itoa(record.WaterGlasses),
		strconv.Itoa(record.ExerciseMinutes),
		strconv.Itoa(record.MeditationMinutes),
		csvYesNo(record.TookMeds),
		stringOrEmpty(record.Notes),
	}
}

func WriteExportCSV(w io.Writer, records []models.DailyLog) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ExportCSVHeaders); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(ExportCSVColumns(record)); err != nil {
			return fmt.Errorf("write csv row %s: %w", record.LogDate, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func csvYesNo(value bool) string {
	if value {
		return "Yes"
	}
	return "No"
}

func intOrEmpty(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
