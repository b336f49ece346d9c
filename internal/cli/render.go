package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/terraincognita07/rehab360/internal/models"
)

var (
	colorAccent  = lipgloss.Color("#5B8DEF")
	colorSuccess = lipgloss.Color("#2ECC71")
	colorWarning = lipgloss.Color("#F4D03F")
	colorDanger  = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#7F8C8D")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	boldStyle    = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorDanger)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(0, 1)
)

func severityStyle(severity models.Severity) lipgloss.Style {
	switch severity {
	case models.SeverityCritical:
		return lipgloss.NewStyle().Bold(true).Foreground(colorDanger)
	case models.SeverityWarning:
		return lipgloss.NewStyle().Bold(true).Foreground(colorWarning)
	case models.SeveritySuccess:
		return lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	default:
		return lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	}
}

func riskStyle(level string) lipgloss.Style {
	switch level {
	case models.RiskHigh:
		return lipgloss.NewStyle().Bold(true).Foreground(colorDanger)
	case models.RiskMedium:
		return lipgloss.NewStyle().Bold(true).Foreground(colorWarning)
	default:
		return lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	}
}

// RenderLogs lists records one per line, newest first as given.
func RenderLogs(logs []models.DailyLog) string {
	if len(logs) == 0 {
		return mutedStyle.Render("No entries yet. Add one with `rehab360 log`.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Daily logs (%d)", len(logs))))
	b.WriteString("\n")
	for _, entry := range logs {
		b.WriteString(renderLogLine(entry))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderLogLine(entry models.DailyLog) string {
	fields := []string{
		"sleep " + formatSleep(entry),
		"craving " + formatOptionalInt(entry.CravingIntensity, "/10"),
		"mood " + formatOptionalString(entry.MoodTag),
		fmt.Sprintf("water %d", entry.WaterGlasses),
		fmt.Sprintf("exercise %dm", entry.ExerciseMinutes),
		fmt.Sprintf("meditation %dm", entry.MeditationMinutes),
	}
	if entry.TookMeds {
		fields = append(fields, "meds ✓")
	}

	id := entry.ID
	if entry.IsTemporary() {
		id += " (unsynced)"
	}
	return fmt.Sprintf("%s  %s  %s", boldStyle.Render(entry.LogDate), strings.Join(fields, " · "), mutedStyle.Render(id))
}

func formatSleep(entry models.DailyLog) string {
	hours := "-"
	if entry.SleepHours != nil {
		hours = fmt.Sprintf("%.1fh", *entry.SleepHours)
	}
	if entry.SleepQuality != nil {
		return fmt.Sprintf("%s q%d", hours, *entry.SleepQuality)
	}
	return hours
}

func formatOptionalInt(value *int, suffix string) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%d%s", *value, suffix)
}

func formatOptionalString(value *string) string {
	if value == nil || *value == "" {
		return "-"
	}
	return *value
}

func RenderInsights(insights []models.Insight) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Insights"))
	for _, insight := range insights {
		b.WriteString("\n")
		heading := severityStyle(insight.Severity).Render(insight.Title)
		if insight.Metric != "" {
			heading += " " + mutedStyle.Render("("+insight.Metric+")")
		}
		b.WriteString(heading)
		b.WriteString("\n  ")
		b.WriteString(insight.Description)
	}
	return b.String()
}

// RenderSummary shows the two-week analytics block with the time-of-day
// craving risk and accumulated sleep debt.
func RenderSummary(summary models.AnalyticsSummary, risks []models.TimeOfDayRisk, sleepDebt float64) string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Last %d days", summary.Days)),
		fmt.Sprintf("Logged days       %d", summary.LoggedDays),
		fmt.Sprintf("Current streak    %d", summary.CurrentStreak),
		fmt.Sprintf("Avg sleep quality %d", summary.AvgSleepQuality),
		fmt.Sprintf("Avg craving       %d/10", summary.AvgCraving),
		fmt.Sprintf("Sleep debt        %.1fh", sleepDebt),
	}
	correlation := fmt.Sprintf("Good sleep → calm days %d%%", summary.CorrelationPercent)
	if summary.StrongCorrelation {
		correlation = successStyle.Render(correlation + " (strong)")
	}
	lines = append(lines, correlation)

	if len(risks) > 0 {
		parts := make([]string, 0, len(risks))
		for _, risk := range risks {
			parts = append(parts, fmt.Sprintf("%s %d%%", risk.Time, risk.Risk))
		}
		lines = append(lines, "Craving risk      "+strings.Join(parts, " · "))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func RenderPrediction(result models.PredictionResult) string {
	lines := []string{
		titleStyle.Render("Tomorrow's outlook"),
		"Risk        " + riskStyle(result.RiskLevel).Render(result.RiskLevel),
		"Trend       " + result.Trend,
		fmt.Sprintf("Confidence  %d%%", result.Confidence),
		"",
		result.Prediction,
		mutedStyle.Render("Tip: " + result.ActionableTip),
	}
	if result.Error != "" {
		lines = append(lines, errorStyle.Render(result.Error))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// RenderChatMessage prefixes the message with its speaker.
func RenderChatMessage(message models.ChatMessage) string {
	switch message.Role {
	case models.RoleUser:
		return boldStyle.Render("You: ") + message.Content
	default:
		return titleStyle.Render("Ally: ") + message.Content
	}
}

func RenderError(err error) string {
	return errorStyle.Render("✗ " + err.Error())
}

func RenderSuccess(message string) string {
	return successStyle.Render("✓ " + message)
}
