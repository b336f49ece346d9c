package services

import (
	"fmt"

	"github.com/terraincognita07/rehab360/internal/models"
)

const (
	insightWindowSize = 7
	maxInsights       = 3

	// A missing craving counts as this neutral value in the trend rule.
	trendNeutralCraving = 5
)

type insightMetrics struct {
	window           []models.DailyLog
	totalRecords     int
	meanSleepQuality float64
	hasSleepQuality  bool
	meanCraving      float64
	hasCraving       bool
	optimalSleepDays int
	sleepDebt        float64
}

type insightRule func(metrics insightMetrics) (models.Insight, bool)

// insightRuleOrder is also the tie-break: only the first maxInsights matches are kept.
var insightRuleOrder = []insightRule{
	criticalSleepCravingRule,
	sleepQualityWarningRule,
	recoveryBaselineRule,
	sleepDebtRule,
	lowCravingRule,
	improvingTrendRule,
}

// InsightRules evaluates the insight rules against the seven most recent
// records and returns at most three insights in rule order.
func InsightRules(records []models.DailyLog) []models.Insight {
	if len(records) == 0 {
		return []models.Insight{{
			ID:          "no-data",
			Severity:    models.SeverityInfo,
			Title:       "Start Tracking",
			Description: "Log your first entry to unlock personalized insights.",
		}}
	}

	metrics := collectInsightMetrics(records)
	insights := make([]models.Insight, 0, maxInsights)
	for _, rule := range insightRuleOrder {
		insight, fired := rule(metrics)
		if !fired {
			continue
		}
		insights = append(insights, insight)
		if len(insights) == maxInsights {
			break
		}
	}

	if len(insights) == 0 {
		insights = append(insights, models.Insight{
			ID:          "general-info",
			Severity:    models.SeverityInfo,
			Title:       "Keep Tracking",
			Description: "Continue logging to unlock deeper insights about your patterns.",
		})
	}
	return insights
}

func collectInsightMetrics(records []models.DailyLog) insightMetrics {
	window := MostRecent(records, insightWindowSize)
	metrics := insightMetrics{
		window:       window,
		totalRecords: len(records),
		sleepDebt:    TotalSleepDebt(window),
	}

	qualitySum, qualityCount := 0, 0
	cravingSum, cravingCount := 0, 0
	for _, record := range window {
		if record.SleepQuality != nil {
			qualitySum += *record.SleepQuality
			qualityCount++
		}
		if record.CravingIntensity != nil {
			cravingSum += *record.CravingIntensity
			cravingCount++
		}
		if record.SleepHours != nil && *record.SleepHours >= 7 && *record.SleepHours <= 9 {
			metrics.optimalSleepDays++
		}
	}
	if qualityCount > 0 {
		metrics.meanSleepQuality = float64(qualitySum) / float64(qualityCount)
		metrics.hasSleepQuality = true
	}
	if cravingCount > 0 {
		metrics.meanCraving = float64(cravingSum) / float64(cravingCount)
		metrics.hasCraving = true
	}
	return metrics
}

func criticalSleepCravingRule(metrics insightMetrics) (models.Insight, bool) {
	if !metrics.hasSleepQuality || !metrics.hasCraving {
		return models.Insight{}, false
	}
	if metrics.meanSleepQuality >= 60 || metrics.meanCraving <= 7 {
		return models.Insight{}, false
	}
	return models.Insight{
		ID:          "critical-correlation",
		Severity:    models.SeverityCritical,
		Title:       "High Risk Alert",
		Description: "Poor sleep is amplifying your cravings. Prioritize rest tonight.",
		Metric:      fmt.Sprintf("%.1f/10 cravings", metrics.meanCraving),
	}, true
}

func sleepQualityWarningRule(metrics insightMetrics) (models.Insight, bool) {
	if !metrics.hasSleepQuality || !metrics.hasCraving {
		return models.Insight{}, false
	}
	if metrics.meanSleepQuality >= 60 || metrics.meanCraving <= 5 {
		return models.Insight{}, false
	}
	return models.Insight{
		ID:       "quality-warning",
		Severity: models.SeverityWarning,
		Title:    "Sleep Quality Impact",
		Description: fmt.Sprintf(
			"Poor sleep quality (%.0f%%) is linked to elevated cravings. Consider a calming bedtime routine.",
			metrics.meanSleepQuality,
		),
		Metric: fmt.Sprintf("%.0f%% quality", metrics.meanSleepQuality),
	}, true
}

func recoveryBaselineRule(metrics insightMetrics) (models.Insight, bool) {
	if metrics.optimalSleepDays < 3 {
		return models.Insight{}, false
	}
	return models.Insight{
		ID:          "recovery-baseline",
		Severity:    models.SeveritySuccess,
		Title:       "Recovery Baseline Achieved",
		Description: fmt.Sprintf("%d days of optimal sleep! Your emotional stability is peaking.", metrics.optimalSleepDays),
		Metric:      fmt.Sprintf("%d-day streak", metrics.optimalSleepDays),
	}, true
}

func sleepDebtRule(metrics insightMetrics) (models.Insight, bool) {
	if metrics.sleepDebt <= 5 {
		return models.Insight{}, false
	}
	return models.Insight{
		ID:          "sleep-debt",
		Severity:    models.SeverityWarning,
		Title:       "Sleep Debt Accumulating",
		Description: fmt.Sprintf("You've accumulated %.1fh of sleep debt this week. Consider an earlier bedtime.", metrics.sleepDebt),
		Metric:      fmt.Sprintf("%.1fh debt", metrics.sleepDebt),
	}, true
}

func lowCravingRule(metrics insightMetrics) (models.Insight, bool) {
	if !metrics.hasCraving || metrics.meanCraving >= 4 || metrics.totalRecords < 3 {
		return models.Insight{}, false
	}
	return models.Insight{
		ID:          "low-craving",
		Severity:    models.SeveritySuccess,
		Title:       "Craving Control Strong",
		Description: fmt.Sprintf("Average intensity at %.1f/10. Your coping strategies are working!", metrics.meanCraving),
		Metric:      fmt.Sprintf("%.1f/10", metrics.meanCraving),
	}, true
}

func improvingTrendRule(metrics insightMetrics) (models.Insight, bool) {
	if len(metrics.window) < 3 {
		return models.Insight{}, false
	}
	recent := trendCravingMean(metrics.window[:3])
	earliest := trendCravingMean(metrics.window[len(metrics.window)-3:])
	if recent >= earliest-1 {
		return models.Insight{}, false
	}
	return models.Insight{
		ID:          "improving-trend",
		Severity:    models.SeveritySuccess,
		Title:       "Positive Momentum",
		Description: fmt.Sprintf("Cravings trending down %.0f%% compared to earlier this week.", (earliest-recent)/earliest*100),
		Metric:      fmt.Sprintf("-%.1f intensity", earliest-recent),
	}, true
}

func trendCravingMean(records []models.DailyLog) float64 {
	sum := 0
	for _, record := range records {
		if record.CravingIntensity == nil {
			sum += trendNeutralCraving
			continue
		}
		sum += *record.CravingIntensity
	}
	return float64(sum) / float64(len(records))
}
