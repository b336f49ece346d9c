package models

const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"

	TrendImproving = "Improving"
	TrendStable    = "Stable"
	TrendDeclining = "Declining"
)

type PredictionResult struct {
	RiskLevel     string `json:"riskLevel" validate:"required,oneof=Low Medium High"`
	Trend         string `json:"trend" validate:"required,oneof=Improving Stable Declining"`
	Prediction    string `json:"prediction"`
	ActionableTip string `json:"actionableTip"`
	Confidence    int    `json:"confidence" validate:"gte=0,lte=100"`
	Error         string `json:"error,omitempty" validate:"-"`
}

func PlaceholderPrediction() PredictionResult {
	return PredictionResult{
		RiskLevel:     RiskMedium,
		Trend:         TrendStable,
		Prediction:    "Start logging your daily wellness to unlock AI-powered predictions.",
		ActionableTip: "Add your first journal entry to get started.",
		Confidence:    0,
	}
}

func FallbackPrediction() PredictionResult {
	return PredictionResult{
		RiskLevel:     RiskMedium,
		Trend:         TrendStable,
		Prediction:    "Continue tracking your wellness journey.",
		ActionableTip: "Log your daily mood and cravings for better insights.",
		Confidence:    0,
	}
}

// UnavailablePrediction is the body the predict endpoint returns when the
// model could not be reached.
func UnavailablePrediction(message string) PredictionResult {
	return PredictionResult{
		RiskLevel:     RiskMedium,
		Trend:         TrendStable,
		Prediction:    "Unable to generate prediction. Please try again later.",
		ActionableTip: "Keep logging your daily wellness data.",
		Confidence:    0,
		Error:         message,
	}
}
