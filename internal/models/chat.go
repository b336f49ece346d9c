package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatTurn is the wire form of a message sent to the assistant endpoint.
type ChatTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type ChatRequest struct {
	Messages  []ChatTurn `json:"messages" validate:"required,min=1,dive"`
	UserStats *UserStats `json:"userStats,omitempty"`
}

type PredictRequest struct {
	Logs []DailyLog `json:"logs"`
}
