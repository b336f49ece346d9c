package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/terraincognita07/rehab360/internal/gateway"
	"github.com/terraincognita07/rehab360/internal/models"
)

const assistantSystemPrompt = `You are Ally, a compassionate and clinically-informed recovery coach embedded in the Rehab360 app. Your role is to support users through addiction recovery, mental health challenges, and wellness journeys.

PERSONALITY:
- Warm, empathetic, and non-judgmental
- Clinically grounded but conversational (not robotic)
- Use gentle humor when appropriate
- Keep responses concise (2-4 sentences typically, unless doing an exercise)

CAPABILITIES:
- Provide breathing exercises and grounding techniques
- Offer evidence-based coping strategies
- Celebrate wins and progress
- Validate emotions without enabling harmful behaviors
- Recognize crisis situations and gently suggest professional help

CRISIS PROTOCOL:
- If someone mentions self-harm, suicide, or immediate danger, acknowledge their pain and encourage them to call 988 (Suicide & Crisis Lifeline) or text HOME to 741741
- Never dismiss crisis feelings, but prioritize safety`

type ChatStreamer interface {
	StreamChat(ctx context.Context, messages []gateway.Message) (gateway.DeltaStream, error)
}

type ChatService struct {
	gateway ChatStreamer
}

func NewChatService(streamer ChatStreamer) *ChatService {
	return &ChatService{gateway: streamer}
}

// Stream validates request, prepends the assistant prompt and opens a gateway stream.
func (service *ChatService) Stream(ctx context.Context, request models.ChatRequest) (gateway.DeltaStream, error) {
	if err := models.ValidateChatRequest(request); err != nil {
		return nil, err
	}
	if service.gateway == nil {
		return nil, gateway.ErrGatewayNotConfigured
	}

	messages := make([]gateway.Message, 0, len(request.Messages)+1)
	messages = append(messages, gateway.Message{Role: models.RoleSystem, Content: BuildAssistantPrompt(request.UserStats)})
	for _, turn := range request.Messages {
		messages = append(messages, gateway.Message{Role: turn.Role, Content: turn.Content})
	}
	return service.gateway.StreamChat(ctx, messages)
}

func BuildAssistantPrompt(stats *models.UserStats) string {
	lines := userContextLines(stats)
	if len(lines) == 0 {
		return assistantSystemPrompt
	}
	return assistantSystemPrompt +
		"\n\nUSER CONTEXT (use this to personalize your responses):\n" +
		strings.Join(lines, "\n")
}

func userContextLines(stats *models.UserStats) []string {
	if stats == nil {
		return nil
	}

	lines := make([]string, 0, 4)
	if stats.SleepQuality != nil {
		quality := *stats.SleepQuality
		assessment := "sleep-deprived"
		switch {
		case quality >= 70:
			assessment = "well-rested"
		case quality >= 50:
			assessment = "somewhat rested"
		}
		lines = append(lines, fmt.Sprintf("Sleep quality: %d%% (%s)", quality, assessment))
	}
	if mood := strings.TrimSpace(stats.MoodTag); mood != "" {
		lines = append(lines, "Recent mood: "+mood)
	}
	if stats.CravingIntensity != nil {
		craving := *stats.CravingIntensity
		level := "low"
		switch {
		case craving >= 7:
			level = "HIGH - be extra supportive"
		case craving >= 4:
			level = "moderate"
		}
		lines = append(lines, fmt.Sprintf("Craving intensity: %d/10 (%s)", craving, level))
	}
	if stats.CurrentStreak != nil && *stats.CurrentStreak > 0 {
		lines = append(lines, fmt.Sprintf("Recovery streak: %d days 🔥", *stats.CurrentStreak))
	}
	return lines
}
