package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrGatewayNotConfigured   = errors.New("llm gateway is not configured")
	ErrGatewayRateLimited     = errors.New("llm gateway rate limited")
	ErrGatewayCreditsDepleted = errors.New("llm gateway credits depleted")
	ErrGatewayEmptyResponse   = errors.New("llm gateway returned no content")
)

const (
	defaultRequestsPerMinute = 60
	defaultBurst             = 5
)

type Config struct {
	BaseURL           string
	APIKey            string
	ChatModel         string
	PredictModel      string
	RequestsPerMinute int
	Burst             int
	Timeout           time.Duration
}

type Message struct {
	Role    string
	Content string
}

type CompletionOptions struct {
	Temperature float32
	MaxTokens   int
}

// DeltaStream yields the text fragments of a streamed chat completion.
// Recv returns io.EOF once the gateway finishes.
type DeltaStream interface {
	Recv() (string, error)
	Close() error
}

type Client struct {
	client       *openai.Client
	limiter      *rate.Limiter
	chatModel    string
	predictModel string
	logger       *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrGatewayNotConfigured
	}

	openaiConfig := openai.DefaultConfig(cfg.APIKey)
	if baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); baseURL != "" {
		openaiConfig.BaseURL = baseURL
	}
	if cfg.Timeout > 0 {
		openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = defaultRequestsPerMinute
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	return &Client{
		client:       openai.NewClientWithConfig(openaiConfig),
		limiter:      rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
		chatModel:    cfg.ChatModel,
		predictModel: cfg.PredictModel,
		logger:       logger.Named("gateway"),
	}, nil
}

func (client *Client) StreamChat(ctx context.Context, messages []Message) (DeltaStream, error) {
	if err := client.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	started := time.Now()
	stream, err := client.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    client.chatModel,
		Messages: toOpenAIMessages(messages),
	})
	if err != nil {
		mapped := classifyError(err)
		observeRequest("chat", mapped, started)
		client.logger.Warn("chat stream request failed", zap.Error(err))
		return nil, mapped
	}
	observeRequest("chat", nil, started)
	return &chatStream{stream: stream}, nil
}

func (client *Client) Complete(ctx context.Context, messages []Message, options CompletionOptions) (string, error) {
	if err := client.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	started := time.Now()
	response, err := client.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       client.predictModel,
		Messages:    toOpenAIMessages(messages),
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	})
	if err != nil {
		mapped := classifyError(err)
		observeRequest("complete", mapped, started)
		client.logger.Warn("completion request failed", zap.Error(err))
		return "", mapped
	}
	observeRequest("complete", nil, started)

	if len(response.Choices) == 0 || strings.TrimSpace(response.Choices[0].Message.Content) == "" {
		return "", ErrGatewayEmptyResponse
	}
	return response.Choices[0].Message.Content, nil
}

// StatusCode reports the HTTP status carried by a gateway error, or 0.
func StatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var requestErr *openai.RequestError
	if errors.As(err, &requestErr) {
		return requestErr.HTTPStatusCode
	}
	return 0
}

func classifyError(err error) error {
	switch StatusCode(err) {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrGatewayRateLimited, err)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w: %w", ErrGatewayCreditsDepleted, err)
	default:
		return err
	}
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, message := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    message.Role,
			Content: message.Content,
		})
	}
	return converted
}

type chatStream struct {
	stream *openai.ChatCompletionStream
}

func (stream *chatStream) Recv() (string, error) {
	for {
		response, err := stream.stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			return "", classifyError(err)
		}
		if len(response.Choices) == 0 {
			continue
		}
		return response.Choices[0].Delta.Content, nil
	}
}

func (stream *chatStream) Close() error {
	return stream.stream.Close()
}
