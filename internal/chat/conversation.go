// Package chat runs a streamed conversation with the Ally assistant.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/terraincognita07/rehab360/internal/models"
	"github.com/terraincognita07/rehab360/internal/remote"
	"go.uber.org/zap"
)

const (
	GreetingID      = "welcome"
	Greeting        = "Hey there! I'm Ally, your recovery companion. 👋 How are you feeling today? I'm here to listen, support, and help you through anything."
	streamingPrefix = "assistant-streaming-"
	readBufferSize  = 4096
)

var (
	ErrBusy            = errors.New("a message is already being answered")
	ErrRateLimited     = errors.New("rate limited")
	ErrCreditsDepleted = errors.New("ai credits depleted")
)

type State int

const (
	StateIdle State = iota
	StateRequesting
	StateStreaming
	StateFinalizing
)

func (state State) String() string {
	switch state {
	case StateRequesting:
		return "requesting"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	default:
		return "idle"
	}
}

type StreamOpener interface {
	OpenChatStream(ctx context.Context, token string, request models.ChatRequest) (io.ReadCloser, error)
}

type Options struct {
	Opener  StreamOpener
	Token   string
	Timeout time.Duration
	Now     func() time.Time
	// OnDelta receives each text fragment as it is appended to the reply.
	OnDelta func(string)
	Logger  *zap.Logger
}

type Conversation struct {
	opener  StreamOpener
	token   string
	timeout time.Duration
	now     func() time.Time
	onDelta func(string)
	logger  *zap.Logger

	mu         sync.Mutex
	state      State
	messages   []models.ChatMessage
	err        error
	generation int
}

func NewConversation(options Options) *Conversation {
	now := options.Now
	if now == nil {
		now = time.Now
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	conversation := &Conversation{
		opener:  options.Opener,
		token:   options.Token,
		timeout: options.Timeout,
		now:     now,
		onDelta: options.OnDelta,
		logger:  logger.Named("chat"),
	}
	conversation.messages = []models.ChatMessage{conversation.greeting()}
	return conversation
}

func (c *Conversation) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ChatMessage(nil), c.messages...)
}

func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err is the error of the last failed Send, cleared by the next Send.
func (c *Conversation) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// ClearHistory resets the conversation to the greeting. Output of a Send
// still in flight is discarded.
func (c *Conversation) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.messages = []models.ChatMessage{c.greeting()}
	c.err = nil
	c.state = StateIdle
}

// Send appends content as a user message and streams the assistant reply
// into one message. On failure the partial reply is replaced by an apology.
func (c *Conversation) Send(ctx context.Context, content string, stats *models.UserStats) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateRequesting
	c.err = nil
	c.messages = append(c.messages, models.ChatMessage{
		ID:        c.messageID("user-"),
		Role:      models.RoleUser,
		Content:   content,
		Timestamp: c.now(),
	})
	request := models.ChatRequest{Messages: wireTurns(c.messages), UserStats: stats}
	generation := c.generation
	c.mu.Unlock()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.stream(ctx, request, generation); err != nil {
		return c.fail(err, generation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return nil
	}
	c.state = StateFinalizing
	if last := len(c.messages) - 1; last >= 0 && strings.HasPrefix(c.messages[last].ID, streamingPrefix) {
		c.messages[last].ID = c.messageID("assistant-")
	}
	c.state = StateIdle
	return nil
}

func (c *Conversation) stream(ctx context.Context, request models.ChatRequest, generation int) error {
	if c.opener == nil {
		return errors.New("chat endpoint is not configured")
	}
	body, err := c.opener.OpenChatStream(ctx, c.token, request)
	if err != nil {
		return err
	}
	defer body.Close()

	c.setState(StateStreaming, generation)

	var decoder Decoder
	buffer := make([]byte, readBufferSize)
	for {
		n, readErr := body.Read(buffer)
		if n > 0 {
			deltas, done := decoder.Feed(buffer[:n])
			c.appendDeltas(deltas, generation)
			if done {
				return nil
			}
		}
		if errors.Is(readErr, io.EOF) {
			deltas, _ := decoder.Flush()
			c.appendDeltas(deltas, generation)
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read chat stream: %w", readErr)
		}
	}
}

func (c *Conversation) appendDeltas(deltas []string, generation int) {
	if len(deltas) == 0 {
		return
	}
	c.mu.Lock()
	if c.generation != generation {
		c.mu.Unlock()
		return
	}
	last := len(c.messages) - 1
	if last < 0 || !strings.HasPrefix(c.messages[last].ID, streamingPrefix) {
		c.messages = append(c.messages, models.ChatMessage{
			ID:        c.messageID(streamingPrefix),
			Role:      models.RoleAssistant,
			Timestamp: c.now(),
		})
		last = len(c.messages) - 1
	}
	for _, delta := range deltas {
		c.messages[last].Content += delta
	}
	c.mu.Unlock()

	if c.onDelta != nil {
		for _, delta := range deltas {
			c.onDelta(delta)
		}
	}
}

func (c *Conversation) fail(err error, generation int) error {
	mapped := classify(err)
	c.logger.Warn("chat request failed", zap.Error(err))

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return mapped
	}
	kept := c.messages[:0]
	for _, message := range c.messages {
		if !strings.HasPrefix(message.ID, streamingPrefix) {
			kept = append(kept, message)
		}
	}
	c.messages = append(kept, models.ChatMessage{
		ID:        c.messageID("error-"),
		Role:      models.RoleAssistant,
		Content:   fmt.Sprintf("I'm having trouble connecting right now. %s. Please try again in a moment. 💙", describe(err)),
		Timestamp: c.now(),
	})
	c.err = mapped
	c.state = StateIdle
	return mapped
}

func (c *Conversation) setState(state State, generation int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == generation {
		c.state = state
	}
}

func (c *Conversation) greeting() models.ChatMessage {
	return models.ChatMessage{
		ID:        GreetingID,
		Role:      models.RoleAssistant,
		Content:   Greeting,
		Timestamp: c.now(),
	}
}

func (c *Conversation) messageID(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, c.now().UnixNano())
}

func wireTurns(messages []models.ChatMessage) []models.ChatTurn {
	turns := make([]models.ChatTurn, 0, len(messages))
	for _, message := range messages {
		if message.ID == GreetingID {
			continue
		}
		turns = append(turns, models.ChatTurn{Role: message.Role, Content: message.Content})
	}
	return turns
}

func classify(err error) error {
	var statusErr *remote.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		case http.StatusPaymentRequired:
			return fmt.Errorf("%w: %w", ErrCreditsDepleted, err)
		}
	}
	return err
}

func describe(err error) string {
	text := err.Error()
	var statusErr *remote.StatusError
	switch {
	case errors.As(err, &statusErr):
		text = statusErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		text = "The request timed out"
	}
	return strings.TrimSuffix(strings.TrimSpace(text), ".")
}
