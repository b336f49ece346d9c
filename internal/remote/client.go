// Package remote talks to the rehab360 server: auth, the daily-logs table
// and the chat/predict functions.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/terraincognita07/rehab360/internal/models"
	"go.uber.org/zap"
)

const (
	maxErrorBodyBytes    = 64 * 1024
	maxResponseBodyBytes = 4 * 1024 * 1024
)

var ErrUnauthorized = errors.New("not authorized")

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	StatusCode int
	Message    string
}

func (err *StatusError) Error() string {
	if strings.TrimSpace(err.Message) != "" {
		return err.Message
	}
	return fmt.Sprintf("Request failed with status %d", err.StatusCode)
}

func (err *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && err.StatusCode == http.StatusUnauthorized
}

type AuthResult struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	// MustChangePassword is set after a login with a temporary password.
	MustChangePassword bool `json:"must_change_password"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New returns a client for baseURL. httpClient may be nil.
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
		logger:     logger.Named("remote"),
	}
}

func (client *Client) Register(ctx context.Context, email string, password string) (AuthResult, error) {
	return client.authenticate(ctx, "/api/auth/register", email, password)
}

func (client *Client) Login(ctx context.Context, email string, password string) (AuthResult, error) {
	return client.authenticate(ctx, "/api/auth/login", email, password)
}

func (client *Client) authenticate(ctx context.Context, path string, email string, password string) (AuthResult, error) {
	var result AuthResult
	payload := map[string]string{"email": email, "password": password}
	if err := client.doJSON(ctx, http.MethodPost, path, "", payload, &result); err != nil {
		return AuthResult{}, err
	}
	if result.Token == "" {
		return AuthResult{}, errors.New("server returned no session token")
	}
	return result, nil
}

// ChangePassword replaces the password of the account behind token.
func (client *Client) ChangePassword(ctx context.Context, token string, currentPassword string, newPassword string) error {
	payload := map[string]string{"current_password": currentPassword, "new_password": newPassword}
	return client.doJSON(ctx, http.MethodPost, "/api/auth/change-password", token, payload, nil)
}

func (client *Client) ListRecent(ctx context.Context, token string, limit int) ([]models.DailyLog, error) {
	path := "/api/daily-logs"
	if limit > 0 {
		path += "?" + url.Values{"limit": []string{strconv.Itoa(limit)}}.Encode()
	}
	var logs []models.DailyLog
	if err := client.doJSON(ctx, http.MethodGet, path, token, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (client *Client) Upsert(ctx context.Context, token string, entry models.DailyLog) (models.DailyLog, error) {
	var stored models.DailyLog
	if err := client.doJSON(ctx, http.MethodPut, "/api/daily-logs", token, entry, &stored); err != nil {
		return models.DailyLog{}, err
	}
	return stored, nil
}

func (client *Client) Update(ctx context.Context, token string, id string, patch models.LogPatch) (models.DailyLog, error) {
	var stored models.DailyLog
	path := "/api/daily-logs/" + url.PathEscape(id)
	if err := client.doJSON(ctx, http.MethodPatch, path, token, patch, &stored); err != nil {
		return models.DailyLog{}, err
	}
	return stored, nil
}

func (client *Client) DeleteAll(ctx context.Context, token string) error {
	return client.doJSON(ctx, http.MethodDelete, "/api/daily-logs", token, nil, nil)
}

// OpenChatStream posts request to the chat function and returns the raw
// event-stream body. The caller closes it.
func (client *Client) OpenChatStream(ctx context.Context, token string, request models.ChatRequest) (io.ReadCloser, error) {
	response, err := client.send(ctx, http.MethodPost, "/functions/v1/chat", token, request)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(response); err != nil {
		return nil, err
	}
	return response.Body, nil
}

// Predict posts request to the predict function and returns the raw JSON body.
func (client *Client) Predict(ctx context.Context, token string, request models.PredictRequest) ([]byte, error) {
	response, err := client.send(ctx, http.MethodPost, "/functions/v1/predict", token, request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	if err := checkStatus(response); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read prediction response: %w", err)
	}
	return body, nil
}

func (client *Client) doJSON(ctx context.Context, method string, path string, token string, payload any, target any) error {
	response, err := client.send(ctx, method, path, token, payload)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if err := checkStatus(response); err != nil {
		client.logger.Debug("request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", response.StatusCode),
		)
		return err
	}
	if target == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxResponseBodyBytes))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(response.Body, maxResponseBodyBytes)).Decode(target); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (client *Client) send(ctx context.Context, method string, path string, token string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	request.Header.Set("Accept", "application/json")
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return response, nil
}

func checkStatus(response *http.Response) error {
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return nil
	}
	defer response.Body.Close()

	statusErr := &StatusError{StatusCode: response.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		statusErr.Message = strings.TrimSpace(payload.Error)
	}
	return statusErr
}
