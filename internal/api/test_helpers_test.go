package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/rehab360/internal/db"
	"github.com/terraincognita07/rehab360/internal/gateway"
)

const testSecret = "test-secret-key"

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type chatStreamerStub struct {
	deltas   []string
	err      error
	received []gateway.Message
}

func (stub *chatStreamerStub) StreamChat(_ context.Context, messages []gateway.Message) (gateway.DeltaStream, error) {
	stub.received = messages
	if stub.err != nil {
		return nil, stub.err
	}
	return &sliceDeltaStream{deltas: append([]string(nil), stub.deltas...)}, nil
}

type sliceDeltaStream struct {
	deltas []string
}

func (stream *sliceDeltaStream) Recv() (string, error) {
	if len(stream.deltas) == 0 {
		return "", io.EOF
	}
	next := stream.deltas[0]
	stream.deltas = stream.deltas[1:]
	return next, nil
}

func (stream *sliceDeltaStream) Close() error {
	return nil
}

type completerStub struct {
	content string
	err     error
	calls   int
}

func (stub *completerStub) Complete(context.Context, []gateway.Message, gateway.CompletionOptions) (string, error) {
	stub.calls++
	return stub.content, stub.err
}

type testApp struct {
	app     *fiber.App
	handler *Handler
}

func newTestApp(t *testing.T, streamer *chatStreamerStub, completer *completerStub) testApp {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "rehab360-test.db"), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	options := Options{
		SecretKey:          testSecret,
		LoginAttemptLimit:  2,
		LoginAttemptWindow: time.Minute,
		Now:                func() time.Time { return testNow },
	}
	if streamer != nil {
		options.ChatStreamer = streamer
	}
	if completer != nil {
		options.Completer = completer
	}

	handler := NewHandler(database, options)
	return testApp{app: NewApp(handler, nil), handler: handler}
}

func (test testApp) do(t *testing.T, method string, path string, token string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	request := httptest.NewRequest(method, path, body)
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := test.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("%s %s read body failed: %v", method, path, err)
	}
	return response.StatusCode, raw
}

func (test testApp) register(t *testing.T, email string) sessionResponse {
	t.Helper()

	status, body := test.do(t, http.MethodPost, "/api/auth/register", "", credentialsInput{Email: email, Password: "StrongPass1"})
	if status != http.StatusCreated {
		t.Fatalf("register expected 201, got %d: %s", status, body)
	}
	var session sessionResponse
	decodeJSON(t, body, &session)
	if session.Token == "" || session.UserID == "" {
		t.Fatalf("expected session in register response, got %s", body)
	}
	return session
}

func decodeJSON(t *testing.T, raw []byte, target any) {
	t.Helper()
	if err := json.Unmarshal(raw, target); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func errorMessage(t *testing.T, raw []byte) string {
	t.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	decodeJSON(t, raw, &payload)
	return payload.Error
}
