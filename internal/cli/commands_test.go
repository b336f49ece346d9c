package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/terraincognita07/rehab360/internal/api"
	"github.com/terraincognita07/rehab360/internal/db"
	"github.com/terraincognita07/rehab360/internal/gateway"
	"github.com/terraincognita07/rehab360/internal/store"
)

type scriptedCompleter struct {
	content string
}

func (completer scriptedCompleter) Complete(context.Context, []gateway.Message, gateway.CompletionOptions) (string, error) {
	return completer.content, nil
}

type scriptedStreamer struct {
	deltas []string
}

func (streamer scriptedStreamer) StreamChat(context.Context, []gateway.Message) (gateway.DeltaStream, error) {
	return &scriptedDeltaStream{deltas: append([]string(nil), streamer.deltas...)}, nil
}

type scriptedDeltaStream struct {
	deltas []string
}

func (stream *scriptedDeltaStream) Recv() (string, error) {
	if len(stream.deltas) == 0 {
		return "", io.EOF
	}
	next := stream.deltas[0]
	stream.deltas = stream.deltas[1:]
	return next, nil
}

func (stream *scriptedDeltaStream) Close() error { return nil }

type cliHarness struct {
	configPath string
}

// newCLIHarness starts an API server on a loopback port and writes a config
// that points the CLI at it with its own journal directory.
func newCLIHarness(t *testing.T) cliHarness {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "server.db")

	database, err := db.OpenSQLite(dbPath, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	handler := api.NewHandler(database, api.Options{
		SecretKey:    "0123456789abcdef0123456789abcdef",
		ChatStreamer: scriptedStreamer{deltas: []string{"One day ", "at a time."}},
		Completer:    scriptedCompleter{content: `{"riskLevel":"Medium","trend":"Stable","prediction":"Evenings look harder.","actionableTip":"Plan a walk.","confidence":70}`},
	})
	app := api.NewApp(handler, nil)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(listener) }()
	t.Cleanup(func() {
		_ = app.Shutdown()
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	configPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`database:
  path: %s
client:
  base_url: http://%s
store:
  dir: %s
  seed_demo_data: false
log:
  level: error
`, dbPath, listener.Addr().String(), filepath.Join(dir, "journal"))
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cliHarness{configPath: configPath}
}

func (harness cliHarness) run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand(Streams{In: inputFile(t, input), Out: &out, Err: io.Discard})
	root.SetArgs(append([]string{"--config", harness.configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (harness cliHarness) mustRun(t *testing.T, input string, args ...string) string {
	t.Helper()
	output, err := harness.run(t, input, args...)
	if err != nil {
		t.Fatalf("rehab360 %s failed: %v\n%s", strings.Join(args, " "), err, output)
	}
	return output
}

func expectContains(t *testing.T, output string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestJournalSyncsWithServer(t *testing.T) {
	harness := newCLIHarness(t)

	output := harness.mustRun(t, "StrongPass1\nStrongPass1\n", "register", "--email", "sam@example.com")
	expectContains(t, output, "Signed in")

	output = harness.mustRun(t, "", "log", "--date", "2026-03-09", "--sleep-quality", "80", "--craving", "3")
	expectContains(t, output, "Saved 2026-03-09")

	harness.mustRun(t, "", "log", "--date", "2026-03-09", "--mood", "calm")
	output = harness.mustRun(t, "", "list")
	expectContains(t, output, "Daily logs (1)", "2026-03-09", "3/10", "calm")
	if strings.Contains(output, "(unsynced)") {
		t.Fatalf("expected synced entry:\n%s", output)
	}

	output = harness.mustRun(t, "", "predict")
	expectContains(t, output, "Medium", "Evenings look harder.")

	output = harness.mustRun(t, "", "chat", "I", "feel", "restless")
	expectContains(t, output, "One day at a time.")

	output = harness.mustRun(t, "", "insights")
	expectContains(t, output, "Insights", "Last 14 days")

	harness.mustRun(t, "", "logout")
	if _, err := harness.run(t, "", "predict"); !errors.Is(err, store.ErrNoSession) {
		t.Fatalf("expected ErrNoSession after logout, got %v", err)
	}

	// Entries stay on the device without a session.
	output = harness.mustRun(t, "", "list")
	expectContains(t, output, "Daily logs (1)")
}

func TestLoginWithTemporaryPasswordForcesChange(t *testing.T) {
	harness := newCLIHarness(t)
	harness.mustRun(t, "StrongPass1\nStrongPass1\n", "register", "--email", "sam@example.com")
	harness.mustRun(t, "", "log", "--date", "2026-03-09", "--water", "6")
	harness.mustRun(t, "", "logout")

	temporary := temporaryPasswordFrom(t, harness.mustRun(t, "", "reset-password", "sam@example.com"))

	output := harness.mustRun(t, temporary+"\nNewPass123\nNewPass123\n", "login", "--email", "sam@example.com")
	expectContains(t, output, "temporary password", "Password updated", "Signed in", "1 entries on this device")

	if _, err := harness.run(t, "StrongPass1\n", "login", "--email", "sam@example.com"); err == nil {
		t.Fatal("expected old password to be rejected")
	}
	harness.mustRun(t, "NewPass123\n", "login", "--email", "sam@example.com")
}

func TestClearRequiresConfirmation(t *testing.T) {
	harness := newCLIHarness(t)
	harness.mustRun(t, "StrongPass1\nStrongPass1\n", "register", "--email", "sam@example.com")
	harness.mustRun(t, "", "log", "--exercise", "30")

	if _, err := harness.run(t, "", "clear"); err == nil {
		t.Fatal("expected clear without --yes to fail")
	}
	harness.mustRun(t, "", "clear", "--yes")

	output := harness.mustRun(t, "", "list")
	expectContains(t, output, "No entries yet")

	output = harness.mustRun(t, "", "sync")
	expectContains(t, output, "0 entries on this device")
}

func TestLogRequiresAField(t *testing.T) {
	harness := newCLIHarness(t)
	if _, err := harness.run(t, "", "log"); !errors.Is(err, errEmptyPatch) {
		t.Fatalf("expected errEmptyPatch, got %v", err)
	}
	if _, err := harness.run(t, "", "log", "--craving", "11"); err == nil {
		t.Fatal("expected out of range craving to fail")
	}
}

func TestChatLoopHandlesCommands(t *testing.T) {
	harness := newCLIHarness(t)
	harness.mustRun(t, "StrongPass1\nStrongPass1\n", "register", "--email", "sam@example.com")

	output := harness.mustRun(t, "hello\n/clear\n/quit\nignored\n", "chat")
	expectContains(t, output, "Ally: ", "One day at a time.")
	if strings.Count(output, "I'm Ally") < 2 {
		t.Fatalf("expected the greeting again after /clear:\n%s", output)
	}
}

func TestExportWritesSelectedRange(t *testing.T) {
	harness := newCLIHarness(t)
	harness.mustRun(t, "", "log", "--date", "2026-03-01", "--craving", "2")
	harness.mustRun(t, "", "log", "--date", "2026-03-05", "--craving", "5", "--trigger", "stress, work")
	harness.mustRun(t, "", "log", "--date", "2026-03-09", "--craving", "7")

	output := harness.mustRun(t, "", "export", "--from", "2026-03-02")
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d:\n%s", len(lines), output)
	}
	if !strings.HasPrefix(lines[1], "2026-03-05") || !strings.Contains(lines[1], `"stress, work"`) {
		t.Fatalf("unexpected first row %q", lines[1])
	}

	path := filepath.Join(t.TempDir(), "export.json")
	output = harness.mustRun(t, "", "export", "--format", "json", "--output", path)
	expectContains(t, output, "Exported 3 entries", "2026-03-01 to 2026-03-09")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	expectContains(t, string(raw), `"date": "2026-03-09"`, `"craving_intensity": 7`)

	if _, err := harness.run(t, "", "export", "--format", "xml"); !errors.Is(err, errExportFormat) {
		t.Fatalf("expected errExportFormat, got %v", err)
	}
}
