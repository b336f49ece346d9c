package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/terraincognita07/rehab360/internal/db"
	"github.com/terraincognita07/rehab360/internal/services"
)

func openAuthService(t *testing.T, dbPath string) *services.AuthService {
	t.Helper()
	database, err := db.OpenSQLite(dbPath, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return services.NewAuthService(db.NewUserRepository(database))
}

func temporaryPasswordFrom(t *testing.T, output string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if value, ok := strings.CutPrefix(line, "Temporary password: "); ok {
			return strings.TrimSpace(value)
		}
	}
	t.Fatalf("no temporary password in output:\n%s", output)
	return ""
}

func TestRunResetPasswordCommandIssuesTemporaryPassword(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rehab360.db")
	auth := openAuthService(t, dbPath)
	if _, err := auth.Register("sam@example.com", "StrongPass1", time.Now()); err != nil {
		t.Fatalf("register: %v", err)
	}

	var out bytes.Buffer
	if err := RunResetPasswordCommand(dbPath, " SAM@example.com ", nil, &out); err != nil {
		t.Fatalf("RunResetPasswordCommand returned error: %v", err)
	}
	temporary := temporaryPasswordFrom(t, out.String())

	user, err := auth.Authenticate("sam@example.com", temporary)
	if err != nil {
		t.Fatalf("authenticate with temporary password: %v", err)
	}
	if !user.MustChangePassword {
		t.Fatal("expected password change to be required")
	}
	if _, err := auth.Authenticate("sam@example.com", "StrongPass1"); err == nil {
		t.Fatal("expected old password to stop working")
	}
}

func TestRunResetPasswordCommandRejectsUnknownUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rehab360.db")

	var out bytes.Buffer
	err := RunResetPasswordCommand(dbPath, "nobody@example.com", nil, &out)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}

	err = RunResetPasswordCommand(dbPath, "not-an-email", nil, &out)
	if err == nil || !strings.Contains(err.Error(), "invalid email") {
		t.Fatalf("expected invalid email error, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output on failure, got %q", out.String())
	}
}
