package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/terraincognita07/rehab360/internal/db"
	"github.com/terraincognita07/rehab360/internal/services"
	"go.uber.org/zap"
)

// RunResetPasswordCommand gives the account a temporary password that must be
// changed on the next login.
func RunResetPasswordCommand(dbPath string, email string, logger *zap.Logger, out io.Writer) error {
	database, err := db.OpenSQLite(dbPath, logger)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}

	authService := services.NewAuthService(db.NewUserRepository(database))
	temporaryPassword, err := authService.ResetPassword(email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAuthCredentialsInvalid):
			return fmt.Errorf("invalid email address %q", email)
		case errors.Is(err, services.ErrAuthUserNotFound):
			return fmt.Errorf("user %s not found", services.NormalizeAuthEmail(email))
		default:
			return fmt.Errorf("reset password: %w", err)
		}
	}

	fmt.Fprintln(out, RenderSuccess("Password reset successful"))
	fmt.Fprintf(out, "Temporary password: %s\n", temporaryPassword)
	fmt.Fprintln(out, "User must change password on next login.")
	return nil
}
