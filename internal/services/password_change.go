package services

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordChangeInvalidInput = errors.New("password change invalid input")
	ErrInvalidCurrentPassword     = errors.New("invalid current password")
	ErrNewPasswordMustDiffer      = errors.New("new password must differ")
	ErrPasswordChangeFailed       = errors.New("password change failed")
)

func ValidatePasswordChange(passwordHash string, currentPassword string, newPassword string) error {
	if strings.TrimSpace(currentPassword) == "" || strings.TrimSpace(newPassword) == "" {
		return ErrPasswordChangeInvalidInput
	}
	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(currentPassword)) != nil {
		return ErrInvalidCurrentPassword
	}
	if currentPassword == newPassword {
		return ErrNewPasswordMustDiffer
	}
	return ValidatePasswordStrength(newPassword)
}

// ChangePassword replaces the password of userID and clears the
// must-change flag set by ResetPassword.
func (service *AuthService) ChangePassword(userID string, currentPassword string, newPassword string) error {
	user, err := service.FindByID(userID)
	if err != nil {
		return err
	}
	if err := ValidatePasswordChange(user.PasswordHash, currentPassword, newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordChangeFailed, err)
	}
	if err := service.users.UpdatePassword(user.ID, string(hash), false); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordChangeFailed, err)
	}
	return nil
}
