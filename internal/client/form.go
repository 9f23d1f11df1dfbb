package client

import (
	"strings"

	"github.com/sakif/found/internal/apperror"
	"github.com/sakif/found/internal/auth"
)

// ValidateAuthForm checks the sign-in / sign-up form before anything is
// sent. confirm is only checked when register is true.
func ValidateAuthForm(email, password, confirm string, register bool) error {
	if strings.TrimSpace(email) == "" || password == "" || (register && confirm == "") {
		return apperror.ValidationFailed("", "Please fill in all fields")
	}
	if !strings.Contains(email, "@") {
		return apperror.ValidationFailed("email", "Please enter a valid email address")
	}
	if len([]rune(password)) < auth.MinPasswordLength {
		return apperror.ValidationFailed("password", "Password must be at least 6 characters long")
	}
	if register && password != confirm {
		return apperror.ValidationFailed("confirm", "Passwords do not match")
	}
	return nil
}
