package validation

import (
	"regexp"
	"strings"
	"unicode"

	"sazon/internal/models"
)

var (
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	handleRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	digitRegex  = regexp.MustCompile(`[0-9]`)
)

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if len(password) < 10 {
		return models.NewValidationError("password must be at least 10 characters long")
	}

	// Check maximum length (bcrypt ignores anything past 72 bytes)
	if len(password) > 72 {
		return models.NewValidationError("password must not exceed 72 characters")
	}

	hasUpper, hasLower := false, false
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}
	if !hasUpper {
		return models.NewValidationError("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return models.NewValidationError("password must contain at least one lowercase letter")
	}
	if !digitRegex.MatchString(password) {
		return models.NewValidationError("password must contain at least one digit")
	}

	return nil
}

// ValidateHandle checks if a handle meets requirements
func ValidateHandle(handle string) error {
	if len(handle) < 3 {
		return models.NewValidationError("handle must be at least 3 characters long")
	}

	if len(handle) > 30 {
		return models.NewValidationError("handle must not exceed 30 characters")
	}

	if !handleRegex.MatchString(handle) {
		return models.NewValidationError("handle can only contain letters, numbers, underscores, and hyphens")
	}

	// Cannot start or end with underscore/hyphen
	first, last := handle[0], handle[len(handle)-1]
	if first == '_' || first == '-' || last == '_' || last == '-' {
		return models.NewValidationError("handle cannot start or end with underscore or hyphen")
	}

	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > 100 {
		return models.NewValidationError("email must not exceed 100 characters")
	}
	if !emailRegex.MatchString(email) {
		return models.NewValidationError("invalid email format")
	}
	return nil
}

// NormalizeEmail lower-cases and trims an address before it is compared or stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
