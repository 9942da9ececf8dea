package domain

import (
	"net/mail"
	"strings"
)

func validateName(v *ValidationError, field, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		v.Add(field, ErrNameRequired)
		return
	}
	if len(name) > MaxNameLength {
		v.Add(field, ErrNameTooLong)
	}
}

func validateDay(v *ValidationError, field string, day int) {
	if day < 1 || day > 31 {
		v.Add(field, ErrDayOutOfRange)
	}
}

// ValidateEmail checks an invitation address
func ValidateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return NewValidationError("email", ErrInvalidEmail)
	}
	return nil
}

// ValidateName checks a free-standing name edit
func ValidateName(v *ValidationError, field, name string) {
	validateName(v, field, name)
}
