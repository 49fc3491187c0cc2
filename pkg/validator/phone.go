package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits and an optional leading +")

	// ErrInvalidLength indicates phone number is outside the E.164 digit range
	ErrInvalidLength = errors.New("phone number must have between 7 and 15 digits")
)

var (
	phoneRegex     = regexp.MustCompile(`^\+?\d+$`)
	phoneSeparator = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// PhoneValidator handles phone number validation for the user directory
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate checks a phone number and returns it with separators removed.
// Accepts formats like +91 98765 43210, 098765-43210 or (0771) 234 567.
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", ErrEmptyPhone
	}

	sanitized := v.Sanitize(phone)
	if !phoneRegex.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}

	digits := len(strings.TrimPrefix(sanitized, "+"))
	if digits < 7 || digits > 15 {
		return "", ErrInvalidLength
	}

	return sanitized, nil
}

// Sanitize removes common separators from a phone number
func (v *PhoneValidator) Sanitize(phone string) string {
	return phoneSeparator.Replace(strings.TrimSpace(phone))
}

// IsValid is a convenience method that returns true if phone is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}
