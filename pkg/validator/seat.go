package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoSeats indicates no seat labels were supplied
	ErrNoSeats = errors.New("at least one seat number is required")

	// ErrInvalidSeatLabel indicates a label is empty, too long or has unsupported characters
	ErrInvalidSeatLabel = errors.New("seat numbers must be 1-16 letters, digits or separators")

	// ErrDuplicateSeat indicates the same label was requested twice
	ErrDuplicateSeat = errors.New("seat numbers must be unique")
)

// seatRegex accepts free-form labels such as A1, 12B, A-1 or UPPER 4
var seatRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9 ._/-]{0,15}$`)

// SeatValidator validates seat labels on a booking request
type SeatValidator struct{}

// NewSeatValidator creates a new seat validator instance
func NewSeatValidator() *SeatValidator {
	return &SeatValidator{}
}

// Validate normalizes labels to upper case and rejects malformed or repeated ones.
// The returned slice keeps the caller's order.
func (v *SeatValidator) Validate(seats []string) ([]string, error) {
	if len(seats) == 0 {
		return nil, ErrNoSeats
	}

	normalized := make([]string, 0, len(seats))
	seen := make(map[string]struct{}, len(seats))
	for _, seat := range seats {
		label := strings.ToUpper(strings.TrimSpace(seat))
		if !seatRegex.MatchString(label) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSeatLabel, seat)
		}
		if _, dup := seen[label]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSeat, label)
		}
		seen[label] = struct{}{}
		normalized = append(normalized, label)
	}
	return normalized, nil
}
