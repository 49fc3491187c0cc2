package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// BookingReferenceGenerator produces external booking ids
// Format: BUS-YYYYMMDDHHMMSS-XXXXXX (6 hex chars)
// Example: BUS-20250114093012-A1B2C3
type BookingReferenceGenerator struct {
	now func() time.Time
}

// NewBookingReferenceGenerator creates a generator using the wall clock
func NewBookingReferenceGenerator() *BookingReferenceGenerator {
	return &BookingReferenceGenerator{now: time.Now}
}

// NewBookingID returns a fresh time-derived reference
func (g *BookingReferenceGenerator) NewBookingID() (string, error) {
	randomBytes := make([]byte, 3)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return fmt.Sprintf("BUS-%s-%s",
		g.now().UTC().Format("20060102150405"),
		strings.ToUpper(hex.EncodeToString(randomBytes)),
	), nil
}
