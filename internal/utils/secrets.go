package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecret returns a hex-encoded random secret of the given byte length.
// HS256 keys shorter than 32 bytes are rejected.
func GenerateSecret(bytes int) (string, error) {
	if bytes < 32 {
		return "", fmt.Errorf("secret must be at least 32 bytes, got %d", bytes)
	}
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateJWTSecrets returns distinct 256-bit secrets for JWT_SECRET, which
// verifies bearer tokens on every protected route, and JWT_REFRESH_SECRET
func GenerateJWTSecrets() (accessSecret, refreshSecret string, err error) {
	if accessSecret, err = GenerateSecret(32); err != nil {
		return "", "", fmt.Errorf("failed to generate access secret: %w", err)
	}
	if refreshSecret, err = GenerateSecret(32); err != nil {
		return "", "", fmt.Errorf("failed to generate refresh secret: %w", err)
	}
	return accessSecret, refreshSecret, nil
}
