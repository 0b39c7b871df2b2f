package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// TokenLength is the length of an issued bearer token in hex characters.
const TokenLength = 40

// GenerateToken mints an opaque bearer token: 20 random bytes, hex encoded.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
