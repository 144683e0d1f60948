package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateOAuthState returns a random, URL-safe value for the OAuth state parameter.
func GenerateOAuthState() (string, error) {
	bytes := make([]byte, 24)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
