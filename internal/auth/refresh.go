package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// DefaultRefreshTokenSize is the number of random bytes in a refresh token.
const DefaultRefreshTokenSize = 32

// GenerateRefreshToken returns size random bytes, base64 encoded.
func GenerateRefreshToken(size int) (string, error) {
	if size <= 0 {
		return "", errors.New("auth: refresh token size must be > 0")
	}
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
