package auth

import (
	"encoding/base64"
	"testing"
)

func TestGenerateRefreshToken(t *testing.T) {
	a, err := GenerateRefreshToken(DefaultRefreshTokenSize)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(a)
	if err != nil || len(raw) != DefaultRefreshTokenSize {
		t.Fatalf("expected %d random bytes, got %d (%v)", DefaultRefreshTokenSize, len(raw), err)
	}
	b, _ := GenerateRefreshToken(DefaultRefreshTokenSize)
	if a == b {
		t.Fatalf("expected distinct tokens")
	}
}
