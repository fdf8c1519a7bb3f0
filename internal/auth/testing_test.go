package auth

import (
	"testing"
	"time"
)

const testSecret = "test-secret-value-long-enough-for-hs256"

func newTestPair(t *testing.T, now func() time.Time) (*Issuer, *Validator) {
	t.Helper()

	creds := HMACCredentials(testSecret)
	iss, err := NewIssuer(IssuerOptions{
		Issuer:           "mapdata",
		ValidFor:         15 * time.Minute,
		Credentials:      creds,
		TokenIDGenerator: UUIDTokenID,
		Now:              now,
	})
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	v, err := NewValidator(ValidatorOptions{Issuer: "mapdata", Credentials: creds, Now: now})
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	return iss, v
}

func mustIssue(t *testing.T, iss *Issuer, pairs ...Claim) AccessToken {
	t.Helper()
	claims, err := NewClaims(pairs...)
	if err != nil {
		t.Fatalf("claims: %v", err)
	}
	tok, err := iss.Issue(claims, "r-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}
