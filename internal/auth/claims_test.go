package auth

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewClaims_Validation(t *testing.T) {
	if _, err := NewClaims(); !errors.Is(err, ErrEmptyClaims) {
		t.Fatalf("expected ErrEmptyClaims, got %v", err)
	}
	for _, name := range []string{"rol", "jti", "iat", "exp", "iss"} {
		if _, err := NewClaims(Claim{name, "x"}); !errors.Is(err, ErrReservedClaim) {
			t.Fatalf("%s: expected ErrReservedClaim, got %v", name, err)
		}
	}
	if _, err := NewClaims(Claim{"a", "1"}, Claim{"a", "2"}); !errors.Is(err, ErrDuplicateClaim) {
		t.Fatalf("expected ErrDuplicateClaim, got %v", err)
	}
	if _, err := NewClaims(Claim{" ", "1"}); !errors.Is(err, ErrInvalidClaimKey) {
		t.Fatalf("expected ErrInvalidClaimKey, got %v", err)
	}
}

func TestNewClaims_PreservesOrder(t *testing.T) {
	c, err := NewClaims(Claim{"id", "u1"}, Claim{"dept", "eng"})
	if err != nil {
		t.Fatalf("claims: %v", err)
	}
	if c[0].Name != "id" || c[1].Name != "dept" {
		t.Fatalf("unexpected order: %+v", c)
	}
	if c.Subject() != "u1" {
		t.Fatalf("expected subject u1")
	}
}

func TestClaims_CallerStripsReserved(t *testing.T) {
	decoded := claimsFromMap(jwt.MapClaims{
		"id": "u1", "rol": PolicyRole, "jti": "x", "iat": float64(1700000000), "exp": float64(1700000900), "dept": "eng",
	})
	caller := decoded.Caller()
	if len(caller) != 2 {
		t.Fatalf("expected 2 caller claims, got %+v", caller)
	}
	if v, _ := decoded.Get("iat"); v != "1700000000" {
		t.Fatalf("expected integral iat, got %q", v)
	}
}
