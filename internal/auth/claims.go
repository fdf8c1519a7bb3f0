package auth

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Reserved claim names. rol and id are load-bearing: rol gates access to
// this service, id keys the session cache.
const (
	ClaimRole     = "rol"
	ClaimID       = "id"
	ClaimTokenID  = "jti"
	ClaimIssuedAt = "iat"

	// PolicyRole is the fixed access-policy value carried in rol.
	PolicyRole = "sc_ms_api_access"
)

// reserved names are minted by the Issuer and may not come from callers.
var reserved = map[string]struct{}{
	ClaimRole:     {},
	ClaimTokenID:  {},
	ClaimIssuedAt: {},
	"iss":         {},
	"aud":         {},
	"exp":         {},
	"nbf":         {},
}

var (
	ErrEmptyClaims     = errors.New("auth: claim set is empty")
	ErrReservedClaim   = errors.New("auth: reserved claim name")
	ErrDuplicateClaim  = errors.New("auth: duplicate claim name")
	ErrInvalidClaimKey = errors.New("auth: claim name is empty")
)

// Claim is a name/value pair attached to a token.
type Claim struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value"`
}

// Claims is an ordered claim sequence.
type Claims []Claim

// NewClaims validates caller-supplied claims: non-empty, no reserved names,
// no duplicates.
func NewClaims(pairs ...Claim) (Claims, error) {
	if len(pairs) == 0 {
		return nil, ErrEmptyClaims
	}
	seen := make(map[string]struct{}, len(pairs))
	out := make(Claims, 0, len(pairs))
	for _, p := range pairs {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, ErrInvalidClaimKey
		}
		if _, ok := reserved[name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrReservedClaim, name)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateClaim, name)
		}
		seen[name] = struct{}{}
		out = append(out, Claim{Name: name, Value: p.Value})
	}
	return out, nil
}

// Get returns the value of the first claim with the given name.
func (c Claims) Get(name string) (string, bool) {
	for _, cl := range c {
		if cl.Name == name {
			return cl.Value, true
		}
	}
	return "", false
}

// Subject returns the id claim, the key into the session cache.
func (c Claims) Subject() string {
	v, _ := c.Get(ClaimID)
	return v
}

// Caller strips the claims minted by the Issuer and registered JWT claims,
// leaving what a caller originally supplied.
func (c Claims) Caller() Claims {
	out := make(Claims, 0, len(c))
	for _, cl := range c {
		if _, ok := reserved[cl.Name]; ok {
			continue
		}
		out = append(out, cl)
	}
	return out
}

// claimsFromMap flattens decoded JWT claims into a name-sorted Claims value.
func claimsFromMap(m jwt.MapClaims) Claims {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make(Claims, 0, len(names))
	for _, k := range names {
		out = append(out, Claim{Name: k, Value: claimString(m[k])})
	}
	return out
}

func claimString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, claimString(p))
		}
		return strings.Join(parts, ",")
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
