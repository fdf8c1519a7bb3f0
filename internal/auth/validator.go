package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrPolicy         = errors.New("auth: token does not carry the access policy")
	ErrMissingSubject = errors.New("auth: token has no id claim")
)

// ValidatorOptions mirrors the issuer side. Audience is only checked when
// ValidateAudience is set.
type ValidatorOptions struct {
	Issuer           string
	Audience         string
	ValidateAudience bool
	Credentials      *SigningCredentials

	// Now defaults to time.Now.
	Now func() time.Time
}

// Token is a token that passed signature verification.
type Token struct {
	Raw       string
	Claims    Claims
	ExpiresAt time.Time
}

// Subject returns the id claim.
func (t *Token) Subject() string { return t.Claims.Subject() }

// Validator verifies tokens minted by Issuer.
type Validator struct {
	opts ValidatorOptions
}

func NewValidator(opts ValidatorOptions) (*Validator, error) {
	if opts.Credentials == nil || opts.Credentials.Method == nil || opts.Credentials.VerifyKey == nil {
		return nil, ErrMissingSigningKey
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Validator{opts: opts}, nil
}

// Validate performs full validation: signature, issuer, optional audience and
// lifetime with zero clock skew. Expiry failures satisfy
// errors.Is(err, jwt.ErrTokenExpired).
func (v *Validator) Validate(raw string) (*Token, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.opts.Credentials.Method.Alg()}),
		jwt.WithTimeFunc(v.opts.Now),
	}
	if v.opts.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.opts.Issuer))
	}
	if v.opts.ValidateAudience && v.opts.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.opts.Audience))
	}
	return v.parse(raw, jwt.NewParser(opts...))
}

// DecodeForRefresh checks signature and issuer only. Expiry is deliberately
// ignored so an expired token can still be inspected for refresh.
func (v *Validator) DecodeForRefresh(raw string) (*Token, error) {
	p := jwt.NewParser(
		jwt.WithValidMethods([]string{v.opts.Credentials.Method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	tok, err := v.parse(raw, p)
	if err != nil {
		return nil, err
	}
	if v.opts.Issuer != "" {
		if iss, _ := tok.Claims.Get("iss"); iss != v.opts.Issuer {
			return nil, fmt.Errorf("%w: %w", jwt.ErrTokenInvalidClaims, jwt.ErrTokenInvalidIssuer)
		}
	}
	return tok, nil
}

// IsValidForRefresh reports whether the claims carry the access policy role.
func (v *Validator) IsValidForRefresh(claims Claims) bool {
	role, ok := claims.Get(ClaimRole)
	return ok && role == PolicyRole
}

// CheckPolicy is IsValidForRefresh returning ErrPolicy on failure.
func (v *Validator) CheckPolicy(claims Claims) error {
	if !v.IsValidForRefresh(claims) {
		return ErrPolicy
	}
	return nil
}

func (v *Validator) parse(raw string, p *jwt.Parser) (*Token, error) {
	m := jwt.MapClaims{}
	_, err := p.ParseWithClaims(raw, m, func(t *jwt.Token) (any, error) {
		return v.opts.Credentials.VerifyKey, nil
	})
	if err != nil {
		return nil, err
	}

	tok := &Token{Raw: raw, Claims: claimsFromMap(m)}
	if exp, err := m.GetExpirationTime(); err == nil && exp != nil {
		tok.ExpiresAt = exp.Time
	}
	return tok, nil
}
