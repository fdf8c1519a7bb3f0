package auth

import (
	"errors"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidValidFor         = errors.New("auth: ValidFor must be a positive duration")
	ErrMissingSigningKey       = errors.New("auth: signing credentials are required")
	ErrMissingTokenIDGenerator = errors.New("auth: token id generator is required")
)

// SigningCredentials pairs a signing method with its keys. For HMAC both keys
// are the shared secret.
type SigningCredentials struct {
	Method    jwt.SigningMethod
	SignKey   any
	VerifyKey any
}

// HMACCredentials returns HS256 credentials for a shared secret, or nil when
// the secret is empty.
func HMACCredentials(secret string) *SigningCredentials {
	if secret == "" {
		return nil
	}
	key := []byte(secret)
	return &SigningCredentials{Method: jwt.SigningMethodHS256, SignKey: key, VerifyKey: key}
}

// IssuerOptions configures token minting.
type IssuerOptions struct {
	Issuer string

	// Audience is only written when UseAudience is set.
	Audience    string
	UseAudience bool

	ValidFor    time.Duration
	Credentials *SigningCredentials

	// TokenIDGenerator produces the jti claim.
	TokenIDGenerator func() (string, error)

	// Now defaults to time.Now.
	Now func() time.Time
}

// UUIDTokenID is the default jti generator.
func UUIDTokenID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// AccessToken is an issued credential. RefreshToken is opaque and unrelated
// to the signed token.
type AccessToken struct {
	Token        string `json:"token"`
	ExpiresIn    int    `json:"expiresIn"`
	RefreshToken string `json:"refreshToken"`
}

// Issuer mints signed access tokens.
type Issuer struct {
	opts IssuerOptions
}

// NewIssuer validates options up front; an Issuer that constructs never fails
// for configuration reasons afterwards.
func NewIssuer(opts IssuerOptions) (*Issuer, error) {
	if opts.ValidFor <= 0 {
		return nil, ErrInvalidValidFor
	}
	if opts.Credentials == nil || opts.Credentials.Method == nil || opts.Credentials.SignKey == nil {
		return nil, ErrMissingSigningKey
	}
	if opts.TokenIDGenerator == nil {
		return nil, ErrMissingTokenIDGenerator
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Issuer{opts: opts}, nil
}

// ValidFor reports the configured token lifetime.
func (i *Issuer) ValidFor() time.Duration { return i.opts.ValidFor }

// Issue signs a token carrying claims plus the policy role, a fresh jti and
// the issued-at time.
func (i *Issuer) Issue(claims Claims, refreshToken string) (AccessToken, error) {
	if len(claims) == 0 {
		return AccessToken{}, ErrEmptyClaims
	}
	// Revalidate: Claims may have been built without NewClaims.
	claims, err := NewClaims(claims...)
	if err != nil {
		return AccessToken{}, err
	}

	jti, err := i.opts.TokenIDGenerator()
	if err != nil {
		return AccessToken{}, err
	}

	now := i.opts.Now().UTC()
	m := jwt.MapClaims{}
	for _, c := range claims {
		m[c.Name] = c.Value
	}
	m[ClaimRole] = PolicyRole
	m[ClaimTokenID] = jti
	m[ClaimIssuedAt] = unixEpochRounded(now)
	m["nbf"] = jwt.NewNumericDate(now)
	m["exp"] = jwt.NewNumericDate(now.Add(i.opts.ValidFor))
	if i.opts.Issuer != "" {
		m["iss"] = i.opts.Issuer
	}
	if i.opts.UseAudience && i.opts.Audience != "" {
		m["aud"] = i.opts.Audience
	}

	t := jwt.NewWithClaims(i.opts.Credentials.Method, m)
	signed, err := t.SignedString(i.opts.Credentials.SignKey)
	if err != nil {
		return AccessToken{}, err
	}

	return AccessToken{
		Token:        signed,
		ExpiresIn:    int(i.opts.ValidFor.Seconds()),
		RefreshToken: refreshToken,
	}, nil
}

// unixEpochRounded is whole seconds since the epoch, rounded to nearest.
func unixEpochRounded(t time.Time) int64 {
	return int64(math.Round(float64(t.UnixNano()) / float64(time.Second)))
}
