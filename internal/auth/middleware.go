package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	authorizationHeader = "Authorization"
	bearerScheme        = "Bearer"

	// HeaderTokenExpired is set only when authentication failed because the token expired.
	HeaderTokenExpired = "x-service-token-expired"
)

var ErrMissingBearer = errors.New("auth: missing bearer token")

// State is the per-request authentication state.
type State int

const (
	StateUnauthenticated State = iota
	StateValidating
	StateFailed
	StateValidated
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateFailed:
		return "failed"
	case StateValidated:
		return "validated"
	default:
		return "unauthenticated"
	}
}

// SessionRefresher is the session-cache gate consulted after a token validates.
type SessionRefresher interface {
	Refresh(ctx context.Context, raw string) (bool, error)
}

// Events are hooks into the authentication pipeline.
type Events struct {
	// OnAuthenticationFailed runs on the transition into StateFailed, before the 401 is written.
	OnAuthenticationFailed func(c *gin.Context, err error)
	// OnTokenValidated runs on the transition into StateValidated. A non-nil
	// error vetoes the request.
	OnTokenValidated func(c *gin.Context, tok *Token) error
}

// SessionEvents flags expired tokens with HeaderTokenExpired and revalidates
// every verified token against the session gate.
func SessionEvents(gate SessionRefresher) Events {
	return Events{
		OnAuthenticationFailed: func(c *gin.Context, err error) {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.Writer.Header().Set(HeaderTokenExpired, "true")
			}
		},
		OnTokenValidated: func(c *gin.Context, tok *Token) error {
			ok, err := gate.Refresh(c.Request.Context(), tok.Raw)
			if err != nil {
				return err
			}
			if !ok {
				return ErrSessionDenied
			}
			return nil
		},
	}
}

const ctxState = "auth_state"

// StateOf returns the authentication state recorded for the request.
func StateOf(c *gin.Context) State {
	if v, ok := c.Get(ctxState); ok {
		if s, ok := v.(State); ok {
			return s
		}
	}
	return StateUnauthenticated
}

// Authenticate verifies the bearer token, runs events and injects identity
// into the request context. Failures never reach downstream handlers.
func Authenticate(v *Validator, events Events) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxState, StateUnauthenticated)

		raw, ok := bearerToken(c.GetHeader(authorizationHeader))
		if !ok {
			fail(c, events, ErrMissingBearer)
			return
		}
		c.Set(ctxState, StateValidating)

		tok, err := v.Validate(raw)
		if err != nil {
			fail(c, events, err)
			return
		}

		if events.OnTokenValidated != nil {
			if err := events.OnTokenValidated(c, tok); err != nil {
				fail(c, events, err)
				return
			}
		}

		c.Set(ctxState, StateValidated)
		ctx := WithIdentity(c.Request.Context(), tok.Subject(), tok.Claims)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// bearerToken extracts the credentials of a Bearer authorization header.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func fail(c *gin.Context, events Events, err error) {
	c.Set(ctxState, StateFailed)
	if events.OnAuthenticationFailed != nil {
		events.OnAuthenticationFailed(c, err)
	}

	msg := "invalid token"
	switch {
	case errors.Is(err, ErrMissingBearer):
		msg = "missing bearer token"
		c.Writer.Header().Set("WWW-Authenticate", "Bearer")
	case errors.Is(err, jwt.ErrTokenExpired):
		msg = "token expired"
		c.Writer.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="The token is expired"`)
	case errors.Is(err, ErrSessionDenied):
		msg = "UnAuthorized. Session Jwt token not valid in Service store."
		c.Writer.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	default:
		c.Writer.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	_ = c.Error(err).SetType(gin.ErrorTypePrivate)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
