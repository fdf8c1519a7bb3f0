package httpapi

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"mapdata-api/internal/apierror"
	"mapdata-api/internal/auth"
	"mapdata-api/internal/comments"
	"mapdata-api/internal/stats"

	"github.com/gin-gonic/gin"
)

// HeaderClientKey carries the shared key that authorizes token issuing.
const HeaderClientKey = "x-service-client-key"

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Issuer    *auth.Issuer
	Validator *auth.Validator
	Sessions  *auth.SessionGate
	Comments  *comments.Service
	Stats     *stats.Service

	// ClientKey guards IssueToken. Empty disables the endpoint.
	ClientKey string
}

// --- Auth ---

type issueTokenRequest struct {
	Claims []auth.Claim `json:"claims" binding:"required,min=1,dive"`
}

// IssueToken mints an access token for the supplied claims and opens a
// session for its id claim.
func (h Handlers) IssueToken(c *gin.Context) {
	if h.ClientKey == "" {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "token issuing disabled"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(c.GetHeader(HeaderClientKey)), []byte(h.ClientKey)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid client key"})
		return
	}

	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.ValidationProblem(c, err)
		return
	}
	claims, err := auth.NewClaims(req.Claims...)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	subject := claims.Subject()
	if subject == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "id claim required"})
		return
	}

	tok, err := h.issue(claims)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.Sessions.Open(c.Request.Context(), subject, tok.Token, tok.RefreshToken); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tok)
}

type refreshTokenRequest struct {
	AccessToken  string `json:"accessToken" binding:"required"`
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshToken exchanges a (possibly expired) access token and the refresh
// token issued with it for a new pair, provided the access policy holds and
// the session is still live. The presented refresh token is spent.
func (h Handlers) RefreshToken(c *gin.Context) {
	var req refreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.ValidationProblem(c, err)
		return
	}

	old, err := h.Validator.DecodeForRefresh(req.AccessToken)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if err := h.Validator.CheckPolicy(old.Claims); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	subject := old.Subject()
	if err := h.Sessions.Redeem(c.Request.Context(), subject, req.RefreshToken); err != nil {
		switch {
		case errors.Is(err, auth.ErrRefreshTokenMismatch):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		case errors.Is(err, auth.ErrSessionDenied), errors.Is(err, auth.ErrMissingSubject):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "UnAuthorized. Session Jwt token not valid in Service store."})
		default:
			_ = c.Error(err)
		}
		return
	}

	tok, err := h.issue(old.Claims.Caller())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.Sessions.Rotate(c.Request.Context(), subject, tok.RefreshToken); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tok)
}

func (h Handlers) issue(claims auth.Claims) (auth.AccessToken, error) {
	refresh, err := auth.GenerateRefreshToken(auth.DefaultRefreshTokenSize)
	if err != nil {
		return auth.AccessToken{}, err
	}
	return h.Issuer.Issue(claims, refresh)
}

// Me echoes the authenticated identity.
func (h Handlers) Me(c *gin.Context) {
	subject, err := auth.Subject(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	claims, _ := auth.ClaimsFrom(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"id": subject, "claims": claims.Caller()})
}

// --- Comments ---

type addCommentRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Email   string `json:"email" binding:"required,email,max=320"`
	Message string `json:"message" binding:"required,max=4000"`
}

func (h Handlers) AddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.ValidationProblem(c, err)
		return
	}
	saved, err := h.Comments.Add(c.Request.Context(), req.Name, req.Email, req.Message)
	if errors.Is(err, comments.ErrInvalidComment) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Bad parameter"})
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h Handlers) ListComments(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	out, err := h.Comments.List(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": out})
}

// --- Case statistics ---

// CasesChart serves the daily cases chart; ?dtName selects a district.
func (h Handlers) CasesChart(c *gin.Context) {
	chart, err := h.Stats.CasesChart(c.Request.Context(), c.Query("dtName"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

func (h Handlers) DeathChart(c *gin.Context) {
	chart, err := h.Stats.DeathChart(c.Request.Context(), c.Query("dtName"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

func (h Handlers) StateData(c *gin.Context) {
	totals, err := h.Stats.StateWide(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h Handlers) GridData(c *gin.Context) {
	rows, err := h.Stats.Grid(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GeoJSON serves the district map annotated with case counts.
func (h Handlers) GeoJSON(c *gin.Context) {
	raw, err := h.Stats.GeoJSON(c.Request.Context())
	if errors.Is(err, stats.ErrNoMap) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "map data not available"})
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", raw)
}
