package apierror

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commentInput struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

func TestValidationProblem_FieldErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	UseJSONFieldNames()

	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		var in commentInput
		if err := c.ShouldBindJSON(&in); err != nil {
			ValidationProblem(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"email":"nope"}`)))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, ContentTypeProblem, w.Header().Get("Content-Type"))

	var p Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, TitleModelValidation, p.Title)
	assert.Equal(t, "/x", p.Instance)
	assert.Contains(t, p.Errors, "name")
	assert.Contains(t, p.Errors, "email")
}

func TestValidationProblem_MalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		var in commentInput
		if err := c.ShouldBindJSON(&in); err != nil {
			ValidationProblem(c, err)
			return
		}
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{`)))

	var p Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Contains(t, p.Errors, "body")
}

func TestBadRequestProblem(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) { BadRequestProblem(c, TitleUnavailableBusinessUnit) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var p Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, []string{TitleUnavailableBusinessUnit}, p.Errors["Error Message"])
}
