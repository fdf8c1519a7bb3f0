package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mapdata-api/internal/apierror"
	"mapdata-api/internal/auth"

	"github.com/gin-gonic/gin"
)

func withClaims(claims auth.Claims) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), claims.Subject(), claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func TestRequirePolicy_AllowsPolicyRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", withClaims(auth.Claims{{Name: "id", Value: "u"}, {Name: auth.ClaimRole, Value: auth.PolicyRole}}),
		RequirePolicy(), func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequirePolicy_ForeignRoleForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", withClaims(auth.Claims{{Name: "id", Value: "u"}, {Name: auth.ClaimRole, Value: "admin"}}),
		RequirePolicy(), func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 403 {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequirePolicy_NoIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", RequirePolicy(), func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 401 {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireBusinessUnit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", RequireBusinessUnit(), func(c *gin.Context) { c.Status(200) })

	cases := []struct {
		name   string
		value  *string
		status int
	}{
		{"missing", nil, 400},
		{"empty", ptr(""), 400},
		{"present", ptr("emea"), 200},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.value != nil {
				req.Header.Set("BusinessUnit", *tc.value)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			if tc.status != 400 {
				return
			}
			if ct := w.Header().Get("Content-Type"); ct != apierror.ContentTypeProblem {
				t.Fatalf("unexpected content type %q", ct)
			}
			var p apierror.Problem
			if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if p.Title != apierror.TitleUnavailableBusinessUnit || p.Status != 400 {
				t.Fatalf("unexpected problem %+v", p)
			}
		})
	}
}

func TestRequireBusinessUnit_AllNamedHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", RequireBusinessUnit("businessunit", "division"), func(c *gin.Context) { c.Status(200) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("businessunit", "emea")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != 400 {
		t.Fatalf("expected 400 without division header, got %d", w.Code)
	}
}

func ptr(s string) *string { return &s }
