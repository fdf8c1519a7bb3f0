package apierror

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"mapdata-api/pkg/logger"
	"mapdata-api/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const ContentTypeProblem = "application/problem+json"

const (
	TitleModelValidation         = "One or more model validation errors occurred while processing the request."
	TitleUnavailableBusinessUnit = "Api request rejected due to unavailable business unit/division id."

	typeBadRequest          = "https://tools.ietf.org/html/rfc7231#section-6.5.1"
	typeUnprocessableEntity = "https://tools.ietf.org/html/rfc4918#section-11.2"
)

// Problem is an RFC 7807 validation problem body with correlation ids.
type Problem struct {
	Type      string              `json:"type"`
	Title     string              `json:"title"`
	Status    int                 `json:"status"`
	Detail    string              `json:"detail,omitempty"`
	Instance  string              `json:"instance"`
	Errors    map[string][]string `json:"errors"`
	RequestID string              `json:"requestId"`
	TraceID   string              `json:"traceId"`
}

// WriteProblem fills the correlation ids and instance, then aborts with p.
func WriteProblem(c *gin.Context, p Problem) {
	rid := logger.RequestID(c)
	p.RequestID = rid
	p.TraceID = tracing.TraceIDOr(c.Request.Context(), rid)
	p.Instance = c.Request.URL.Path
	if p.Errors == nil {
		p.Errors = map[string][]string{}
	}
	c.Header("Content-Type", ContentTypeProblem)
	c.AbortWithStatusJSON(p.Status, p)
}

// BadRequestProblem rejects the request with 400 and a single error message.
func BadRequestProblem(c *gin.Context, title string) {
	WriteProblem(c, Problem{
		Type:   typeBadRequest,
		Title:  title,
		Status: http.StatusBadRequest,
		Errors: map[string][]string{"Error Message": {title}},
	})
}

// ValidationProblem rejects the request with 422. Field errors from the
// validator are keyed by JSON field name; anything else (malformed JSON,
// wrong types) lands under "body".
func ValidationProblem(c *gin.Context, err error) {
	WriteProblem(c, Problem{
		Type:   typeUnprocessableEntity,
		Title:  TitleModelValidation,
		Status: http.StatusUnprocessableEntity,
		Detail: "Model validation error",
		Errors: fieldErrors(err),
	})
}

func fieldErrors(err error) map[string][]string {
	out := map[string][]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err != nil {
			out["body"] = []string{err.Error()}
		}
		return out
	}
	for _, fe := range verrs {
		name := fe.Field()
		out[name] = append(out[name], fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "The " + fe.Field() + " field is required."
	case "email":
		return "The " + fe.Field() + " field is not a valid e-mail address."
	case "max":
		return "The field " + fe.Field() + " must be at most " + fe.Param() + " characters."
	default:
		return "The field " + fe.Field() + " is invalid (" + strings.TrimSpace(fe.Tag()+" "+fe.Param()) + ")."
	}
}

// UseJSONFieldNames makes gin's validator report fields by their json tag.
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}
