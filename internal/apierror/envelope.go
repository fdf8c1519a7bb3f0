package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Envelope is the body written for an unhandled failure.
type Envelope struct {
	RequestId  string `json:"RequestId"`
	TraceId    string `json:"TraceId"`
	Message    string `json:"Message"`
	StatusCode int    `json:"StatusCode"`
}

// NewEnvelope builds a 500 envelope for err. The message of the directly
// wrapped error is preferred over err's own message.
func NewEnvelope(requestID, traceID string, err error) Envelope {
	return Envelope{
		RequestId:  requestID,
		TraceId:    traceID,
		Message:    Message(err),
		StatusCode: http.StatusInternalServerError,
	}
}

// Message returns the inner error message when err wraps one, else err's own.
// For errors joining several causes the first non-nil one is used.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if inner := errors.Unwrap(err); inner != nil {
		return inner.Error()
	}
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range multi.Unwrap() {
			if inner != nil {
				return inner.Error()
			}
		}
	}
	return err.Error()
}

// JSON renders the envelope indented.
func (e Envelope) JSON() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

func (e Envelope) String() string {
	b, _ := e.JSON()
	return string(b)
}

// panicError converts a recovered value into an error.
func panicError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("%v", v)
}
