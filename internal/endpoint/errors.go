package endpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leapstack-labs/parq/internal/resultset"
)

// maxReasonLen bounds how much of an error body ends up in a reason.
const maxReasonLen = 500

// NetworkError reports a transport-level failure: the endpoint could not
// be reached or the reply could not be read.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// EndpointError reports a non-2xx reply. Message is the endpoint's own
// explanation, extracted from a JSON, HTML or plain-text body.
type EndpointError struct {
	StatusCode int
	Message    string
}

func (e *EndpointError) Error() string {
	status := fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Message == "" {
		return "endpoint returned " + status
	}
	return fmt.Sprintf("endpoint returned %s: %s", status, e.Message)
}

// DecodeError reports a 2xx reply whose body is not valid JSON.
type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	if e.ContentType == "" {
		return fmt.Sprintf("cannot decode response: %v", e.Err)
	}
	return fmt.Sprintf("cannot decode %s response: %v", e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Reason turns any error produced by this package into a one-line,
// human-readable failure reason.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	var (
		netErr       *NetworkError
		endpointErr  *EndpointError
		decodeErr    *DecodeError
		malformedErr *resultset.MalformedResultError
	)
	switch {
	case errors.As(err, &netErr):
		return "cannot reach endpoint: " + netErr.Err.Error()
	case errors.As(err, &endpointErr):
		return endpointErr.Error()
	case errors.As(err, &malformedErr):
		return "endpoint sent a " + malformedErr.Error()
	case errors.As(err, &decodeErr):
		return "endpoint sent an unreadable reply: " + decodeErr.Err.Error()
	default:
		return err.Error()
	}
}

// parliamentError is the JSON body Parliament's controller advice emits.
type parliamentError struct {
	Status           string `json:"status"`
	Message          string `json:"message"`
	ExceptionMessage string `json:"exception-message"`
	Error            string `json:"error"`
}

func newEndpointError(status int, contentType string, body []byte) *EndpointError {
	return &EndpointError{
		StatusCode: status,
		Message:    errorMessage(mediaType(contentType), body),
	}
}

func errorMessage(mt string, body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}

	switch {
	case strings.HasSuffix(mt, "json"):
		var pe parliamentError
		if err := json.Unmarshal(body, &pe); err == nil {
			parts := make([]string, 0, 2)
			for _, s := range []string{pe.Message, pe.ExceptionMessage, pe.Error} {
				if s != "" && len(parts) < 2 {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return truncate(strings.Join(parts, ": "))
			}
		}
	case mt == "text/html" || mt == "application/xhtml+xml":
		if md, err := htmltomarkdown.ConvertString(text); err == nil {
			text = md
		}
	}

	return truncate(collapseLines(text))
}

func collapseLines(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' })
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxReasonLen {
		return s
	}
	return string(runes[:maxReasonLen]) + "…"
}
