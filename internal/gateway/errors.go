package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// User-facing messages for failures that carry no server message.
const (
	MsgNetwork         = "Network error: Unable to connect to the server"
	MsgUnavailable     = "Service temporarily unavailable"
	MsgInvalidResponse = "Invalid response from server"
)

// Kind classifies an APIError for page-level handling.
type Kind int

const (
	// KindNetwork means no HTTP response was obtained (status 0).
	KindNetwork Kind = iota
	// KindAuth means the API rejected the credential (401).
	KindAuth
	// KindNotFound means the entity does not exist (404).
	KindNotFound
	// KindServer is any other non-2xx status.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	default:
		return "server"
	}
}

// APIError is the single normalized failure of a call to the LMS API.
// Status 0 means no response was received. Credential is the bearer token
// the rejected request carried, empty for anonymous calls.
type APIError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Details any    `json:"details,omitempty"`

	Method     string `json:"-"`
	Path       string `json:"-"`
	Credential string `json:"-"`
	Err        error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("lms api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("lms api %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Kind classifies the error by status.
func (e *APIError) Kind() Kind {
	switch e.Status {
	case 0:
		return KindNetwork
	case http.StatusUnauthorized:
		return KindAuth
	case http.StatusNotFound:
		return KindNotFound
	default:
		return KindServer
	}
}

// AsAPIError returns the APIError in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	e, ok := AsAPIError(err)
	return ok && e.Kind() == KindNotFound
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	e, ok := AsAPIError(err)
	return ok && e.Kind() == KindAuth
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	e, ok := AsAPIError(err)
	return ok && e.Kind() == KindNetwork
}

// statusText extracts the reason phrase from resp.Status, falling back to
// the standard text for the code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// errorMessage picks the message for a non-2xx response: a non-empty string
// "message" field, else a non-empty JSON string body, else "HTTP <code>:
// <status text>". The second result is false when a "message" field was
// present but not a string.
func errorMessage(details any, resp *http.Response) (string, bool) {
	wellFormed := true
	switch d := details.(type) {
	case map[string]any:
		if raw, present := d["message"]; present {
			if m, ok := raw.(string); ok && m != "" {
				return m, true
			}
			if _, ok := raw.(string); !ok && raw != nil {
				wellFormed = false
			}
		}
	case string:
		if d != "" {
			return d, true
		}
	}
	return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, statusText(resp)), wellFormed
}
