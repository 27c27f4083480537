package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind classifies the outcome of a request.
type Kind int

const (
	KindSuccess Kind = iota
	KindClient
	KindAuth
	KindRateLimited
	KindServer
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindClient:
		return "client"
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// UnavailableMessage is shown when no response was received.
const UnavailableMessage = "server unavailable"

// tokenInvalidSignatures are lower-case fragments the backend uses when it
// rejects a bearer token.
var tokenInvalidSignatures = []string{
	"token has expired",
	"token expired",
	"token_expired",
	"token is invalid",
	"invalid token",
	"signature verification failed",
	"signature has expired",
	"not enough segments",
	"token verification failed",
}

// Envelope is the single shape every response is reduced to.
type Envelope struct {
	Success bool
	Kind    Kind
	Status  int
	Message string
	Data    json.RawMessage
}

// Error is returned for every failed request. Use errors.As to inspect it.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Method  string
	URL     string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Method != "" || e.URL != "" {
		fmt.Fprintf(&b, "%s %s: ", e.Method, e.URL)
	}
	if e.Status > 0 {
		fmt.Fprintf(&b, "status %d: ", e.Status)
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	b.WriteString(msg)
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// ServerError reports whether the backend failed with a 5xx.
func (e *Error) ServerError() bool { return e.Kind == KindServer }

// Classify reduces a received HTTP response to an Envelope.
func Classify(status int, body []byte) Envelope {
	env := Envelope{Status: status}
	switch {
	case status >= 200 && status < 300:
		env.Success = true
		env.Kind = KindSuccess
		env.Data = json.RawMessage(body)
		env.Message = stringField(body, "message")
		return env
	case status == http.StatusUnauthorized && IsTokenInvalid(body):
		env.Kind = KindAuth
	case status == http.StatusTooManyRequests:
		env.Kind = KindRateLimited
	case status >= 500:
		env.Kind = KindServer
	default:
		env.Kind = KindClient
	}
	env.Message = ExtractMessage(body)
	if env.Message == "" {
		env.Message = http.StatusText(status)
	}
	return env
}

// Err converts a failed envelope into an *Error. It returns nil on success.
func (e Envelope) Err(method, url string) error {
	if e.Success {
		return nil
	}
	return &Error{Kind: e.Kind, Status: e.Status, Message: e.Message, Method: method, URL: url}
}

// NetworkError wraps a transport failure where no response was received.
func NetworkError(method, url string, err error) *Error {
	return &Error{Kind: KindNetwork, Message: UnavailableMessage, Method: method, URL: url, Err: err}
}

// KindOf returns the Kind carried by err, KindNetwork for foreign errors and
// KindSuccess for nil.
func KindOf(err error) Kind {
	if err == nil {
		return KindSuccess
	}
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return KindNetwork
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Status
	}
	return 0
}

// MessageOf returns a message suitable for display.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var rerr *Error
	if errors.As(err, &rerr) && rerr.Message != "" {
		return rerr.Message
	}
	return err.Error()
}

// IsTokenInvalid reports whether body carries one of the known
// invalid/expired token messages.
func IsTokenInvalid(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	haystack := strings.ToLower(ExtractMessage(body))
	if haystack == "" {
		haystack = strings.ToLower(string(body))
	}
	for _, sig := range tokenInvalidSignatures {
		if strings.Contains(haystack, sig) {
			return true
		}
	}
	return false
}

// ExtractMessage pulls a human readable message out of an error body.
func ExtractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	for _, path := range []string{"message", "error.message", "error", "detail", "errors.0.message", "errors.0", "msg"} {
		if msg := stringField(body, path); msg != "" {
			return msg
		}
	}
	return ""
}

func stringField(body []byte, path string) string {
	if len(body) == 0 {
		return ""
	}
	res := gjson.GetBytes(body, path)
	if res.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(res.String())
}

// Unwrap locates the payload for key inside body. The backend is not
// consistent about nesting, so these are tried in order: data.<key>,
// <key>, data.data.<key>, data.data, data, and finally the whole body.
func Unwrap(body []byte, key string) json.RawMessage {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return nil
	}
	var paths []string
	if key != "" {
		paths = append(paths, "data."+key, key, "data.data."+key)
	}
	paths = append(paths, "data.data", "data")
	for _, path := range paths {
		res := gjson.GetBytes(body, path)
		if !res.Exists() || res.Type == gjson.Null {
			continue
		}
		if path == "data.data" || path == "data" {
			if !res.IsObject() && !res.IsArray() {
				continue
			}
		}
		return json.RawMessage(res.Raw)
	}
	return json.RawMessage(body)
}

// Decode unwraps key from body and decodes it into dest.
func Decode(body []byte, key string, dest any) error {
	if dest == nil {
		return nil
	}
	raw := Unwrap(body, key)
	if len(raw) == 0 {
		return fmt.Errorf("decode response: empty body")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
