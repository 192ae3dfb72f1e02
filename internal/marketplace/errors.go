// internal/marketplace/errors.go
package marketplace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmespath/go-jmespath"
)

// Kind tags a marketplace failure once, at the call boundary. Downstream code
// branches on the tag and never re-inspects messages.
type Kind int

const (
	// KindSignatureInput covers malformed signing input; defensive only,
	// should not occur at runtime.
	KindSignatureInput Kind = iota
	// KindTokenNotFound: no stored token for the shop. Terminal for the
	// shop this pass; remediation is out-of-band re-authorization.
	KindTokenNotFound
	// KindRefreshDenied: the marketplace rejected the refresh token.
	// Terminal for the current attempt, never retried within a pass.
	KindRefreshDenied
	// KindRemoteAuth: the call failed because the access token is invalid
	// or expired. Recovered locally by exactly one refresh+retry.
	KindRemoteAuth
	// KindRemoteValidation: missing/invalid parameters. Never retried.
	KindRemoteValidation
	// KindRemoteTransient: network error, timeout or 5xx.
	KindRemoteTransient
)

func (k Kind) String() string {
	switch k {
	case KindSignatureInput:
		return "signature_input"
	case KindTokenNotFound:
		return "token_not_found"
	case KindRefreshDenied:
		return "refresh_denied"
	case KindRemoteAuth:
		return "remote_auth"
	case KindRemoteValidation:
		return "remote_validation"
	default:
		return "remote_transient"
	}
}

// Error is the tagged failure type every marketplace operation returns.
type Error struct {
	Kind    Kind
	Code    string // marketplace error code, e.g. "error_auth"
	Message string
	Status  int // HTTP status, 0 when the request never completed
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("marketplace %s: %s (%s)", e.Kind, e.Message, e.Code)
	}
	if e.cause != nil {
		return fmt.Sprintf("marketplace %s: %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("marketplace %s (%s)", e.Kind, e.Code)
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the tag; ok is false for untagged errors.
func KindOf(err error) (Kind, bool) {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind, true
	}
	return 0, false
}

// IsAuthFailure reports whether err is the one failure the gateway recovers
// from with a refresh+retry.
func IsAuthFailure(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindRemoteAuth
}

// authCodes are the marketplace error codes that mean "token invalid".
var authCodes = map[string]bool{
	"error_auth":           true,
	"error_permission":     false, // permission is not a token problem
	"invalid_access_token": true,
	"invalid_acess_token":  true, // upstream typo seen in the wild
}

// authMessageHints classify by message pattern when the code is generic.
var authMessageHints = []string{
	"invalid access_token",
	"invalid access token",
	"access token expired",
	"no access_token",
}

// classifyResponse turns a completed marketplace response into a tagged error,
// or nil when the envelope carries no error. Error and message fields are
// pulled out of the decoded body with jmespath so nested envelopes ("response"
// wrappers) classify the same as flat ones.
func classifyResponse(status int, body any) *Error {
	code := searchString(body, "error")
	if code == "" {
		code = searchString(body, "response.error")
	}
	msg := searchString(body, "message")
	if msg == "" {
		msg = searchString(body, "response.message")
	}
	if code == "" && status < 400 {
		return nil
	}
	e := &Error{Code: code, Message: msg, Status: status}
	switch {
	case isAuthCode(code) || hasAuthHint(msg):
		e.Kind = KindRemoteAuth
	case status >= 500:
		e.Kind = KindRemoteTransient
	default:
		e.Kind = KindRemoteValidation
	}
	return e
}

// classifyTransport wraps a transport-level failure (dial, TLS, timeout).
func classifyTransport(err error) *Error {
	return &Error{Kind: KindRemoteTransient, cause: err}
}

func isAuthCode(code string) bool {
	if code == "" {
		return false
	}
	if v, ok := authCodes[code]; ok {
		return v
	}
	return strings.Contains(code, "auth")
}

func hasAuthHint(msg string) bool {
	m := strings.ToLower(msg)
	for _, h := range authMessageHints {
		if strings.Contains(m, h) {
			return true
		}
	}
	return false
}

func searchString(body any, path string) string {
	if body == nil {
		return ""
	}
	v, err := jmespath.Search(path, body)
	if err != nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
