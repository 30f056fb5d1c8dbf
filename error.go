package gamedex

import (
	"errors"
	"fmt"
)

// Error codes map failures to the categories callers act on.
const (
	EINVALID      = "invalid"          // malformed or wrong-domain input
	ENOTFOUND     = "not_found"        // record does not exist
	EAUTHREQUIRED = "auth_required"    // login never attempted; content needs credentials
	EAUTHFAILED   = "auth_failed"      // login attempted and failed, or session expired
	ETIMEOUT      = "timeout"          // external call exceeded its deadline
	EUNAVAILABLE  = "unavailable"      // transient network or navigation failure
	ECONTENTEMPTY = "content_empty"    // page loaded but produced no usable content
	EEXTRACTION   = "extraction"       // both extraction paths failed
	EPERSISTENCE  = "persistence"      // record store write failed
	EINTERNAL     = "internal"         // unexpected internal error
)

// Error represents an application-specific error. Errors carry a machine
// readable code and a human readable message.
type Error struct {
	// Code is one of the error code constants above.
	Code string

	// Message is a human-readable description of the error.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("gamedex error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper for constructing an *Error with a formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an error and returns its code.
// Non-application errors return EINTERNAL; nil returns an empty string.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an error and returns its message.
// Non-application errors return a generic message; nil returns an empty string.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// hints maps error codes to remediation guidance shown to callers.
var hints = map[string]string{
	EINVALID:      "Provide a well-formed thread URL on the configured forum domain.",
	EAUTHREQUIRED: "This page needs a logged-in session. Configure forum credentials and retry.",
	EAUTHFAILED:   "Login failed. Check your forum credentials.",
	ETIMEOUT:      "The site did not respond in time. Retry in a moment.",
	EUNAVAILABLE:  "The site could not be reached. Check connectivity and retry.",
	ECONTENTEMPTY: "The page loaded but contained no readable content. The thread may be hidden or deleted.",
	EEXTRACTION:   "Could not extract game data from the page content.",
	EPERSISTENCE:  "Saving the record failed. The extracted data is included so nothing is lost.",
}

// ErrorHint returns caller-facing remediation guidance for an error,
// falling back to the error message when no hint is registered.
func ErrorHint(err error) string {
	if err == nil {
		return ""
	}
	if hint, ok := hints[ErrorCode(err)]; ok {
		return hint
	}
	return ErrorMessage(err)
}
