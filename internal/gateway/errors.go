package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed request.
type Kind int

const (
	KindUnknown Kind = iota
	AuthExpired
	ValidationFailure
	NotFound
	Conflict
	ServerError
	NetworkFailure
	ParseFailure
)

func (k Kind) String() string {
	switch k {
	case AuthExpired:
		return "auth_expired"
	case ValidationFailure:
		return "validation_failure"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case ServerError:
		return "server_error"
	case NetworkFailure:
		return "network_failure"
	case ParseFailure:
		return "parse_failure"
	default:
		return "unknown"
	}
}

// RequestError is the only error type Request returns for expected failures.
type RequestError struct {
	Kind     Kind
	Method   string
	Path     string
	Status   int
	Messages []string
	Err      error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "gateway: %s %s: %s", e.Method, e.Path, e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if len(e.Messages) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Messages, "; "))
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RequestError) Unwrap() error { return e.Err }

// ServerMessage is the server-provided text, verbatim, or "" when the
// server did not send any.
func (e *RequestError) ServerMessage() string {
	return strings.Join(e.Messages, "\n")
}

// KindOf extracts the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// IsAuthExpired reports whether err ended the session.
func IsAuthExpired(err error) bool {
	return KindOf(err) == AuthExpired
}

// UserMessage renders err for a notification: server text when present,
// otherwise a fallback per kind prefixed by what was being attempted.
func UserMessage(action string, err error) string {
	var re *RequestError
	if !errors.As(err, &re) {
		if action == "" {
			return "Unexpected error: " + err.Error()
		}
		return fmt.Sprintf("%s failed: %v", action, err)
	}
	if msg := re.ServerMessage(); msg != "" {
		return msg
	}
	var reason string
	switch re.Kind {
	case NetworkFailure:
		reason = "the server could not be reached"
	case ParseFailure:
		reason = "the server sent an unreadable response"
	case NotFound:
		reason = "the record no longer exists"
	case Conflict:
		reason = "the record was changed elsewhere"
	case ValidationFailure:
		reason = "the input was rejected"
	default:
		if re.Status != 0 {
			reason = strings.ToLower(http.StatusText(re.Status))
		}
		if reason == "" {
			reason = "server error"
		}
	}
	if action == "" {
		return reason
	}
	return fmt.Sprintf("%s failed: %s", action, reason)
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return AuthExpired
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ValidationFailure
	case status == http.StatusNotFound:
		return NotFound
	case status == http.StatusConflict:
		return Conflict
	default:
		return ServerError
	}
}
