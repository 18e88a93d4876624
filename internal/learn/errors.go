package learn

import (
	"errors"
	"fmt"
)

// Kind classifies a remote failure.
type Kind int

const (
	// KindTransport covers network errors, timeouts and cancelled requests.
	KindTransport Kind = iota + 1
	// KindRemote covers non-2xx responses and success=false payloads.
	KindRemote
	// KindDecode covers response bodies that could not be parsed.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRemote:
		return "remote"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the uniform failure returned by every Client operation except
// HealthCheck. Message is the server-provided error string when one was sent,
// otherwise a per-operation fallback.
type Error struct {
	Op         string
	Kind       Kind
	StatusCode int
	Message    string
	RequestID  string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransport reports whether err is a transport-level learn.Error.
func IsTransport(err error) bool {
	return kindOf(err) == KindTransport
}

// IsRemote reports whether err was rejected by the platform.
func IsRemote(err error) bool {
	return kindOf(err) == KindRemote
}

// Message extracts the user-facing message from err, falling back to the
// error text for non-learn errors.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Message
	}
	return err.Error()
}

func kindOf(err error) Kind {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return 0
}
