package verse

import (
	"errors"
	"fmt"
)

// Kind classifies a failed verse request.
type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindTimeout
	KindServer
	KindMalformedResponse
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server error"
	case KindMalformedResponse:
		return "malformed response"
	case KindNetwork:
		return "network error"
	default:
		return "unknown"
	}
}

// Retryable reports whether a failure of this kind consumes the retry budget
// instead of ending the call.
func (k Kind) Retryable() bool {
	return k != KindInvalidInput
}

// Sentinels for errors.Is matching against an *Error.
var (
	ErrInvalidInput      = errors.New("verse: invalid input")
	ErrTimeout           = errors.New("verse: timeout")
	ErrServer            = errors.New("verse: server error")
	ErrMalformedResponse = errors.New("verse: malformed response")
	ErrNetwork           = errors.New("verse: network error")
)

var kindSentinels = map[Kind]error{
	KindInvalidInput:      ErrInvalidInput,
	KindTimeout:           ErrTimeout,
	KindServer:            ErrServer,
	KindMalformedResponse: ErrMalformedResponse,
	KindNetwork:           ErrNetwork,
}

// Error is the typed failure surfaced by FetchVerseResponse.
type Error struct {
	Kind Kind
	// Detail is a human-readable description; for server errors it carries the
	// service's own "detail" message when one was returned.
	Detail string
	// StatusCode is set for server errors only.
	StatusCode int
	// Attempts is the number of HTTP attempts made before this failure was surfaced.
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	msg := "verse " + e.Kind.String()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel belonging to the error's kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// KindOf extracts the failure kind from err, if it wraps an *Error.
func KindOf(err error) (Kind, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Kind, true
	}
	return 0, false
}
