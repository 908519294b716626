package session

import (
	"errors"
	"time"

	"github.com/mmcdole/longbox/internal/domain"
)

// FailureKind classifies a failed fetch for the user notification.
type FailureKind int

const (
	// FailureTransport means the server answered with a non-success status.
	FailureTransport FailureKind = iota + 1
	// FailureUnexpected covers everything else: connection errors, timeouts, bad payloads.
	FailureUnexpected
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// Message is the short notification text shown to the user.
func (k FailureKind) Message() string {
	if k == FailureTransport {
		return "server rejected the request"
	}
	return "something unexpected happened"
}

// Failure records the most recent failed fetch.
type Failure struct {
	Kind FailureKind
	Err  error
	At   time.Time
}

// Classify maps a fetch error to its FailureKind.
func Classify(err error) FailureKind {
	if errors.Is(err, domain.ErrRequestRejected) || errors.Is(err, domain.ErrAuthFailed) {
		return FailureTransport
	}
	return FailureUnexpected
}
