package apperrors

import (
	"errors"
	"fmt"
)

// Kind is the top-level category of a classified failure.
type Kind string

const (
	KindNotFound    Kind = "resource-not-found"
	KindNetwork     Kind = "upstream-network"
	KindTimeout     Kind = "upstream-timeout"
	KindBadResponse Kind = "upstream-bad-response"
	KindUnknown     Kind = "unknown"
)

// Classification is the sub-category of an upstream bad response.
// Callers use it to pick a recovery strategy: wait out a rate limit,
// alert a human on an anti-bot wall, or treat the rest as upstream bugs.
type Classification string

const (
	ClassRateLimit   Classification = "rate-limit"
	ClassAntiBot     Classification = "anti-bot"
	ClassBadResponse Classification = "bad-response"
)

// Detail carries the structured context of a classified failure.
// It crosses the process boundary verbatim so the calling layer never needs
// to re-derive classification from message text.
type Detail struct {
	Catalog        string         `json:"catalog,omitempty"`
	URL            string         `json:"url,omitempty"`
	Status         int            `json:"status,omitempty"`
	Classification Classification `json:"classification,omitempty"`
}

// Error is a classified application error.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Detail  Detail `json:"detail"`

	// Cause is the wrapped original failure, kept for diagnostics.
	Cause error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Detail.Classification != "" {
		msg += fmt.Sprintf(" (%s)", e.Detail.Classification)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap exposes the original failure to errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same Kind, so callers can probe with
// errors.Is(err, &Error{Kind: KindTimeout}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// NewNotFound creates a resource-not-found error.
func NewNotFound(catalog, resource string, id interface{}) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
		Detail:  Detail{Catalog: catalog},
	}
}

// NewNetwork creates an upstream-network error wrapping the transport failure.
func NewNetwork(catalog, url string, cause error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: "network failure reaching upstream",
		Detail:  Detail{Catalog: catalog, URL: url},
		Cause:   cause,
	}
}

// NewTimeout creates an upstream-timeout error.
func NewTimeout(catalog, url string, cause error) *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: "upstream request timed out",
		Detail:  Detail{Catalog: catalog, URL: url},
		Cause:   cause,
	}
}

// NewBadResponse creates an upstream-bad-response error with its classification.
func NewBadResponse(catalog, url string, status int, class Classification, message string) *Error {
	return &Error{
		Kind:    KindBadResponse,
		Message: message,
		Detail: Detail{
			Catalog:        catalog,
			URL:            url,
			Status:         status,
			Classification: class,
		},
	}
}

// NewUnknown wraps an uncategorized failure, always preserving the cause.
func NewUnknown(catalog string, cause error) *Error {
	return &Error{
		Kind:    KindUnknown,
		Message: "unexpected failure",
		Detail:  Detail{Catalog: catalog},
		Cause:   cause,
	}
}

// KindOf extracts the Kind of err, or KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetriable reports whether err is worth retrying at the transport level:
// network failures, timeouts, and bad responses whose HTTP status is in the
// retriable set.
func IsRetriable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindNetwork, KindTimeout:
		return true
	case KindBadResponse:
		return retriableStatus(e.Detail.Status)
	default:
		return false
	}
}

func retriableStatus(status int) bool {
	switch status {
	case 408, 425, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
