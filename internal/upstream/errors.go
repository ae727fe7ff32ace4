package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sony/gobreaker"

	"detector/pkg/platform/sentinel"
)

// Category is the normalized failure taxonomy for upstream calls.
type Category string

const (
	// CategoryTimeout: the upstream took too long to answer.
	CategoryTimeout Category = "timeout"

	// CategoryBadData: the upstream answered with a body we could not decode.
	CategoryBadData Category = "bad_data"

	// CategoryAuthentication: the token was rejected.
	CategoryAuthentication Category = "authentication"

	// CategoryOutage: the upstream is unreachable, failing or its breaker is open.
	CategoryOutage Category = "outage"

	// CategoryNotFound: the requested record does not exist.
	CategoryNotFound Category = "not_found"

	// CategoryRateLimited: too many requests.
	CategoryRateLimited Category = "rate_limited"

	// CategoryInternal: anything else.
	CategoryInternal Category = "internal"
)

// Error wraps an upstream failure with its category.
type Error struct {
	Category   Category
	Service    string
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("upstream %s [%s]: %s: %v", e.Service, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("upstream %s [%s]: %s", e.Service, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is maps categories onto the platform sentinels so callers outside this
// package can branch with errors.Is.
func (e *Error) Is(target error) bool {
	switch target {
	case sentinel.ErrNotFound:
		return e.Category == CategoryNotFound
	case sentinel.ErrTimeout:
		return e.Category == CategoryTimeout
	case sentinel.ErrUnavailable:
		return e.Category == CategoryOutage || e.Category == CategoryRateLimited
	}
	return false
}

func newError(category Category, service, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Service:    service,
		Message:    message,
		Underlying: underlying,
	}
}

// CategoryOf extracts the category from err.
func CategoryOf(err error) Category {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Category
	}
	return CategoryInternal
}

// countsAsFailure decides what trips a breaker. An upstream that answers
// "not found" or sends a malformed body is still up.
func countsAsFailure(err error) bool {
	switch CategoryOf(err) {
	case CategoryTimeout, CategoryOutage, CategoryRateLimited, CategoryInternal:
		return true
	}
	return false
}

func categorizeStatus(status int) Category {
	switch {
	case status == 404:
		return CategoryNotFound
	case status == 401 || status == 403:
		return CategoryAuthentication
	case status == 429:
		return CategoryRateLimited
	case status >= 500:
		return CategoryOutage
	default:
		return CategoryInternal
	}
}

func categorizeTransport(err error) Category {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return CategoryOutage
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}
	return CategoryOutage
}
