package monitor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pagepulse/pagepulse/internal/graph"
)

// ErrorClass buckets cycle failures by how an operator should react.
type ErrorClass string

const (
	// ErrorClassAuth means the credential is missing, invalid or expired.
	// Retrying is futile until the operator re-authenticates.
	ErrorClassAuth ErrorClass = "auth"
	// ErrorClassRateLimit means the platform throttled us. The next
	// scheduled tick is expected to succeed.
	ErrorClassRateLimit ErrorClass = "rate_limit"
	// ErrorClassUnknown covers everything else, logged verbatim and
	// treated as transient.
	ErrorClassUnknown ErrorClass = "unknown"
)

// ErrNoCredential is reported when a cycle is refused because no usable
// page credential is configured.
var ErrNoCredential = errors.New("no usable page credential configured")

// Classify buckets an error into the taxonomy. Classification is
// best-effort: it inspects typed Graph errors first and falls back to
// recognizable markers in the error text.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorClassUnknown
	}

	if errors.Is(err, ErrNoCredential) {
		return ErrorClassAuth
	}

	var graphErr *graph.Error
	if errors.As(err, &graphErr) {
		switch {
		case graphErr.IsAuth():
			return ErrorClassAuth
		case graphErr.IsRateLimit():
			return ErrorClassRateLimit
		}
		return ErrorClassUnknown
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "access token"),
		strings.Contains(text, "oauth"),
		strings.Contains(text, "session has expired"),
		strings.Contains(text, "not authorized"):
		return ErrorClassAuth
	case strings.Contains(text, "rate limit"),
		strings.Contains(text, "request limit"),
		strings.Contains(text, "too many requests"):
		return ErrorClassRateLimit
	}
	return ErrorClassUnknown
}

// Describe renders an error as the human-readable message stored in the
// statistics, prefixed so the operator can tell retryable failures from
// ones that need action.
func Describe(err error) string {
	switch Classify(err) {
	case ErrorClassAuth:
		return fmt.Sprintf("authentication failed, reconnect the page: %v", err)
	case ErrorClassRateLimit:
		return fmt.Sprintf("rate limited by the platform, will retry on the next check: %v", err)
	default:
		return err.Error()
	}
}
