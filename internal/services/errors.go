package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrNetwork             = errors.New("network error")
	ErrTimeout             = errors.New("timeout")
	ErrRateLimited         = errors.New("rate limited")
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrNotFound            = errors.New("not found")
	ErrNoResults           = errors.New("no results")
	ErrAllCandidatesFailed = errors.New("all candidates failed")
	ErrFormatUnrecognized  = errors.New("format unrecognized")
	ErrConfiguration       = errors.New("configuration error")
	ErrValidation          = errors.New("validation error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrNetwork
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetriable reports whether a load attempt that failed with err may move on
// to the next candidate. Rate limits and credential failures are terminal: the
// caller has to back off or fix configuration instead of retrying right away.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch {
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrInvalidCredential), errors.Is(err, ErrConfiguration):
		return false
	}
	return true
}

// IsTimeout reports whether err is a deadline or transport timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Classify maps an outcome to a short label used in logs and CLI output.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, ErrNoResults):
		return "no_results"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAllCandidatesFailed):
		return "all_candidates_failed"
	case IsTimeout(err):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrFormatUnrecognized):
		return "format_unrecognized"
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return "configuration"
	default:
		return "network"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
