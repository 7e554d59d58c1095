package usajobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors classifying remote failures. Callers branch with errors.Is;
// ErrTransient and ErrRateLimited are safe to retry on a later cycle.
var (
	ErrNotFound    = errors.New("usajobs: job not found")
	ErrRateLimited = errors.New("usajobs: rate limited")
	ErrTransient   = errors.New("usajobs: transient failure")
	ErrBadResponse = errors.New("usajobs: bad response")
)

func classifyStatus(status int) error {
	switch {
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", ErrTransient, status)
	default:
		// 401/403 and other 4xx mean a broken request or credentials,
		// retrying will not help.
		return fmt.Errorf("%w: status %d", ErrBadResponse, status)
	}
}

// classifyTransport maps connection-level failures. Timeouts and dropped
// connections are transient; context cancellation passes through untouched.
func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
