package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrFatalAPI marks provider errors that retrying cannot fix: rejected
// credentials, exhausted credit or quota.
var ErrFatalAPI = errors.New("fatal API error")

// ProviderError is a transport, HTTP or response-format failure of a backend.
type ProviderError struct {
	Provider string
	Status   int    // HTTP status, 0 when unknown
	Body     string // raw response body, if any
	Err      error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s provider", e.Provider)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", truncate(e.Body, 300))
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// providerError builds a ProviderError, marking it fatal when appropriate.
func providerError(provider string, status int, body string, err error) error {
	return wrapFatalError(&ProviderError{Provider: provider, Status: status, Body: body, Err: err})
}

var fatalMarkers = []string{
	"credit",
	"quota",
	"billing",
	"invalid api key",
	"invalid_api_key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

// isFatalAPIError reports whether err signals a credentials or billing problem.
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) && (pe.Status == http.StatusUnauthorized || pe.Status == http.StatusForbidden) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range fatalMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// wrapFatalError adds ErrFatalAPI to fatal errors and returns others unchanged.
func wrapFatalError(err error) error {
	if !isFatalAPIError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFatalAPI, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
