// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ConfigError reports unusable run settings, detected before any network
// call is made.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// maxErrorBody caps how much of a failed response body is carried in an
// HTTPError message.
const maxErrorBody = 2048

// HTTPError is a non-2xx response from a provider or search API. It keeps
// the status code and a truncated copy of the response body so callers can
// tell quota exhaustion apart from other failures.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Body)
}

// newHTTPError builds an HTTPError from a raw response body, trimming and
// truncating it.
func newHTTPError(statusCode int, body []byte) *HTTPError {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return &HTTPError{StatusCode: statusCode, Body: s}
}

// quotaMarkers are message fragments that indicate a quota or rate-limit
// rejection across the supported providers.
var quotaMarkers = []string{"quota", "rate limit", "rate_limit", "resource_exhausted", "429"}

// IsQuota reports whether err looks like a quota or rate-limit rejection.
func IsQuota(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
