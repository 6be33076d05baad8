// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitError reports an HTTP 429 from the provider.
type RateLimitError struct {
	Message string

	// RetryAfter is the provider's retry-after hint, zero when absent.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return "rate limited"
	}
	return "rate limited: " + e.Message
}

// APIError reports any other provider failure: a non-2xx status, a
// transport fault, or an undecodable response.
type APIError struct {
	// StatusCode is zero when no HTTP response was received.
	StatusCode int
	Type       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	var sb strings.Builder
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, "Error code: %d - ", e.StatusCode)
	}
	if e.Type != "" {
		sb.WriteString(e.Type)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	if e.Err != nil {
		if e.Message != "" {
			sb.WriteString(": ")
		}
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *APIError) Unwrap() error { return e.Err }

// IsRateLimit reports whether err is, or wraps, a RateLimitError.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// errorEnvelope is the error body returned by the Messages API.
type errorEnvelope struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// statusError converts a non-2xx response into a typed error. body is the
// raw response body; it is used verbatim when it is not an error envelope.
func statusError(resp *http.Response, env *errorEnvelope, body []byte) error {
	msg := strings.TrimSpace(string(body))
	errType := ""
	if env != nil && env.Error.Message != "" {
		msg = env.Error.Message
		errType = env.Error.Type
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{
			Message:    msg,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Type:       errType,
		Message:    msg,
	}
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
