package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

type ErrorType int

const (
	NetworkError ErrorType = iota
	ConfigError
	ProcessingError
	RateLimitError
	WAFError
	TemporaryError
	CertificateError
)

var errorTypeNames = map[ErrorType]string{
	NetworkError:     "network",
	ConfigError:      "config",
	ProcessingError:  "processing",
	RateLimitError:   "rate-limit",
	WAFError:         "waf",
	TemporaryError:   "temporary",
	CertificateError: "certificate",
}

func (t ErrorType) String() string {
	if name, ok := errorTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ErrorType(%d)", int(t))
}

type AppError struct {
	Type       ErrorType
	Message    string
	Err        error
	StatusCode int
}

func NewError(errType ErrorType, message string, err error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Is matches any AppError of the same Type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func isType(err error, t ErrorType) (matched, isApp bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t, true
	}
	return false, false
}

func containsAny(err error, keywords ...string) bool {
	msg := strings.ToLower(err.Error())
	for _, k := range keywords {
		if strings.Contains(msg, k) {
			return true
		}
	}
	return false
}

/*
   Determines if an error is related to rate limiting based on type or common keywords
*/
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if matched, ok := isType(err, RateLimitError); ok {
		return matched
	}
	return containsAny(err, "rate limit", "too many requests", "429")
}

/*
   Identifies if an error is related to Web Application Firewall restrictions
*/
func IsWAFError(err error) bool {
	if err == nil {
		return false
	}
	if matched, ok := isType(err, WAFError); ok {
		return matched
	}
	return containsAny(err, "waf", "firewall", "403 forbidden")
}

/*
   Checks if an error is temporary and potentially retryable
*/
func IsTemporaryError(err error) bool {
	if err == nil {
		return false
	}
	if matched, ok := isType(err, TemporaryError); ok {
		return matched
	}
	return containsAny(err, "temporary", "connection reset", "connection refused", "try again")
}

func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return containsAny(err, "timeout", "timed out", "deadline exceeded")
}

// IsNetworkStatusless reports a transport failure that never produced an
// HTTP status.
func IsNetworkStatusless(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == NetworkError && appErr.StatusCode == 0 && appErr.Err != nil
}

// IsNotFoundError checks if an error indicates a 404 status code.
func IsNotFoundError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.StatusCode == 404
}

func IsConfigError(err error) bool {
	matched, _ := isType(err, ConfigError)
	return matched
}
