package llm

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strings"
	"time"
)

// RetryableError carries the HTTP status of a failed backend call
type RetryableError struct {
	Err        error
	StatusCode int
	Retryable  bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error, statusCode int) *RetryableError {
	retryable := statusCode == 429 || // Rate limit
		statusCode >= 500 // Server errors

	return &RetryableError{
		Err:        err,
		StatusCode: statusCode,
		Retryable:  retryable,
	}
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	return Classify(err) != ClassOther
}

// GetStatusCode extracts status code from error
func GetStatusCode(err error) int {
	var retryErr *RetryableError
	if errors.As(err, &retryErr) {
		return retryErr.StatusCode
	}
	return 0
}

// ErrorClass groups failures by how the dispatcher treats them
type ErrorClass int

const (
	ClassOther ErrorClass = iota
	ClassRateLimited
	ClassServerError
)

func (c ErrorClass) String() string {
	switch c {
	case ClassRateLimited:
		return "rate-limited"
	case ClassServerError:
		return "server-error"
	default:
		return "other"
	}
}

var (
	rateLimitPatterns = []string{
		"rate limit",
		"too many requests",
		"quota exceeded",
		"resource_exhausted",
		"resource exhausted",
		"rate exceeded",
		"throttled",
	}
	serverErrorPatterns = []string{
		"internal error",
		"internal server error",
		"service unavailable",
		"unavailable",
		"overloaded",
		"bad gateway",
		"deadline exceeded",
	}
	statusInMessage = regexp.MustCompile(`\b(429|5\d\d)\b`)
)

// Classify decides whether err is worth retrying
func Classify(err error) ErrorClass {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassOther
	}

	switch status := GetStatusCode(err); {
	case status == 429:
		return ClassRateLimited
	case status >= 500:
		return ClassServerError
	case status != 0:
		return ClassOther
	}

	if IsRateLimitError(err) {
		return ClassRateLimited
	}

	msg := strings.ToLower(err.Error())
	if m := statusInMessage.FindString(msg); m != "" {
		if m == "429" {
			return ClassRateLimited
		}
		return ClassServerError
	}
	for _, pattern := range serverErrorPatterns {
		if strings.Contains(msg, pattern) {
			return ClassServerError
		}
	}
	return ClassOther
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	if GetStatusCode(err) == 429 {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	for _, pattern := range rateLimitPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}

// calculateDelay returns the exponential backoff before the retry following attempt
func calculateDelay(attempt int, options RetryOptions) time.Duration {
	delay := time.Duration(float64(options.BaseDelay) * math.Pow(2, float64(attempt)))
	if options.MaxDelay > 0 && delay > options.MaxDelay {
		delay = options.MaxDelay
	}
	return delay
}
