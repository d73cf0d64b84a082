package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the failure taxonomy surfaced to callers of Dispatcher.Send
type Kind string

const (
	KindTokenLimit           Kind = "token-limit-exceeded"
	KindInvalidCredential    Kind = "invalid-credential"
	KindRateLimitExhausted   Kind = "rate-limit-exhausted"
	KindServerErrorExhausted Kind = "server-error-exhausted"
	KindOther                Kind = "other"
)

// ErrProcessingFailed is returned when an uploaded file ends in the failed state
var ErrProcessingFailed = errors.New("processing failed")

// ErrMissingAPIKey is returned when no credential is configured
var ErrMissingAPIKey = errors.New("API key not configured")

// DispatchError is the terminal error of a send
type DispatchError struct {
	Kind     Kind
	Attempts int
	Err      error
}

func (e *DispatchError) Error() string {
	switch e.Kind {
	case KindRateLimitExhausted:
		return fmt.Sprintf("rate limit exceeded after %d attempts: %v", e.Attempts, e.Err)
	case KindServerErrorExhausted:
		return fmt.Sprintf("server error after %d attempts: %v", e.Attempts, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

var (
	tokenLimitPatterns = []string{
		"token count",
		"exceeds the maximum number of tokens",
		"maximum number of tokens",
		"token limit",
	}
	credentialPatterns = []string{
		"api key not valid",
		"api_key_invalid",
		"invalid api key",
	}
)

// KindOf maps err onto the failure taxonomy
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var dispatchErr *DispatchError
	if errors.As(err, &dispatchErr) {
		return dispatchErr.Kind
	}
	return kindFromMessage(err)
}

func kindFromMessage(err error) Kind {
	msg := strings.ToLower(err.Error())
	for _, p := range tokenLimitPatterns {
		if strings.Contains(msg, p) {
			return KindTokenLimit
		}
	}
	for _, p := range credentialPatterns {
		if strings.Contains(msg, p) {
			return KindInvalidCredential
		}
	}
	return KindOther
}

// UserMessage turns a send failure into the text shown in the error banner
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindTokenLimit:
		return "The request is too large for the model (token limit exceeded). " +
			"Try a shorter prompt or fewer, smaller files."
	case KindInvalidCredential:
		return "The Gemini API key is not valid. " +
			"Set GEMINI_API_KEY or gemini.apiKey in the config file and restart."
	case "":
		return ""
	default:
		return err.Error()
	}
}
