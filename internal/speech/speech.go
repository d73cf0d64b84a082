// Package speech connects speech-to-text input and text-to-speech output to
// the chat.
package speech

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrCanceled means speech was stopped before it started
	ErrCanceled = errors.New("speech: canceled")
	// ErrInterrupted means speech was cut off mid-utterance
	ErrInterrupted = errors.New("speech: interrupted")
	// ErrUnsupported means no engine is available on this system
	ErrUnsupported = errors.New("speech: not supported on this system")
)

// Result is one recognition result
type Result struct {
	Transcript string
	Final      bool
}

// Handler receives recognition events. OnEnd fires whenever recognition
// stops without an error, whether or not Stop was called.
type Handler interface {
	OnResult(Result)
	OnEnd()
	OnError(error)
}

// Recognizer is a continuous speech-to-text engine
type Recognizer interface {
	Available() bool
	Start(ctx context.Context, h Handler) error
	Stop() error
}

// Synthesizer speaks a single chunk of text, blocking until it finishes
type Synthesizer interface {
	Available() bool
	Speak(ctx context.Context, text string) error
}

// AppendTranscript adds a final fragment to the pending input
func AppendTranscript(input, fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return input
	}
	input = strings.TrimRight(input, " ")
	if input == "" {
		return fragment
	}
	return input + " " + fragment
}

// expected reports whether err is a normal interruption
func expected(err error) bool {
	return errors.Is(err, ErrCanceled) ||
		errors.Is(err, ErrInterrupted) ||
		errors.Is(err, context.Canceled)
}
