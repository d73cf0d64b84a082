package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Dispatcher delivers requests to a Generator, retrying rate-limit and
// server failures with exponential backoff.
type Dispatcher struct {
	generator Generator
	options   RetryOptions
	sleep     func(context.Context, time.Duration) error
	progress  func(string)
	logger    *log.Logger
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithSleep replaces the wait between attempts
func WithSleep(sleep func(context.Context, time.Duration) error) DispatcherOption {
	return func(d *Dispatcher) { d.sleep = sleep }
}

// WithProgress receives the human readable text emitted before each retry
func WithProgress(fn func(string)) DispatcherOption {
	return func(d *Dispatcher) { d.progress = fn }
}

// WithLogger sets the logger used for attempt diagnostics
func WithLogger(logger *log.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

// NewDispatcher creates a dispatcher around g
func NewDispatcher(g Generator, options RetryOptions, opts ...DispatcherOption) *Dispatcher {
	if options.MaxRetries < 1 {
		options.MaxRetries = 1
	}
	d := &Dispatcher{
		generator: g,
		options:   options,
		sleep:     sleepContext,
		progress:  func(string) {},
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Send delivers req. Cancelling ctx aborts both an in-flight attempt and a
// pending backoff.
func (d *Dispatcher) Send(ctx context.Context, req *Request) (*Response, error) {
	var (
		lastErr   error
		lastClass ErrorClass
	)

	for attempt := 0; attempt < d.options.MaxRetries; attempt++ {
		resp, err := d.generator.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		lastErr = err
		lastClass = Classify(err)
		d.logger.Debug("send attempt failed", "attempt", attempt+1, "class", lastClass, "err", err)

		if lastClass == ClassOther {
			return nil, &DispatchError{Kind: kindFromMessage(err), Attempts: attempt + 1, Err: err}
		}

		if attempt == d.options.MaxRetries-1 {
			break
		}

		delay := calculateDelay(attempt, d.options)
		d.progress(retryStatus(lastClass, delay))
		if err := d.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	kind := KindServerErrorExhausted
	if lastClass == ClassRateLimited {
		kind = KindRateLimitExhausted
	}
	d.logger.Warn("send failed after retries", "attempts", d.options.MaxRetries, "kind", kind)
	return nil, &DispatchError{Kind: kind, Attempts: d.options.MaxRetries, Err: lastErr}
}

func retryStatus(class ErrorClass, delay time.Duration) string {
	label := "Server error."
	if class == ClassRateLimited {
		label = "Rate limit hit."
	}
	return fmt.Sprintf("%s Retrying in %s...", label, formatDelay(delay))
}

func formatDelay(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	return d.Round(100 * time.Millisecond).String()
}
