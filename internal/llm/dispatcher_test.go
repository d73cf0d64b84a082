package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedGenerator struct {
	errs  []error
	calls int
}

func (g *scriptedGenerator) Generate(ctx context.Context, req *Request) (*Response, error) {
	defer func() { g.calls++ }()
	if g.calls < len(g.errs) && g.errs[g.calls] != nil {
		return nil, g.errs[g.calls]
	}
	return &Response{Text: "ok: " + req.Prompt}, nil
}

type recorder struct {
	delays   []time.Duration
	progress []string
}

func (r *recorder) options() []DispatcherOption {
	return []DispatcherOption{
		WithSleep(func(_ context.Context, d time.Duration) error {
			r.delays = append(r.delays, d)
			return nil
		}),
		WithProgress(func(s string) { r.progress = append(r.progress, s) }),
	}
}

func TestDispatcherSend(t *testing.T) {
	rateLimited := NewRetryableError(errors.New("429 Too Many Requests"), 429)
	serverErr := NewRetryableError(errors.New("internal error"), 500)

	t.Run("success on first attempt", func(t *testing.T) {
		gen := &scriptedGenerator{}
		rec := &recorder{}
		d := NewDispatcher(gen, DefaultRetryOptions, rec.options()...)

		resp, err := d.Send(context.Background(), &Request{Prompt: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "ok: hi", resp.Text)
		assert.Equal(t, 1, gen.calls)
		assert.Empty(t, rec.delays)
	})

	t.Run("rate limit exhausts after three attempts", func(t *testing.T) {
		gen := &scriptedGenerator{errs: []error{rateLimited, rateLimited, rateLimited}}
		rec := &recorder{}
		d := NewDispatcher(gen, DefaultRetryOptions, rec.options()...)

		_, err := d.Send(context.Background(), &Request{Prompt: "hi"})
		require.Error(t, err)

		var dispatchErr *DispatchError
		require.ErrorAs(t, err, &dispatchErr)
		assert.Equal(t, KindRateLimitExhausted, dispatchErr.Kind)
		assert.Equal(t, 3, gen.calls)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.delays)
		assert.Equal(t, []string{
			"Rate limit hit. Retrying in 1s...",
			"Rate limit hit. Retrying in 2s...",
		}, rec.progress)
		assert.Contains(t, err.Error(), "rate limit")
		assert.Contains(t, err.Error(), "429 Too Many Requests")
	})

	t.Run("server error exhausts with server framing", func(t *testing.T) {
		gen := &scriptedGenerator{errs: []error{serverErr, serverErr, serverErr}}
		rec := &recorder{}
		d := NewDispatcher(gen, DefaultRetryOptions, rec.options()...)

		_, err := d.Send(context.Background(), &Request{})
		assert.Equal(t, KindServerErrorExhausted, KindOf(err))
		assert.Contains(t, err.Error(), "server error")
		assert.Equal(t, 3, gen.calls)
		assert.Len(t, rec.delays, 2)
	})

	t.Run("recovers after transient failure", func(t *testing.T) {
		gen := &scriptedGenerator{errs: []error{serverErr}}
		rec := &recorder{}
		d := NewDispatcher(gen, DefaultRetryOptions, rec.options()...)

		resp, err := d.Send(context.Background(), &Request{Prompt: "x"})
		require.NoError(t, err)
		assert.Equal(t, "ok: x", resp.Text)
		assert.Equal(t, []time.Duration{time.Second}, rec.delays)
	})

	t.Run("other errors short circuit", func(t *testing.T) {
		gen := &scriptedGenerator{errs: []error{NewRetryableError(errors.New("API key not valid"), 400)}}
		rec := &recorder{}
		d := NewDispatcher(gen, DefaultRetryOptions, rec.options()...)

		_, err := d.Send(context.Background(), &Request{})
		require.Error(t, err)
		assert.Equal(t, 1, gen.calls)
		assert.Empty(t, rec.delays)
		assert.Equal(t, KindInvalidCredential, KindOf(err))
	})

	t.Run("cancellation during backoff", func(t *testing.T) {
		gen := &scriptedGenerator{errs: []error{rateLimited, rateLimited, rateLimited}}
		ctx, cancel := context.WithCancel(context.Background())
		d := NewDispatcher(gen, DefaultRetryOptions, WithSleep(func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		}))

		_, err := d.Send(ctx, &Request{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, gen.calls)
	})

	t.Run("real sleep honours context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	})
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"status 429", NewRetryableError(errors.New("x"), 429), ClassRateLimited},
		{"status 503", NewRetryableError(errors.New("x"), 503), ClassServerError},
		{"status 400", NewRetryableError(errors.New("internal"), 400), ClassOther},
		{"quota message", errors.New("Quota exceeded for requests"), ClassRateLimited},
		{"resource exhausted", errors.New("RESOURCE_EXHAUSTED"), ClassRateLimited},
		{"status in message", errors.New("got 503 from upstream"), ClassServerError},
		{"overloaded", errors.New("The model is overloaded"), ClassServerError},
		{"plain", errors.New("bad request"), ClassOther},
		{"canceled", context.Canceled, ClassOther},
		{"deadline", context.DeadlineExceeded, ClassOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestCalculateDelay(t *testing.T) {
	opts := RetryOptions{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: 3 * time.Second}
	assert.Equal(t, time.Second, calculateDelay(0, opts))
	assert.Equal(t, 2*time.Second, calculateDelay(1, opts))
	assert.Equal(t, 3*time.Second, calculateDelay(2, opts))
}
