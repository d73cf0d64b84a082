package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitForSpeech(t *testing.T) {
	t.Run("long sentence without punctuation", func(t *testing.T) {
		words := make([]string, 0, 100)
		for len(strings.Join(words, " ")) < 500 {
			words = append(words, "segment")
		}
		text := strings.Join(words, " ")
		chunks := SplitForSpeech(text, 160)

		require.Greater(t, len(chunks), 1)
		for _, c := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(c), 160)
			assert.Equal(t, c, strings.TrimSpace(c))
		}
		assert.Equal(t, text, strings.Join(chunks, " "))
	})

	t.Run("sentences kept whole", func(t *testing.T) {
		chunks := SplitForSpeech("Hello there. How are you? Fine!", 160)
		assert.Equal(t, []string{"Hello there.", "How are you?", "Fine!"}, chunks)
	})

	t.Run("oversized word stands alone", func(t *testing.T) {
		long := strings.Repeat("x", 20)
		chunks := SplitForSpeech("a "+long+" b", 10)
		assert.Equal(t, []string{"a", long, "b"}, chunks)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, SplitForSpeech("  ", 160))
	})
}

func TestAppendTranscript(t *testing.T) {
	assert.Equal(t, "hello", AppendTranscript("", " hello "))
	assert.Equal(t, "hello world", AppendTranscript("hello", "world"))
	assert.Equal(t, "hello world", AppendTranscript("hello ", "world"))
	assert.Equal(t, "hello", AppendTranscript("hello", " "))
}

func TestParseResultLine(t *testing.T) {
	r, ok := ParseResultLine("final: turn left")
	require.True(t, ok)
	assert.Equal(t, Result{Transcript: "turn left", Final: true}, r)

	r, ok = ParseResultLine("partial: turn")
	require.True(t, ok)
	assert.False(t, r.Final)

	_, ok = ParseResultLine("noise")
	assert.False(t, ok)
}

type fakeRecognizer struct {
	mu      sync.Mutex
	starts  int
	stops   int
	handler Handler
	failOn  int
}

func (r *fakeRecognizer) Available() bool { return true }

func (r *fakeRecognizer) Start(_ context.Context, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	r.handler = h
	if r.failOn > 0 && r.starts == r.failOn {
		return errors.New("microphone busy")
	}
	return nil
}

func (r *fakeRecognizer) Stop() error {
	r.mu.Lock()
	r.stops++
	r.mu.Unlock()
	return nil
}

func TestBridgeListening(t *testing.T) {
	t.Run("final fragments feed the input", func(t *testing.T) {
		rec := &fakeRecognizer{}
		input := ""
		var interim []string
		b := NewBridge(rec, nil, Options{
			Transcript: func(f string) { input = AppendTranscript(input, f) },
			Interim:    func(s string) { interim = append(interim, s) },
		})
		require.NoError(t, b.StartListening(context.Background()))

		rec.handler.OnResult(Result{Transcript: "hel"})
		rec.handler.OnResult(Result{Transcript: "hello", Final: true})
		rec.handler.OnResult(Result{Transcript: "world", Final: true})

		assert.Equal(t, "hello world", input)
		assert.Equal(t, []string{"hel", "", ""}, interim)
	})

	t.Run("unexpected end restarts", func(t *testing.T) {
		rec := &fakeRecognizer{}
		b := NewBridge(rec, nil, Options{})
		require.NoError(t, b.StartListening(context.Background()))
		rec.handler.OnEnd()
		assert.Equal(t, 2, rec.starts)

		require.NoError(t, b.StopListening())
		rec.handler.OnEnd()
		assert.Equal(t, 2, rec.starts)
		assert.Equal(t, 1, rec.stops)
	})

	t.Run("engine error forces listening off", func(t *testing.T) {
		rec := &fakeRecognizer{}
		var reported error
		var states []bool
		b := NewBridge(rec, nil, Options{
			Error:     func(err error) { reported = err },
			Listening: func(on bool) { states = append(states, on) },
		})
		require.NoError(t, b.StartListening(context.Background()))
		rec.handler.OnError(errors.New("not-allowed"))

		assert.False(t, b.Listening())
		assert.EqualError(t, reported, "not-allowed")
		assert.Equal(t, []bool{true, false}, states)
	})

	t.Run("no recognizer", func(t *testing.T) {
		b := NewBridge(nil, nil, Options{})
		assert.ErrorIs(t, b.StartListening(context.Background()), ErrUnsupported)
	})
}

type fakeSynth struct {
	mu     sync.Mutex
	spoken []string
	block  chan struct{}
	err    error
}

func (s *fakeSynth) Available() bool { return true }

func (s *fakeSynth) Speak(ctx context.Context, text string) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ErrInterrupted
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.spoken = append(s.spoken, text)
	return nil
}

func TestBridgeSpeaking(t *testing.T) {
	t.Run("chunks spoken in order", func(t *testing.T) {
		synth := &fakeSynth{}
		b := NewBridge(nil, synth, Options{})
		require.NoError(t, b.Speak(context.Background(), "One. Two. Three."))
		b.Wait()
		assert.Equal(t, []string{"One.", "Two.", "Three."}, synth.spoken)
	})

	t.Run("new reply cancels the old one silently", func(t *testing.T) {
		synth := &fakeSynth{block: make(chan struct{})}
		var reported []error
		b := NewBridge(nil, synth, Options{Error: func(err error) { reported = append(reported, err) }})

		require.NoError(t, b.Speak(context.Background(), "First reply."))
		close(synth.block)
		require.NoError(t, b.Speak(context.Background(), "Second reply."))
		b.Wait()

		assert.Contains(t, synth.spoken, "Second reply.")
		assert.Empty(t, reported)
	})

	t.Run("cancel interrupts without error", func(t *testing.T) {
		synth := &fakeSynth{block: make(chan struct{})}
		var reported []error
		var speaking []bool
		b := NewBridge(nil, synth, Options{
			Error:    func(err error) { reported = append(reported, err) },
			Speaking: func(on bool) { speaking = append(speaking, on) },
		})
		require.NoError(t, b.Speak(context.Background(), "Never heard."))
		b.Cancel()
		assert.Empty(t, synth.spoken)
		assert.Empty(t, reported)
		assert.Equal(t, []bool{true, false}, speaking)
	})

	t.Run("engine failures are reported", func(t *testing.T) {
		synth := &fakeSynth{err: errors.New("synthesis-failed")}
		var reported error
		b := NewBridge(nil, synth, Options{Error: func(err error) { reported = err }})
		require.NoError(t, b.Speak(context.Background(), "Hi."))
		b.Wait()
		assert.EqualError(t, reported, "synthesis-failed")
	})
}
