package speech

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// Options wires a bridge to the rest of the application
type Options struct {
	// Transcript receives each final fragment
	Transcript func(fragment string)
	// Interim receives the in-progress transcript; "" clears it
	Interim func(text string)
	// Error receives engine errors that the user should see
	Error func(err error)
	// Listening and Speaking report state changes
	Listening func(on bool)
	Speaking  func(on bool)

	ChunkBudget int
	Logger      *log.Logger
}

// Bridge keeps recognition running until told to stop and plays replies
// one at a time through the synthesizer.
type Bridge struct {
	rec   Recognizer
	synth Synthesizer
	opts  Options

	mu        sync.Mutex
	listening bool
	listenCtx context.Context
	interim   string

	speakCancel context.CancelFunc
	speakDone   chan struct{}
}

// NewBridge creates a bridge. Either engine may be nil.
func NewBridge(rec Recognizer, synth Synthesizer, opts Options) *Bridge {
	if opts.ChunkBudget <= 0 {
		opts.ChunkBudget = DefaultChunkBudget
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Bridge{rec: rec, synth: synth, opts: opts}
}

// CanListen reports whether a recognizer is available
func (b *Bridge) CanListen() bool {
	return b.rec != nil && b.rec.Available()
}

// CanSpeak reports whether a synthesizer is available
func (b *Bridge) CanSpeak() bool {
	return b.synth != nil && b.synth.Available()
}

// Listening reports whether recognition is on
func (b *Bridge) Listening() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listening
}

// StartListening turns recognition on
func (b *Bridge) StartListening(ctx context.Context) error {
	if !b.CanListen() {
		return ErrUnsupported
	}
	b.mu.Lock()
	if b.listening {
		b.mu.Unlock()
		return nil
	}
	b.listening = true
	b.listenCtx = ctx
	b.interim = ""
	b.mu.Unlock()

	if err := b.rec.Start(ctx, (*recognitionHandler)(b)); err != nil {
		b.setListening(false)
		return err
	}
	b.notifyListening(true)
	return nil
}

// StopListening turns recognition off
func (b *Bridge) StopListening() error {
	if !b.setListening(false) {
		return nil
	}
	b.notifyListening(false)
	if b.rec == nil {
		return nil
	}
	return b.rec.Stop()
}

// setListening reports whether the state changed
func (b *Bridge) setListening(on bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	changed := b.listening != on
	b.listening = on
	if !on {
		b.interim = ""
	}
	return changed
}

func (b *Bridge) notifyListening(on bool) {
	if b.opts.Listening != nil {
		b.opts.Listening(on)
	}
}

type recognitionHandler Bridge

func (h *recognitionHandler) OnResult(r Result) {
	b := (*Bridge)(h)
	if r.Final {
		b.mu.Lock()
		b.interim = ""
		b.mu.Unlock()
		if b.opts.Interim != nil {
			b.opts.Interim("")
		}
		if b.opts.Transcript != nil {
			b.opts.Transcript(r.Transcript)
		}
		return
	}
	b.mu.Lock()
	b.interim = r.Transcript
	b.mu.Unlock()
	if b.opts.Interim != nil {
		b.opts.Interim(r.Transcript)
	}
}

func (h *recognitionHandler) OnEnd() {
	b := (*Bridge)(h)
	b.mu.Lock()
	restart := b.listening
	ctx := b.listenCtx
	b.mu.Unlock()
	if !restart {
		return
	}
	if ctx != nil && ctx.Err() != nil {
		if b.setListening(false) {
			b.notifyListening(false)
		}
		return
	}
	b.opts.Logger.Debug("recognition ended while listening, restarting")
	if err := b.rec.Start(ctx, h); err != nil {
		h.OnError(err)
	}
}

func (h *recognitionHandler) OnError(err error) {
	b := (*Bridge)(h)
	if b.setListening(false) {
		b.notifyListening(false)
	}
	if expected(err) {
		return
	}
	b.opts.Logger.Warn("speech recognition failed", "err", err)
	if b.opts.Error != nil {
		b.opts.Error(err)
	}
}

// Speak reads text aloud, replacing anything already being spoken
func (b *Bridge) Speak(ctx context.Context, text string) error {
	if !b.CanSpeak() {
		return ErrUnsupported
	}
	chunks := SplitForSpeech(text, b.opts.ChunkBudget)
	b.Cancel()
	if len(chunks) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	b.mu.Lock()
	b.speakCancel = cancel
	b.speakDone = done
	b.mu.Unlock()

	if b.opts.Speaking != nil {
		b.opts.Speaking(true)
	}
	go func() {
		defer close(done)
		defer cancel()
		defer func() {
			if b.opts.Speaking != nil {
				b.opts.Speaking(false)
			}
		}()
		for _, chunk := range chunks {
			if err := b.synth.Speak(ctx, chunk); err != nil {
				if expected(err) || ctx.Err() != nil {
					return
				}
				b.opts.Logger.Warn("speech synthesis failed", "err", err)
				if b.opts.Error != nil {
					b.opts.Error(err)
				}
				return
			}
		}
	}()
	return nil
}

// Cancel stops the current reply and waits for the synthesizer to let go
func (b *Bridge) Cancel() {
	b.mu.Lock()
	cancel, done := b.speakCancel, b.speakDone
	b.speakCancel, b.speakDone = nil, nil
	b.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until the current reply finishes
func (b *Bridge) Wait() {
	b.mu.Lock()
	done := b.speakDone
	b.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close stops both directions
func (b *Bridge) Close() error {
	b.Cancel()
	return b.StopListening()
}
