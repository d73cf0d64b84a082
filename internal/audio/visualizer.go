package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// State is the visualizer's current input
type State int

const (
	StateIdle State = iota
	StateMicAttached
	StateMediaAttached
)

func (s State) String() string {
	switch s {
	case StateMicAttached:
		return "mic"
	case StateMediaAttached:
		return "media"
	default:
		return "idle"
	}
}

// Frame is one frequency snapshot; a nil Bins means nothing is attached
type Frame struct {
	Bins []byte
}

// Flat reports whether the frame should be drawn as an empty background
func (f Frame) Flat() bool {
	return f.Bins == nil
}

// Visualizer owns the analysis node and switches it between sources.
// Media playback always takes precedence over the microphone.
type Visualizer struct {
	mu       sync.Mutex
	state    State
	analyser Analyser
	mic      *Borrowed[MicTap]
	media    MediaElement
	graph    *Owned[Graph]
	gen      int
	unhook   func()
	buf      []byte
	logger   *log.Logger
}

// NewVisualizer creates an idle visualizer
func NewVisualizer(logger *log.Logger) *Visualizer {
	if logger == nil {
		logger = log.Default()
	}
	return &Visualizer{logger: logger}
}

// State returns the current input
func (v *Visualizer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Update attaches whichever source is available. A nil mic and nil media
// detach everything.
func (v *Visualizer) Update(mic *Borrowed[MicTap], media MediaElement) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch {
	case media != nil:
		if v.state == StateMediaAttached && v.media == media {
			return nil
		}
		v.teardown()
		return v.attachMedia(media)
	case mic != nil:
		if v.state == StateMicAttached && v.mic.Get() == mic.Get() {
			return nil
		}
		v.teardown()
		return v.attachMic(mic)
	default:
		v.teardown()
		return nil
	}
}

// Close detaches every source
func (v *Visualizer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.teardown()
}

func (v *Visualizer) attachMic(mic *Borrowed[MicTap]) error {
	a, err := mic.Get().NewAnalyser(FFTSize)
	if err != nil {
		return fmt.Errorf("attach microphone: %w", err)
	}
	v.analyser = a
	v.mic = mic
	v.state = StateMicAttached
	v.logger.Debug("visualizer attached", "source", v.state)
	return nil
}

func (v *Visualizer) attachMedia(media MediaElement) error {
	g, err := media.OpenGraph()
	if err != nil {
		return fmt.Errorf("attach media: %w", err)
	}
	owned := Own(g)
	a, err := g.NewAnalyser(FFTSize)
	if err != nil {
		_ = owned.Close()
		return fmt.Errorf("attach media: %w", err)
	}

	v.gen++
	gen := v.gen
	if g.Suspended() {
		v.unhook = media.OnPlay(func() {
			v.mu.Lock()
			current := v.gen == gen && v.graph != nil
			v.mu.Unlock()
			if !current {
				return
			}
			if err := g.Resume(); err != nil {
				v.logger.Debug("resume media graph", "err", err)
			}
		})
	}

	v.analyser = a
	v.graph = owned
	v.media = media
	v.state = StateMediaAttached
	v.logger.Debug("visualizer attached", "source", v.state)
	return nil
}

// teardown disconnects the current analyser. A borrowed mic is left alone;
// an owned media graph is closed. Safe to call repeatedly.
func (v *Visualizer) teardown() {
	if v.analyser != nil {
		if err := v.analyser.Disconnect(); err != nil && !errors.Is(err, ErrDisconnected) {
			v.logger.Debug("disconnect analyser", "err", err)
		}
		v.analyser = nil
	}
	if v.graph != nil {
		if err := v.graph.Close(); err != nil && !errors.Is(err, ErrClosed) {
			v.logger.Debug("close media graph", "err", err)
		}
		v.graph = nil
	}
	if v.unhook != nil {
		v.unhook()
		v.unhook = nil
	}
	v.mic = nil
	v.media = nil
	v.gen++
	v.state = StateIdle
}

// Sample takes a frequency snapshot of the current source
func (v *Visualizer) Sample() Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.analyser == nil {
		return Frame{}
	}
	n := v.analyser.BinCount()
	if cap(v.buf) < n {
		v.buf = make([]byte, n)
	}
	v.buf = v.buf[:n]
	v.analyser.FrequencyData(v.buf)
	bins := make([]byte, n)
	copy(bins, v.buf)
	return Frame{Bins: bins}
}
