package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-audio/wav"
)

// DefaultPlayerCommand plays {file} starting at {offset} seconds
var DefaultPlayerCommand = []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "-ss", "{offset}", "{file}"}

// ErrInvalidWAV is returned for files that are not PCM WAV
var ErrInvalidWAV = errors.New("audio: not a valid PCM WAV file")

// WAVElement is a decoded WAV file played through an external player.
// The analyser follows the wall-clock playback position.
type WAVElement struct {
	Path       string
	Player     []string
	SampleRate int

	samples []float64

	mu      sync.Mutex
	playing bool
	offset  time.Duration
	started time.Time
	cancel  context.CancelFunc
	onPlay  map[int]func()
	hookSeq int
	closed  bool
	now     func() time.Time
	logger  *log.Logger
}

// OpenWAV decodes path into a mono sample buffer
func OpenWAV(path string, player []string, logger *log.Logger) (*WAVElement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrInvalidWAV)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	depth := int(dec.BitDepth)
	if depth <= 0 {
		depth = 16
	}
	scale := float64(int64(1) << (depth - 1))

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}

	if len(player) == 0 {
		player = DefaultPlayerCommand
	}
	if logger == nil {
		logger = log.Default()
	}
	return &WAVElement{
		Path:       path,
		Player:     player,
		SampleRate: int(dec.SampleRate),
		samples:    samples,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// Duration is the length of the decoded audio
func (e *WAVElement) Duration() time.Duration {
	if e.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(e.samples)) * time.Second / time.Duration(e.SampleRate)
}

// Position is the current playback position
func (e *WAVElement) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position()
}

func (e *WAVElement) position() time.Duration {
	pos := e.offset
	if e.playing {
		pos += e.now().Sub(e.started)
	}
	if d := e.Duration(); pos > d {
		pos = d
	}
	return pos
}

// OnPlay registers fn to run each time playback starts
func (e *WAVElement) OnPlay(fn func()) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.onPlay == nil {
		e.onPlay = make(map[int]func())
	}
	e.hookSeq++
	id := e.hookSeq
	e.onPlay[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.onPlay, id)
	}
}

// PlayHooks reports how many play hooks are registered
func (e *WAVElement) PlayHooks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.onPlay)
}

// Playing reports whether the player is running
func (e *WAVElement) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// Play starts the player at the current position
func (e *WAVElement) Play(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.playing {
		e.mu.Unlock()
		return nil
	}
	if e.offset >= e.Duration() {
		e.offset = 0
	}

	args := e.playerArgs(e.offset)
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		e.mu.Unlock()
		cancel()
		return fmt.Errorf("start player: %w", err)
	}
	e.playing = true
	e.started = e.now()
	e.cancel = cancel
	hooks := make([]func(), 0, len(e.onPlay))
	for _, fn := range e.onPlay {
		hooks = append(hooks, fn)
	}
	e.mu.Unlock()

	go e.wait(cmd, cancel)
	for _, fn := range hooks {
		fn()
	}
	return nil
}

func (e *WAVElement) wait(cmd *exec.Cmd, cancel context.CancelFunc) {
	err := cmd.Wait()
	cancel()

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing {
		// paused or closed; state already settled
		return
	}
	e.offset = e.position()
	e.playing = false
	e.cancel = nil
	if err != nil {
		e.logger.Debug("player exited", "err", err)
	}
}

// Pause stops the player and remembers the position
func (e *WAVElement) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *WAVElement) stopLocked() {
	if !e.playing {
		return
	}
	e.offset = e.position()
	e.playing = false
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// Toggle flips between playing and paused
func (e *WAVElement) Toggle(ctx context.Context) error {
	if e.Playing() {
		e.Pause()
		return nil
	}
	return e.Play(ctx)
}

// Close stops playback for good
func (e *WAVElement) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	e.closed = true
	return nil
}

func (e *WAVElement) playerArgs(offset time.Duration) []string {
	offsetArg := strconv.FormatFloat(offset.Seconds(), 'f', 3, 64)
	args := make([]string, len(e.Player))
	for i, a := range e.Player {
		a = strings.ReplaceAll(a, "{file}", e.Path)
		args[i] = strings.ReplaceAll(a, "{offset}", offsetArg)
	}
	return args
}

// window copies the n samples ending at the current position
func (e *WAVElement) window(n int) []float64 {
	e.mu.Lock()
	pos := e.position()
	e.mu.Unlock()

	end := int(pos.Seconds() * float64(e.SampleRate))
	if end > len(e.samples) {
		end = len(e.samples)
	}
	start := max(end-n, 0)
	return e.samples[start:end]
}

// OpenGraph creates a processing graph fed by this element. It starts
// suspended unless the element is already playing.
func (e *WAVElement) OpenGraph() (Graph, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	return &wavGraph{element: e, suspended: !e.playing}, nil
}

type wavGraph struct {
	element *WAVElement

	mu        sync.Mutex
	suspended bool
	closed    bool
	analysers []*PCMAnalyser
}

func (g *wavGraph) NewAnalyser(fftSize int) (Analyser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, ErrClosed
	}
	a := NewPCMAnalyser(fftSize)
	g.analysers = append(g.analysers, a)
	return &wavAnalyser{PCMAnalyser: a, graph: g}, nil
}

func (g *wavGraph) Suspended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.suspended
}

func (g *wavGraph) Resume() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	g.suspended = false
	return nil
}

func (g *wavGraph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	g.closed = true
	for _, a := range g.analysers {
		_ = a.Disconnect()
	}
	g.analysers = nil
	return nil
}

func (g *wavGraph) live() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.closed && !g.suspended
}

// wavAnalyser refills its window from the element's position on every read
type wavAnalyser struct {
	*PCMAnalyser
	graph *wavGraph
}

func (a *wavAnalyser) FrequencyData(dst []byte) {
	if a.graph.live() && !a.Disconnected() {
		a.reset(a.graph.element.window(a.fftSize))
	} else {
		a.reset(nil)
	}
	a.PCMAnalyser.FrequencyData(dst)
}
