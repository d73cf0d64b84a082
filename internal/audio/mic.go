package audio

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultMicCommand records raw signed 16-bit little-endian mono PCM to stdout
var DefaultMicCommand = []string{"arecord", "-q", "-f", "S16_LE", "-c", "1", "-r", "16000", "-t", "raw"}

// ErrMicUnavailable is returned when no capture command can be found
var ErrMicUnavailable = errors.New("audio: microphone capture command not found")

// CommandMic is a microphone stream read from an external capture command.
// It is the gain stage that analysers tap; it is owned by whoever started it.
type CommandMic struct {
	Command    []string
	SampleRate int

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	analysers map[*PCMAnalyser]struct{}
	logger    *log.Logger
}

// NewCommandMic creates a stopped microphone
func NewCommandMic(command []string, sampleRate int, logger *log.Logger) *CommandMic {
	if len(command) == 0 {
		command = DefaultMicCommand
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CommandMic{
		Command:    command,
		SampleRate: sampleRate,
		analysers:  make(map[*PCMAnalyser]struct{}),
		logger:     logger,
	}
}

// Available reports whether the capture command is installed
func (m *CommandMic) Available() bool {
	_, err := exec.LookPath(m.Command[0])
	return err == nil
}

// Start launches the capture command. Starting a running mic is a no-op.
func (m *CommandMic) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return nil
	}
	if !m.Available() {
		return ErrMicUnavailable
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, m.Command[0], m.Command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("microphone pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start microphone: %w", err)
	}

	m.cancel = cancel
	m.done = make(chan struct{})
	go m.read(stdout, cmd, m.done)
	m.logger.Debug("microphone started", "command", m.Command[0], "rate", m.SampleRate)
	return nil
}

func (m *CommandMic) read(r io.Reader, cmd *exec.Cmd, done chan struct{}) {
	defer close(done)
	br := bufio.NewReaderSize(r, 4096)
	frame := make([]byte, 1024)
	samples := make([]float64, len(frame)/2)
	for {
		n, err := io.ReadFull(br, frame)
		if n >= 2 {
			count := n / 2
			for i := 0; i < count; i++ {
				v := int16(binary.LittleEndian.Uint16(frame[2*i:]))
				samples[i] = float64(v) / 32768
			}
			m.Feed(samples[:count])
		}
		if err != nil {
			break
		}
	}
	if err := cmd.Wait(); err != nil {
		m.logger.Debug("microphone command exited", "err", err)
	}
}

// Feed fans samples out to every connected analyser
func (m *CommandMic) Feed(samples []float64) {
	m.mu.Lock()
	targets := make([]*PCMAnalyser, 0, len(m.analysers))
	for a := range m.analysers {
		targets = append(targets, a)
	}
	m.mu.Unlock()
	for _, a := range targets {
		a.Write(samples)
	}
}

// Stop ends the capture command and waits for the reader to drain
func (m *CommandMic) Stop() error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	m.logger.Debug("microphone stopped")
	return nil
}

// Running reports whether the capture command is active
func (m *CommandMic) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// NewAnalyser taps the stream. Disconnecting the analyser removes the tap.
func (m *CommandMic) NewAnalyser(fftSize int) (Analyser, error) {
	a := NewPCMAnalyser(fftSize)
	a.onDisconnect = func() {
		m.mu.Lock()
		delete(m.analysers, a)
		m.mu.Unlock()
	}
	m.mu.Lock()
	m.analysers[a] = struct{}{}
	m.mu.Unlock()
	return a, nil
}

// Analysers returns the number of connected taps
func (m *CommandMic) Analysers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.analysers)
}
