package speech

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultSynthCommand speaks its {text} argument
var DefaultSynthCommand = []string{"espeak", "{text}"}

// CommandSynthesizer speaks through an external text-to-speech command
type CommandSynthesizer struct {
	Command []string
}

func (s *CommandSynthesizer) command() []string {
	if len(s.Command) == 0 {
		return DefaultSynthCommand
	}
	return s.Command
}

func (s *CommandSynthesizer) Available() bool {
	_, err := exec.LookPath(s.command()[0])
	return err == nil
}

// Speak runs the command for one chunk. A cancelled context kills it.
func (s *CommandSynthesizer) Speak(ctx context.Context, text string) error {
	if ctx.Err() != nil {
		return ErrCanceled
	}
	tmpl := s.command()
	args := make([]string, len(tmpl))
	for i, a := range tmpl {
		args[i] = strings.ReplaceAll(a, "{text}", text)
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ErrInterrupted
		}
		return fmt.Errorf("speech synthesis: %w", err)
	}
	return nil
}

// CommandRecognizer runs a streaming speech-to-text command that prints one
// result per line, prefixed with "partial:" or "final:".
type CommandRecognizer struct {
	Command []string
	Logger  *log.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

func (r *CommandRecognizer) Available() bool {
	if len(r.Command) == 0 {
		return false
	}
	_, err := exec.LookPath(r.Command[0])
	return err == nil
}

func (r *CommandRecognizer) Start(ctx context.Context, h Handler) error {
	if !r.Available() {
		return ErrUnsupported
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("recognizer pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start recognizer: %w", err)
	}
	r.cancel = cancel
	r.stopped = false

	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if res, ok := ParseResultLine(scanner.Text()); ok {
				h.OnResult(res)
			}
		}
		err := cmd.Wait()
		killed := ctx.Err() != nil
		cancel()

		r.mu.Lock()
		stopped := r.stopped
		r.cancel = nil
		r.mu.Unlock()

		if err != nil && !stopped && !killed {
			if r.Logger != nil {
				r.Logger.Debug("recognizer exited", "err", err)
			}
			h.OnError(fmt.Errorf("speech recognition: %w", err))
			return
		}
		h.OnEnd()
	}()
	return nil
}

func (r *CommandRecognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return nil
	}
	r.stopped = true
	r.cancel()
	return nil
}

// ParseResultLine decodes one line of recognizer output
func ParseResultLine(line string) (Result, bool) {
	line = strings.TrimSpace(line)
	if rest, ok := strings.CutPrefix(line, "final:"); ok {
		return Result{Transcript: strings.TrimSpace(rest), Final: true}, true
	}
	if rest, ok := strings.CutPrefix(line, "partial:"); ok {
		return Result{Transcript: strings.TrimSpace(rest)}, true
	}
	return Result{}, false
}
