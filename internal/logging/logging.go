// Package logging configures the process-wide charmbracelet logger. While the
// terminal UI owns the screen, output goes to a file in the data directory.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

const fileName = "mediaforge.log"

// Options selects where and how much to log
type Options struct {
	DataDir string
	Level   log.Level
	// Stderr keeps output on the terminal instead of the log file
	Stderr bool
}

// Setup installs the default logger and returns it with a closer for the
// log file. The closer is a no-op when logging to stderr.
func Setup(opts Options) (*log.Logger, io.Closer, error) {
	if opts.Stderr {
		logger := log.NewWithOptions(os.Stderr, log.Options{
			Level:           opts.Level,
			ReportTimestamp: true,
			Prefix:          "mediaforge",
		})
		log.SetDefault(logger)
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(opts.DataDir, fileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := log.NewWithOptions(f, log.Options{
		Level:           opts.Level,
		ReportTimestamp: true,
		ReportCaller:    opts.Level == log.DebugLevel,
		Formatter:       log.LogfmtFormatter,
	})
	log.SetDefault(logger)
	return logger, f, nil
}

// Path returns the log file location for dataDir
func Path(dataDir string) string {
	return filepath.Join(dataDir, fileName)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
