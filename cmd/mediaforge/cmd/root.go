package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/entrepeneur4lyf/mediaforge/internal/config"
	"github.com/entrepeneur4lyf/mediaforge/internal/logging"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui"
	"github.com/spf13/cobra"
)

var (
	debug      bool
	configFile string
)

var (
	cfg       *config.Config
	logger    *log.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "mediaforge",
	Short: "Multimodal chat with Gemini from the terminal",
	Long: `MediaForge is a terminal chat client for Gemini that understands media.

Usage:
  mediaforge                          # Start the interactive chat
  mediaforge ask "your question"      # One-shot answer
  echo "question" | mediaforge ask    # Pipe input

Features:
- Attach images, audio, video and PDFs, or ask about YouTube links
- Persistent context files and screen captures
- Microphone dictation, spoken replies and a live audio spectrum
- Chat history export and import`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	Args:              cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile, debug)
		if err != nil {
			return err
		}
		logger, logCloser, err = logging.Setup(logging.Options{
			DataDir: cfg.Data.Directory,
			Level:   cfg.LogLevel(),
			Stderr:  debug,
		})
		if err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}
		config.Watch(func(c *config.Config) {
			logger.SetLevel(c.LogLevel())
		})
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default searches ~/.config/mediaforge)")
}

// Execute runs the root command until it finishes or the process is signalled
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if logCloser != nil {
		_ = logCloser.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runInteractive(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	statePath := config.StatePath(cfg.Data.Directory)
	state, err := config.LoadState(statePath)
	if err != nil {
		logger.Warn("ignoring unreadable state", "path", statePath, "err", err)
		state = config.NewState()
	}

	a, err := newApp(ctx, cfg, state)
	if err != nil {
		return err
	}
	defer a.Close()

	runErr := tui.Run(ctx, a, tui.Options{
		Theme:     cfg.TUI.Theme,
		FrameRate: cfg.Audio.FrameRate,
		ExportDir: state.ExportDir,
		Logger:    logger.WithPrefix("tui"),
	})

	state.Mode = string(a.Mode())
	state.AutoSpeak = a.AutoSpeak()
	if err := config.SaveState(statePath, state); err != nil {
		logger.Warn("failed to save state", "path", statePath, "err", err)
	}
	return runErr
}
