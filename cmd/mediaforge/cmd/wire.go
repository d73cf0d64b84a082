package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/entrepeneur4lyf/mediaforge/internal/app"
	"github.com/entrepeneur4lyf/mediaforge/internal/audio"
	"github.com/entrepeneur4lyf/mediaforge/internal/config"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm/prompt"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm/providers"
	"github.com/entrepeneur4lyf/mediaforge/internal/media"
	"github.com/entrepeneur4lyf/mediaforge/internal/speech"
)

// appOptions turns the configuration into controller options. The backend
// is left for the caller.
func appOptions(c *config.Config, state *config.State) (app.Options, error) {
	wd, err := os.Getwd()
	if err != nil {
		return app.Options{}, fmt.Errorf("failed to get working directory: %w", err)
	}

	opts := app.Options{
		Retry:            c.Retry,
		MaxUploadBytes:   c.Upload.MaxBytes,
		PreviewDir:       filepath.Join(c.Data.Directory, "previews"),
		WorkDir:          wd,
		RespectGitignore: c.Context.RespectGitignore,
		ScreenMaxWidth:   c.Screen.MaxWidth,
		ChunkBudget:      c.Speech.ChunkBudget,
		PlayerCommand:    c.Audio.PlayerCommand,
		Mode:             prompt.Mode(state.Mode),
		AutoSpeak:        state.AutoSpeak || c.TUI.AutoSpeak,
		Clipboard:        clipboard.WriteAll,
		Logger:           logger.WithPrefix("app"),
	}
	if len(c.Screen.Command) > 0 {
		opts.Screen = &media.CommandScreen{Command: c.Screen.Command}
	}
	opts.Mic = audio.NewCommandMic(c.Audio.CaptureCommand, c.Audio.SampleRate, logger.WithPrefix("mic"))
	if len(c.Speech.RecognizerCommand) > 0 {
		opts.Recognizer = &speech.CommandRecognizer{
			Command: c.Speech.RecognizerCommand,
			Logger:  logger.WithPrefix("recognizer"),
		}
	}
	if len(c.Speech.SynthCommand) > 0 {
		opts.Synthesizer = &speech.CommandSynthesizer{Command: c.Speech.SynthCommand}
	}
	return opts, nil
}

func newApp(ctx context.Context, c *config.Config, state *config.State) (*app.App, error) {
	opts, err := appOptions(c, state)
	if err != nil {
		return nil, err
	}
	backend, err := providers.NewGemini(ctx, providers.GeminiOptions{
		APIKey:       c.Gemini.APIKey,
		Model:        c.Gemini.Model,
		PollInterval: c.Upload.PollInterval,
		Logger:       logger.WithPrefix("gemini"),
	})
	if err != nil {
		return nil, err
	}
	opts.Backend = backend
	return app.New(opts)
}
