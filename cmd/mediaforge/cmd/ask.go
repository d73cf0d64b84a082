package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/entrepeneur4lyf/mediaforge/internal/chat"
	"github.com/entrepeneur4lyf/mediaforge/internal/config"
	"github.com/entrepeneur4lyf/mediaforge/internal/media"
	"github.com/spf13/cobra"
)

var (
	askFile    string
	askContext []string
	askVideo   string
	askMode    string
	askHistory string
	askSaveDir string
	askRaw     bool
)

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Ask a single question and print the answer",
	Example: `  mediaforge ask "what is in this picture?" --file photo.png
  mediaforge ask "summarize the talk" --video talk.mp4 --mode summarize
  mediaforge ask "compare these" --context "docs/**/*.md"
  echo "explain https://youtu.be/dQw4w9WgXcQ" | mediaforge ask`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		text := strings.Join(args, " ")
		if text == "" && hasStdinInput() {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("error reading stdin: %w", err)
			}
			text = strings.TrimSpace(string(data))
		}

		ctx := cmd.Context()
		state := config.NewState()
		a, err := newApp(ctx, cfg, state)
		if err != nil {
			return err
		}
		defer a.Close()

		if askHistory != "" {
			if _, err := a.ImportHistory(ctx, askHistory); err != nil {
				return err
			}
		}
		if askMode != "" {
			if _, err := a.SetMode(askMode); err != nil {
				return err
			}
		}
		if askFile != "" {
			if err := a.Attach(askFile); err != nil {
				return err
			}
		}
		if len(askContext) > 0 {
			if _, err := a.AddContextFiles(askContext...); err != nil {
				return err
			}
			a.WaitUploads()
			for _, f := range a.State().ContextFiles {
				if f.State == media.StateFailed {
					logger.Warn("context file failed to upload", "file", f.DisplayName)
				}
			}
		}
		if askVideo != "" {
			if err := a.SetVideo(ctx, askVideo); err != nil {
				return err
			}
		}

		a.SetInput(text)
		if err := a.Send(ctx); err != nil {
			if msg := a.State().Error; msg != "" {
				return errors.New(msg)
			}
			return err
		}

		msgs := a.Messages()
		if err := printReply(cmd.OutOrStdout(), msgs[len(msgs)-1], askRaw); err != nil {
			return err
		}
		if askSaveDir != "" {
			path, err := a.ExportHistory(askSaveDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "history saved to %s\n", path)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "Attach an image, audio, video or PDF file")
	askCmd.Flags().StringArrayVarP(&askContext, "context", "c", nil, "Upload files matching a glob as context (repeatable)")
	askCmd.Flags().StringVar(&askVideo, "video", "", "Upload a video or audio file as the conversation's media")
	askCmd.Flags().StringVarP(&askMode, "mode", "m", "", "Assistant mode (chat, summarize, transcribe, key-moments, explain)")
	askCmd.Flags().StringVar(&askHistory, "history", "", "Continue from an exported chat history")
	askCmd.Flags().StringVar(&askSaveDir, "save", "", "Export the resulting history to this directory")
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "Print the reply without markdown rendering")
	rootCmd.AddCommand(askCmd)
}

func hasStdinInput() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	// Not a character device means piped or redirected
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// printReply writes a model message and its sources
func printReply(w io.Writer, msg chat.Message, raw bool) error {
	text := msg.Text
	if len(msg.GroundingSources) > 0 {
		var b strings.Builder
		b.WriteString(text)
		b.WriteString("\n\nSources:\n")
		for i, s := range msg.GroundingSources {
			fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, s.Title, s.URI)
		}
		text = b.String()
	}
	if !raw {
		rendered, err := glamour.Render(text, "auto")
		if err == nil {
			text = rendered
		}
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(text, "\n"))
	return err
}
