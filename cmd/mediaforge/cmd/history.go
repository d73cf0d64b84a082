package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/entrepeneur4lyf/mediaforge/internal/chat"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var historyRaw bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect exported chat histories",
}

var historyShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print an exported chat history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		msgs, err := chat.ImportHistory(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		if len(msgs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no messages")
			return nil
		}

		title := cases.Title(language.English)
		label := lipgloss.NewStyle().Bold(true)
		out := cmd.OutOrStdout()
		for i, msg := range msgs {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, label.Render(title.String(string(msg.Role))))
			if err := printReply(out, msg, historyRaw || msg.Role == chat.RoleUser); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	historyShowCmd.Flags().BoolVar(&historyRaw, "raw", false, "Print replies without markdown rendering")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
