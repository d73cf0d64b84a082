package cmd

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/entrepeneur4lyf/mediaforge/internal/config"
	"github.com/spf13/cobra"
)

var (
	configForce bool
	configPath  string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file holding every default",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.WriteDefault(path, configForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		if shown.Gemini.APIKey != "" {
			shown.Gemini.APIKey = "********"
		}
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(shown)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configInitCmd.Flags().StringVar(&configPath, "path", "", "Where to write (default ~/.config/mediaforge/config.toml)")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
