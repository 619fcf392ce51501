package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/crosstalk-io/crosstalk/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View crosstalk configuration",
	Long: `View the effective configuration after defaults, the config file,
environment variables, and flags are merged.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	// Validate so a broken file is reported here rather than at run time.
	if _, err := config.Load(); err != nil {
		return err
	}

	settings := viper.AllSettings()
	delete(settings, "config") // flag plumbing, not configuration

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	cmd.Print(string(out))
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	if used := viper.ConfigFileUsed(); used != "" {
		cmd.Println(used)
		return nil
	}
	cmd.Println(config.ConfigFile())
	return nil
}
