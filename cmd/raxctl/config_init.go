package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Raxcore-dev/rax-ai-sdk/config"
	"github.com/Raxcore-dev/rax-ai-sdk/rax"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the raxctl configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil {
			return fmt.Errorf("%s already exists", cfgFile)
		}

		starter := config.Settings{
			APIKey:      "sk-your-key-here",
			BaseURL:     rax.DefaultBaseURL,
			Timeout:     rax.DefaultTimeout,
			Retries:     rax.DefaultRetries,
			BackoffBase: rax.DefaultBackoffBase,
		}
		data, err := yaml.Marshal(starter)
		if err != nil {
			return fmt.Errorf("marshal starter config: %w", err)
		}
		if err := os.WriteFile(cfgFile, data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", cfgFile, err)
		}
		fmt.Printf("wrote %s\n", cfgFile)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
