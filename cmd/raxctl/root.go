package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Raxcore-dev/rax-ai-sdk/config"
	"github.com/Raxcore-dev/rax-ai-sdk/rax"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "raxctl",
	Short:         "Talk to the Rax API from the terminal",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "rax.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every request attempt")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// newClient builds a client from the config file, wiring credential rotation
// so a rewritten api_key takes effect without restarting long-lived sessions.
func newClient() (*rax.Client, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	cc := cfg.Get().ClientConfig()
	if verbose {
		logger, lerr := zap.NewDevelopment()
		if lerr == nil {
			cc.Logger = logger
		}
	}

	client, err := rax.NewWithConfig(cc)
	if err != nil {
		return nil, err
	}
	cfg.OnChange(func(old, new config.Settings) {
		if old.APIKey != new.APIKey {
			client.SetAPIKey(new.APIKey)
		}
	})
	return client, nil
}
