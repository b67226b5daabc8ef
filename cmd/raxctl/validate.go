package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check whether the configured API key is accepted",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ok, err := client.ValidateKey(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("API key rejected")
		}
		fmt.Println("API key is valid")
		return nil
	},
}
