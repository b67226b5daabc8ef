package main

import (
	"fmt"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models the API key can access",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		list, err := client.ListModels(cmd.Context())
		if err != nil {
			return err
		}

		table := uitable.New()
		table.AddRow("ID", "OWNED BY", "CREATED")
		for _, m := range list.Data {
			created := ""
			if m.Created > 0 {
				created = time.Unix(m.Created, 0).UTC().Format("2006-01-02")
			}
			table.AddRow(m.ID, m.OwnedBy, created)
		}
		fmt.Println(table)
		return nil
	},
}
