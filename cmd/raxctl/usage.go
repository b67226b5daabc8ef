package main

import (
	"fmt"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/Raxcore-dev/rax-ai-sdk/rax"
)

var (
	usageStart string
	usageEnd   string
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show aggregated API usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		report, err := client.Usage(cmd.Context(), rax.UsageParams{
			StartDate: usageStart,
			EndDate:   usageEnd,
		})
		if err != nil {
			return err
		}

		table := uitable.New()
		table.AddRow("TIMESTAMP", "OPERATION", "REQUESTS", "CONTEXT TOK", "GENERATED TOK")
		for _, r := range report.Data {
			ts := time.Unix(r.AggregationTimestamp, 0).UTC().Format(time.RFC3339)
			table.AddRow(ts, r.Operation, r.NRequests, r.NContextTokensTotal, r.NGeneratedTokensTotal)
		}
		fmt.Println(table)
		fmt.Printf("total usage: %.2f\n", report.TotalUsage)
		return nil
	},
}

func init() {
	usageCmd.Flags().StringVar(&usageStart, "start", "", "start date, YYYY-MM-DD")
	usageCmd.Flags().StringVar(&usageEnd, "end", "", "end date, YYYY-MM-DD")
}
