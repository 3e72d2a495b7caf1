package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var callsBatchLabel string

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Print the call directory",
	RunE:  listCalls,
}

func init() {
	callsCmd.Flags().StringVar(&callsBatchLabel, "batch", "", "filter by batch label")
	rootCmd.AddCommand(callsCmd)
}

func listCalls(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rt.dir.ListCalls(callsBatchLabel))
}
