package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/umbrosa/umbrosa/internal/directory"
)

var runBatchLabel string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one batch of scheduled calls immediately",
	RunE:  runBatch,
}

func init() {
	runCmd.Flags().StringVar(&runBatchLabel, "batch", "", "batch label (morning|afternoon)")
	_ = runCmd.MarkFlagRequired("batch")
	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	if !directory.KnownBatch(runBatchLabel) {
		return fmt.Errorf("unknown batch label %q", runBatchLabel)
	}

	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.sched.RunBatch(cmd.Context(), runBatchLabel)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
