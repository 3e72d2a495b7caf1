// Command umbrosa runs the scheduled outbound call service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "umbrosa",
	Short: "Scheduled outbound call service",
	Long:  "Umbrosa places scheduled outbound assistant calls, stores their transcripts, and feeds prior conversation context into the next call of each series.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
