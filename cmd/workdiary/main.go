// Command workdiary runs the work diary ingestion server and its
// maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config/config.yml"

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "workdiary",
		Short: "Work diary snapshot ingestion and media storage service",
		Long: `Work diary receives periodic activity snapshots from desktop agents,
stores their screenshots on disk and their metadata in SQLite, and serves
them back per user and day.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", defaultConfigPath, "Path to the YAML config file")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newPurgeCommand())
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
