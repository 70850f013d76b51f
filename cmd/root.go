package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"accmeta/src/log"
)

var debug bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "accmeta",
	Short: "Access database metadata extraction service",
	Long: `accmeta ingests uploaded Access database files, extracts their stored
queries and VBA modules through a background worker, and serves the extracted
artifacts over HTTP.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			log.UseDevelopment()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}
