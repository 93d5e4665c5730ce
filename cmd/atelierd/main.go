// Command atelierd runs the Atelier project workflow server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "atelierd",
	Short: "Atelier project workflow server",
	Long: `atelierd runs the Atelier engine: it accepts project requirements over
HTTP, drives each project through the seven-stage delivery pipeline in the
background, and streams lifecycle events to clients over WebSocket and SSE.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the atelierd version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "atelierd", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
