package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/atelier/client"
	"github.com/xraph/atelier/export"
)

var exportFlags struct {
	url     string
	timeout time.Duration
}

var exportCmd = &cobra.Command{
	Use:   "export <project-id> <dir>",
	Short: "Download a project's artifacts into a local directory",
	Long: `export connects to a running atelierd, fetches the project snapshot over
the wire protocol, and writes every artifact to <dir> — one file per
artifact, extension chosen by artifact kind.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), exportFlags.timeout)
		defer cancel()

		n, err := runExport(ctx, slog.Default(), exportFlags.url, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d artifacts to %s\n", n, args[1])
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFlags.url, "url", "ws://localhost:8080/wire", "wire endpoint of the running server")
	f.DurationVar(&exportFlags.timeout, "timeout", 30*time.Second, "overall export deadline")
	rootCmd.AddCommand(exportCmd)
}

// runExport fetches the project over the wire and writes its artifacts.
func runExport(ctx context.Context, logger *slog.Logger, url, projectID, dir string) (int, error) {
	c, err := client.DialContext(ctx, url, client.WithLogger(logger))
	if err != nil {
		return 0, fmt.Errorf("connect to %s: %w", url, err)
	}
	defer c.Close()

	p, err := c.GetProject(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("fetch project %s: %w", projectID, err)
	}
	return export.Write(dir, p)
}
