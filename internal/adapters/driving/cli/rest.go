package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var restCmd = &cobra.Command{
	Use:   "rest <job>",
	Short: "Serve the REST upload endpoint of a job",
	Long: `Starts an HTTP server on rest.url accepting multipart uploads on /_upload.
Uploaded files are extracted and indexed like crawled files.`,
	Args: cobra.ExactArgs(1),
	RunE: runRest,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func runRest(cmd *cobra.Command, args []string) error {
	settings, created, err := loadSettings(cmd, args[0])
	if err != nil || created {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	job, err := buildJob(ctx, settings)
	if err != nil {
		return err
	}
	defer closeJob(cmd, job)

	server, addr, err := newRESTServer(settings, job)
	if err != nil {
		return err
	}
	if err := server.Run(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
