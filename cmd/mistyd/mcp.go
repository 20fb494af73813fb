package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcptransport "github.com/Aditya-Sinha-7981/Misty-Webapp/internal/transport/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the assistant as MCP tools over stdio",
		Long: `Runs an MCP server on stdin/stdout for agent hosts. Logs go to stderr.

Tools: ask, job_status, list_jobs, perform_action.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(os.Stderr)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			err = mcptransport.New(a.service, version).RunStdio(ctx)
			a.service.Wait()
			return err
		},
	}
}
