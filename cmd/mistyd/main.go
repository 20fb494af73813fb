// Mistyd is the voice assistant backend for the Misty robot. It accepts audio
// recordings, transcribes them, asks an LLM for an answer and tracks each
// request as a pollable job.
//
// Usage:
//
//	mistyd [serve] [--config /path/to/mistyd.yaml]
//	mistyd ask "explain recursion with example"
//	mistyd mcp
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

var configFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mistyd",
		Short: "Voice assistant backend for the Misty robot",
		Long: `mistyd turns recorded speech into answers.

Audio uploaded to POST /stt is transcribed, run through the prompt engine
against the configured LLM and stored as a job that clients poll at
GET /status/{id}. The same service is exposed over gRPC and MCP.

Run without a subcommand to start the daemon.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (e.g. configs/mistyd.yaml)")

	root.AddCommand(
		newServeCmd(),
		newAskCmd(),
		newMCPCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the configuration and installs the global logger writing to w.
func loadConfig(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	config.SetupLoggingTo(w, cfg.Logging)
	slog.Debug("configuration loaded", "stt", cfg.STT.Backend, "llm", cfg.LLM.Backend)
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mistyd %s\n", version)
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
