package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/config"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/health"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/transport"
	grpctransport "github.com/Aditya-Sinha-7981/Misty-Webapp/internal/transport/grpc"
	httptransport "github.com/Aditya-Sinha-7981/Misty-Webapp/internal/transport/http"
	mcptransport "github.com/Aditya-Sinha-7981/Misty-Webapp/internal/transport/mcp"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon (HTTP, gRPC and health servers)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}
	slog.Info("mistyd starting", "version", version)
	config.WatchLogging(configFile)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	svc := a.service

	healthServer := health.New(cfg.Server.HealthPort, func() map[string]any {
		backends := svc.Backends()
		return map[string]any{
			"stt":  backends.STT,
			"llm":  backends.LLM,
			"jobs": svc.Jobs().Summary.Total,
		}
	})

	// Initialize enabled transports.
	var transports []transport.Transport
	if cfg.Transports.HTTP.Enabled {
		var opts []httptransport.Option
		if cfg.Transports.HTTP.MCP {
			opts = append(opts, httptransport.WithMCP(mcptransport.New(svc, version).Handler()))
		}
		transports = append(transports, httptransport.New(cfg.Transports.HTTP, opts...))
	}
	if cfg.Transports.GRPC.Enabled {
		grpcT := grpctransport.New(cfg.Transports.GRPC)
		healthServer.OnReadyChange(grpcT.SetServing)
		transports = append(transports, grpcT)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return healthServer.ListenAndServe(gctx) })
	for _, t := range transports {
		g.Go(func() error {
			slog.Info("starting transport", "name", t.Name())
			return t.Listen(gctx, svc)
		})
	}

	// Mark as ready once all transports are started.
	healthServer.SetReady(true)
	slog.Info("mistyd ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort)

	<-gctx.Done()
	slog.Info("shutdown signal received, draining...")
	healthServer.SetReady(false)

	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}
	err = g.Wait()

	// Jobs are not cancellable; let in-flight ones reach a terminal state.
	svc.Wait()
	if err != nil && ctx.Err() == nil {
		slog.Error("mistyd stopped with error", "error", err)
		return err
	}
	slog.Info("mistyd stopped")
	return nil
}

