package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-intensity/internal/config"
	"github.com/ironsheep/image-intensity/internal/logging"
	"github.com/ironsheep/image-intensity/internal/server"
	"github.com/ironsheep/image-intensity/internal/tracing"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Start the HTTP API and serve until SIGINT or SIGTERM.

Endpoints:
  POST /calculate-intensity   multipart upload, field "image"
  GET  /health                liveness probe
  GET  /swagger-ui            API documentation
  GET  /api-docs/openapi.json OpenAPI document (also .yaml)
  GET  /metrics               Prometheus metrics`,
		Example: `  image-intensity serve
  image-intensity serve --port 8080 --max-pixels 50000000
  IMAGE_INTENSITY_SERVER_PORT=8080 image-intensity serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags(), opts.configFile)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, opts.build)
		},
	}

	s := defaults.Server
	f := cmd.Flags()
	f.String("host", s.Host, "host address to bind to")
	f.Int("port", s.Port, "port to listen on")
	f.Int64("max-upload-bytes", s.MaxUploadBytes, "maximum request body size in bytes (0 disables)")
	f.Int64("max-pixels", s.MaxPixels, "maximum declared image width*height (0 disables)")
	f.Duration("request-timeout", s.RequestTimeout, "processing budget per upload (0 disables)")
	f.Bool("cors", s.CORSEnabled, "send CORS headers")
	f.StringSlice("cors-origins", s.CORSOrigins, "allowed CORS origins (* for any)")
	f.Bool("metrics", s.MetricsEnabled, "serve Prometheus metrics on /metrics")
	f.Bool("docs", s.DocsEnabled, "serve Swagger UI and the OpenAPI document")
	f.Bool("trace", defaults.Trace.Enabled, "export OpenTelemetry spans over OTLP gRPC")
	f.String("trace-endpoint", defaults.Trace.Endpoint, "OTLP gRPC collector address")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, build buildInfo) error {
	logger := logging.New(cfg.Log)
	logger.Info().
		Str("version", build.Version).
		Str("commit", build.GitCommit).
		Str("config_file", cfg.File).
		Msg("Starting image-intensity")

	tracer, shutdownTracing, err := tracing.New(ctx, cfg.Trace, build.Version)
	if err != nil {
		return errors.Wrap(err, "failed to set up tracing")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("Failed to flush traces")
		}
	}()

	srv, err := server.New(cfg.Server, &logger,
		server.WithTracer(tracer),
		server.WithVersion(build.Version),
	)
	if err != nil {
		return err
	}
	if err := srv.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Server stopped with error")
		return err
	}
	logger.Info().Msg("Server stopped")
	return nil
}
