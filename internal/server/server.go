package server

import (
	"context"
	"net"
	"net/http"
	"syscall"

	"github.com/go-kit/kit/endpoint"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/ironsheep/image-intensity/internal/tracing"
)

// Server is the HTTP front end of the intensity calculator.
type Server struct {
	cfg      Config
	logger   *zerolog.Logger
	tracer   trace.Tracer
	analyzer Analyzer
	metrics  *Metrics
	version  string
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithTracer records spans on t instead of a no-op tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// WithAnalyzer replaces the image analyzer built from the config.
func WithAnalyzer(a Analyzer) Option {
	return func(s *Server) { s.analyzer = a }
}

// WithVersion sets the version reported in the OpenAPI document.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a server for cfg. Nothing listens until Run or Serve is called.
func New(cfg Config, logger *zerolog.Logger, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server config")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		tracer:  tracing.NoopTracer(),
		metrics: NewMetrics(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.analyzer == nil {
		s.analyzer = NewAnalyzer(cfg.MaxPixels, s.tracer)
	}
	return s, nil
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)

	r.Path("/calculate-intensity").Methods(http.MethodPost).
		Handler(bodyLimit(s.cfg.MaxUploadBytes)(s.calculateIntensityHandler()))
	r.Path("/health").Methods(http.MethodGet).HandlerFunc(s.handleHealth)

	if s.cfg.DocsEnabled {
		r.Path("/swagger-ui").Methods(http.MethodGet).HandlerFunc(s.handleSwaggerUI)
		r.Path(openAPIJSONPath).Methods(http.MethodGet).HandlerFunc(s.handleOpenAPIJSON)
		r.Path(openAPIYAMLPath).Methods(http.MethodGet).HandlerFunc(s.handleOpenAPIYAML)
	}
	if s.cfg.MetricsEnabled {
		r.Path("/metrics").Methods(http.MethodGet).Handler(s.metrics.Handler())
	}

	middlewares := []func(http.Handler) http.Handler{
		recovery(s.logger),
		requestLogger(s.logger),
	}
	if s.cfg.CORSEnabled {
		middlewares = append(middlewares, newCORS(s.cfg.CORSOrigins).Handler)
	}
	return chain(middlewares...)(r)
}

func (s *Server) calculateIntensityHandler() http.Handler {
	ep := endpoint.Chain(
		loggingMiddleware(s.logger),
		s.metrics.Middleware(),
		timeoutMiddleware(s.cfg.RequestTimeout),
	)(MakeCalculateIntensityEndpoint(s.analyzer))

	decode := func(ctx context.Context, r *http.Request) (interface{}, error) {
		req, err := decodeCalculateRequest(ctx, r)
		if err != nil {
			s.metrics.ObserveRejected(err)
		}
		return req, err
	}

	return httptransport.NewServer(
		ep,
		decode,
		encodeCalculateResponse,
		httptransport.ServerErrorEncoder(encodeError),
		httptransport.ServerErrorHandler(errorLogger{logger: s.logger}),
	)
}

// Run listens on the configured address and serves until ctx is cancelled or
// SIGINT/SIGTERM arrives, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.cfg.Addr())
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener. It takes ownership of ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	var g run.Group
	{
		g.Add(func() error {
			s.logger.Info().
				Str("addr", ln.Addr().String()).
				Bool("docs", s.cfg.DocsEnabled).
				Bool("metrics", s.cfg.MetricsEnabled).
				Msg("HTTP server listening")
			return srv.Serve(ln)
		}, func(error) {
			shutdownCtx, cancel := context.Background(), context.CancelFunc(func() {})
			if s.cfg.ShutdownTimeout > 0 {
				shutdownCtx, cancel = context.WithTimeout(shutdownCtx, s.cfg.ShutdownTimeout)
			}
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error().Err(err).Msg("HTTP server shutdown failed")
			}
		})
	}
	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	err := g.Run()
	var sigErr run.SignalError
	switch {
	case errors.As(err, &sigErr):
		s.logger.Info().Str("signal", sigErr.Signal.String()).Msg("Shutting down")
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, http.ErrServerClosed):
		return nil
	default:
		return err
	}
}
