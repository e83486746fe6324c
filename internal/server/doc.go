// Package server implements the HTTP API of the image intensity calculator.
//
// # Routes
//
//   - POST /calculate-intensity: multipart upload, field "image"
//   - GET /health: plain "OK"
//   - GET /swagger-ui: interactive API documentation
//   - GET /api-docs/openapi.json and /api-docs/openapi.yaml: OpenAPI 3.0 document
//   - GET /metrics: Prometheus metrics
//
// The documentation and metrics routes can be switched off in Config.
//
// # Request Pipeline
//
// POST /calculate-intensity is a go-kit endpoint behind a gorilla/mux router:
//
//	recovery -> request log -> CORS -> body limit -> decode multipart
//	  -> log / metrics / timeout middleware -> Analyzer
//
// The Analyzer probes the image header to enforce the pixel budget, then runs
// imaging.Decode and imaging.ComputeAverageIntensity inside trace spans.
//
// # Responses
//
// Success is 200 with
//
//	{"average_intensity": 150.00, "message": "Average intensity calculated: 150.00"}
//
// where average_intensity always carries two decimals. Every failure is a JSON
// ErrorResponse with a stable code:
//   - 400 MISSING_INPUT, INVALID_REQUEST
//   - 413 PAYLOAD_TOO_LARGE
//   - 422 UNSUPPORTED_FORMAT, CORRUPT_IMAGE
//   - 500 INTERNAL_ERROR (decoder fault, processing budget exhausted, panic)
//
// Internal errors never reveal their cause to the client; the cause is logged.
//
// # Lifecycle
//
// Run listens on Config.Addr and serves until its context is cancelled or the
// process receives SIGINT or SIGTERM, then drains in-flight requests for up
// to Config.ShutdownTimeout.
//
//	srv, err := server.New(server.DefaultConfig(), &logger)
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx)
package server
