package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ironsheep/image-intensity/internal/imaging"
)

// imageField is the multipart form field holding the upload.
const imageField = "image"

type calculateRequest struct {
	Image []byte
}

// CalculateResponse is the success body of POST /calculate-intensity.
type CalculateResponse struct {
	AverageIntensity Intensity `json:"average_intensity"`
	Message          string    `json:"message"`

	analysis *Analysis
}

// Intensity is an average intensity serialised with exactly two decimals.
type Intensity float64

// MarshalJSON writes the value as a number with two decimal places.
func (i Intensity) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(i), 'f', 2, 64)), nil
}

func newCalculateResponse(a *Analysis) CalculateResponse {
	rounded := a.Result.Rounded()
	return CalculateResponse{
		AverageIntensity: Intensity(rounded),
		Message:          fmt.Sprintf("Average intensity calculated: %.2f", rounded),
		analysis:         a,
	}
}

// MakeCalculateIntensityEndpoint returns the endpoint that analyzes one upload.
func MakeCalculateIntensityEndpoint(a Analyzer) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(calculateRequest)
		analysis, err := a.Analyze(ctx, req.Image)
		if err != nil {
			return nil, err
		}
		return newCalculateResponse(analysis), nil
	}
}

// decodeCalculateRequest streams the multipart body and keeps the first
// "image" part. A missing or empty part is a MissingInput error.
func decodeCalculateRequest(_ context.Context, r *http.Request) (interface{}, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, errInvalidRequest(err)
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, bodyError(err)
		}
		if part.FormName() != imageField {
			_ = part.Close()
			continue
		}

		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return nil, bodyError(err)
		}
		return calculateRequest{Image: data}, nil
	}

	return nil, imaging.NewError(imaging.KindMissingInput, imaging.FormatUnknown,
		errors.Errorf("multipart field %q not found", imageField))
}

// bodyError keeps a body-limit failure distinguishable from a malformed body.
func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errUploadTooLarge(maxErr.Limit, err)
	}
	return errInvalidRequest(err)
}

func encodeCalculateResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	return json.NewEncoder(w).Encode(response)
}

// timeoutMiddleware bounds the time an endpoint may take. On expiry the request
// fails with an internal error; panics in the endpoint are reported the same way.
func timeoutMiddleware(budget time.Duration) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (interface{}, error) {
			if budget > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, budget)
				defer cancel()
			}

			type outcome struct {
				response interface{}
				err      error
			}
			done := make(chan outcome, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						done <- outcome{err: imaging.NewError(imaging.KindInternal, imaging.FormatUnknown,
							errors.Errorf("panic while processing image: %v", r))}
					}
				}()
				response, err := next(ctx, request)
				done <- outcome{response: response, err: err}
			}()

			select {
			case o := <-done:
				return o.response, o.err
			case <-ctx.Done():
				return nil, imaging.NewError(imaging.KindInternal, imaging.FormatUnknown,
					errors.Wrap(ctx.Err(), "processing budget exhausted"))
			}
		}
	}
}

// loggingMiddleware logs each successful computation.
func loggingMiddleware(logger *zerolog.Logger) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (interface{}, error) {
			begin := time.Now()
			response, err := next(ctx, request)
			if err != nil {
				return response, err
			}

			if resp, ok := response.(CalculateResponse); ok && resp.analysis != nil {
				a := resp.analysis
				event := logger.Info().
					Str("format", a.Format.String()).
					Int("pixels", a.Result.PixelsProcessed).
					Float64("average_intensity", a.Result.AverageIntensity).
					Dur("duration", time.Since(begin))
				if a.Info != nil {
					event = event.Int("width", a.Info.Width).Int("height", a.Info.Height)
				}
				event.Msg("Average intensity calculated")
			}
			return response, nil
		}
	}
}
