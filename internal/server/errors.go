package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ironsheep/image-intensity/internal/imaging"
)

// Error codes returned in the "code" field of error bodies.
const (
	CodeMissingInput      = "MISSING_INPUT"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeCorruptImage      = "CORRUPT_IMAGE"
	CodeInternal          = "INTERNAL_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
)

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error" yaml:"error"`
	Code  string `json:"code" yaml:"code"`
}

// requestError is a failure detected by the transport before the image core runs.
type requestError struct {
	status  int
	code    string
	message string
	err     error
}

func (e *requestError) Error() string {
	if e.err != nil {
		return e.message + ": " + e.err.Error()
	}
	return e.message
}

func (e *requestError) Unwrap() error {
	return e.err
}

func errInvalidRequest(cause error) *requestError {
	return &requestError{
		status:  http.StatusBadRequest,
		code:    CodeInvalidRequest,
		message: "request must be multipart/form-data with an \"image\" field",
		err:     cause,
	}
}

func errPayloadTooLarge(message string, cause error) *requestError {
	return &requestError{
		status:  http.StatusRequestEntityTooLarge,
		code:    CodePayloadTooLarge,
		message: message,
		err:     cause,
	}
}

func errUploadTooLarge(limit int64, cause error) *requestError {
	return errPayloadTooLarge(fmt.Sprintf("upload exceeds the %d byte limit", limit), cause)
}

// classifyError maps any endpoint or transport error to a status and body.
// Internal failures never expose their cause.
func classifyError(err error) (int, ErrorResponse) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return reqErr.status, ErrorResponse{Error: reqErr.message, Code: reqErr.code}
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return classifyError(errUploadTooLarge(maxErr.Limit, err))
	}

	var imgErr *imaging.Error
	if errors.As(err, &imgErr) {
		switch imgErr.Kind {
		case imaging.KindMissingInput:
			return http.StatusBadRequest, ErrorResponse{Error: imgErr.Message(), Code: CodeMissingInput}
		case imaging.KindUnsupportedFormat:
			return http.StatusUnprocessableEntity, ErrorResponse{Error: imgErr.Message(), Code: CodeUnsupportedFormat}
		case imaging.KindCorrupt:
			return http.StatusUnprocessableEntity, ErrorResponse{Error: imgErr.Message(), Code: CodeCorruptImage}
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error: imaging.ErrInternal.Message(),
		Code:  CodeInternal,
	}
}

// encodeError writes err as a JSON error body.
func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	status, body := classifyError(err)
	writeJSON(w, status, body)
}

// errorLogger logs every failed request once, at warn for client errors and
// error for server errors.
type errorLogger struct {
	logger *zerolog.Logger
}

func (l errorLogger) Handle(_ context.Context, err error) {
	status, body := classifyError(err)
	event := l.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = l.logger.Error()
	}
	event.
		Err(err).
		Int("status", status).
		Str("code", body.Code).
		Msg("Image request failed")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
