package imaging

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why an image could not be turned into an intensity result.
type Kind int

const (
	// KindInternal is any failure not attributable to the input itself.
	KindInternal Kind = iota
	// KindMissingInput means no image bytes were supplied.
	KindMissingInput
	// KindUnsupportedFormat means the bytes are not in a handled container format.
	KindUnsupportedFormat
	// KindCorrupt means the signature matched but the payload did not decode.
	KindCorrupt
)

// String returns the snake_case name used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindMissingInput:
		return "missing_input"
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindCorrupt:
		return "corrupt"
	default:
		return "internal"
	}
}

// Error is the failure outcome of Decode, Probe and Process.
//
// Err holds the underlying cause for logging. It is never part of the public
// message returned by Message.
type Error struct {
	Kind   Kind
	Format Format
	Err    error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrMissingInput      = &Error{Kind: KindMissingInput}
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat}
	ErrCorrupt           = &Error{Kind: KindCorrupt}
	ErrInternal          = &Error{Kind: KindInternal}
)

// NewError builds an *Error of the given kind around cause.
func NewError(kind Kind, format Format, cause error) *Error {
	return &Error{Kind: kind, Format: format, Err: cause}
}

func (e *Error) Error() string {
	msg := "imaging: " + e.Message()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Message returns a stable, human-readable description safe to send to clients.
func (e *Error) Message() string {
	switch e.Kind {
	case KindMissingInput:
		return "no image data provided"
	case KindUnsupportedFormat:
		if e.Format != FormatUnknown {
			return fmt.Sprintf("unsupported %s image variant", e.Format)
		}
		return "unsupported image format"
	case KindCorrupt:
		if e.Format != FormatUnknown {
			return fmt.Sprintf("%s image data is corrupt or truncated", e.Format)
		}
		return "image data is corrupt or truncated"
	default:
		return "internal error while processing image"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Err == nil && t.Format == FormatUnknown && t.Kind == e.Kind
}

// KindOf returns the Kind carried by err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
