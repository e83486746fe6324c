package imaging

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/gen2brain/jpegn"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// ImageInfo describes an encoded image without decoding its pixel data.
type ImageInfo struct {
	// Format is the container format detected from the leading signature.
	Format Format `json:"format" yaml:"format"`

	// Width is the image width in pixels as declared by the header.
	Width int `json:"width" yaml:"width"`

	// Height is the image height in pixels as declared by the header.
	Height int `json:"height" yaml:"height"`

	// SizeBytes is the length of the encoded input.
	SizeBytes int `json:"size_bytes" yaml:"size_bytes"`
}

// Pixels returns Width*Height as declared by the header.
func (i *ImageInfo) Pixels() int64 {
	return int64(i.Width) * int64(i.Height)
}

// Decode turns raw image bytes of unknown format into the canonical RGB buffer.
//
// Parameters:
//   - data: The complete encoded image. It is only read, never retained.
//
// Returns:
//   - *DecodedImage: Width*Height RGB triples, both dimensions positive.
//   - error: Always an *Error when non-nil.
//
// # Errors
//
//   - KindMissingInput if data is empty
//   - KindUnsupportedFormat if no supported signature matches, or the decoder
//     reports a feature it does not handle
//   - KindCorrupt if the signature matched but the payload is truncated,
//     malformed, or decodes to zero pixels
//   - KindInternal if the decoder faults (resource exhaustion, panic)
//
// Decode imposes no size limit. Callers that accept untrusted input should
// check Probe first.
func Decode(data []byte) (img *DecodedImage, err error) {
	format, err := sniff(data)
	if err != nil {
		return nil, err
	}

	defer recoverDecoder(format, &err)

	src, err := decodeFormat(format, data)
	if err != nil {
		return nil, classify(format, err)
	}

	return toCanonical(src, format)
}

// Probe reads only the image header and reports format and dimensions.
//
// Errors are classified the same way as Decode. A successful Probe does not
// guarantee that Decode will succeed: pixel data past the header is not read.
func Probe(data []byte) (info *ImageInfo, err error) {
	format, err := sniff(data)
	if err != nil {
		return nil, err
	}

	defer recoverDecoder(format, &err)

	cfg, err := probeFormat(format, data)
	if err != nil {
		return nil, classify(format, err)
	}

	return &ImageInfo{
		Format:    format,
		Width:     cfg.Width,
		Height:    cfg.Height,
		SizeBytes: len(data),
	}, nil
}

// LoadFile reads an image file into memory for Decode or Probe.
func LoadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image")
	}
	return data, nil
}

func sniff(data []byte) (Format, error) {
	if len(data) == 0 {
		return FormatUnknown, NewError(KindMissingInput, FormatUnknown, errors.New("empty image buffer"))
	}
	format := DetectFormat(data)
	if format == FormatUnknown {
		return FormatUnknown, NewError(KindUnsupportedFormat, FormatUnknown, errors.New("no known image signature"))
	}
	return format, nil
}

func decodeFormat(format Format, data []byte) (image.Image, error) {
	r := bytes.NewReader(data)
	switch format {
	case FormatJPEG:
		return jpegn.Decode(r)
	case FormatPNG:
		return png.Decode(r)
	case FormatGIF:
		return gif.Decode(r)
	case FormatWEBP:
		return webp.Decode(r)
	case FormatBMP:
		return bmp.Decode(r)
	case FormatTIFF:
		return tiff.Decode(r)
	default:
		return nil, errors.Errorf("no decoder for format %s", format)
	}
}

func probeFormat(format Format, data []byte) (image.Config, error) {
	r := bytes.NewReader(data)
	switch format {
	case FormatJPEG:
		cfg, err := jpegn.DecodeConfig(r)
		if err == nil {
			return cfg, nil
		}
		// jpegn only scans a bounded prefix for the frame header, so large
		// APPn or COM segments hide it. The stdlib walks every segment.
		if stdCfg, stdErr := jpeg.DecodeConfig(bytes.NewReader(data)); stdErr == nil {
			return stdCfg, nil
		}
		return image.Config{}, err
	case FormatPNG:
		return png.DecodeConfig(r)
	case FormatGIF:
		return gif.DecodeConfig(r)
	case FormatWEBP:
		return webp.DecodeConfig(r)
	case FormatBMP:
		return bmp.DecodeConfig(r)
	case FormatTIFF:
		return tiff.DecodeConfig(r)
	default:
		return image.Config{}, errors.Errorf("no decoder for format %s", format)
	}
}

// classify maps a decoder error to an *Error once the format is known.
func classify(format Format, err error) *Error {
	var (
		pngErr  png.UnsupportedError
		jpegErr jpeg.UnsupportedError
		tiffErr tiff.UnsupportedError
	)
	switch {
	case errors.As(err, &pngErr), errors.As(err, &jpegErr), errors.As(err, &tiffErr),
		errors.Is(err, bmp.ErrUnsupported), errors.Is(err, jpegn.ErrUnsupported):
		return NewError(KindUnsupportedFormat, format, err)
	case errors.Is(err, jpegn.ErrOutOfMemory), errors.Is(err, jpegn.ErrInternal):
		return NewError(KindInternal, format, err)
	default:
		return NewError(KindCorrupt, format, err)
	}
}

// recoverDecoder turns a decoder panic into a KindInternal error.
func recoverDecoder(format Format, err *error) {
	if r := recover(); r != nil {
		*err = NewError(KindInternal, format, errors.Errorf("decoder panic: %v", r))
	}
}
