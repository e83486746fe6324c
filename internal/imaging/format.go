package imaging

import "bytes"

// Format identifies one of the supported container formats.
//
// The set is closed: every value has exactly one decode path in decodeFormat
// and probeFormat, selected by signature sniffing in DetectFormat.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatGIF
	FormatWEBP
	FormatBMP
	FormatTIFF
)

// String returns the lowercase format name ("jpeg", "png", ...).
func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatGIF:
		return "gif"
	case FormatWEBP:
		return "webp"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	default:
		return "unknown"
	}
}

// MarshalText lets Format appear by name in JSON and YAML output.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

var (
	sigJPEG     = []byte{0xff, 0xd8, 0xff}
	sigPNG      = []byte("\x89PNG\r\n\x1a\n")
	sigGIF87a   = []byte("GIF87a")
	sigGIF89a   = []byte("GIF89a")
	sigRIFF     = []byte("RIFF")
	sigWEBP     = []byte("WEBP")
	sigBMP      = []byte("BM")
	sigTIFFLE   = []byte("II*\x00")
	sigTIFFBE   = []byte("MM\x00*")
	webpTagFrom = 8
)

// DetectFormat identifies the container format from the leading bytes of data.
//
// Only the signature is inspected; a match says nothing about whether the
// rest of the payload is well formed.
func DetectFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, sigJPEG):
		return FormatJPEG
	case bytes.HasPrefix(data, sigPNG):
		return FormatPNG
	case bytes.HasPrefix(data, sigGIF87a), bytes.HasPrefix(data, sigGIF89a):
		return FormatGIF
	case bytes.HasPrefix(data, sigRIFF) && len(data) >= webpTagFrom+len(sigWEBP) &&
		bytes.Equal(data[webpTagFrom:webpTagFrom+len(sigWEBP)], sigWEBP):
		return FormatWEBP
	case bytes.HasPrefix(data, sigBMP):
		return FormatBMP
	case bytes.HasPrefix(data, sigTIFFLE), bytes.HasPrefix(data, sigTIFFBE):
		return FormatTIFF
	default:
		return FormatUnknown
	}
}
