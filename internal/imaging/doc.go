// Package imaging decodes uploaded images and computes their average intensity.
//
// The package is the core of the service. It has two stages, both pure
// functions of their input:
//
//   - Decode sniffs the container format from the leading signature, runs the
//     matching decoder, and normalises the result into a DecodedImage: a
//     row-major buffer of 8-bit RGB triples with no alpha.
//   - ComputeAverageIntensity averages (R+G+B)/3 over every pixel.
//
// Process chains the two and is what the HTTP layer calls.
//
// # Supported Formats
//
// JPEG, PNG, GIF, WEBP, BMP and TIFF. The set is a closed enumeration
// (Format); each value has exactly one decode path. GIF input yields its first
// frame.
//
// # Canonical Pixels
//
// Every source is converted to the same representation:
//   - Paletted images are resolved through their palette
//   - Grayscale is replicated into R, G and B
//   - 16-bit channels keep their high byte
//   - Alpha is dropped, never multiplied into the color
//
// # Error Handling
//
// All failures are *Error values carrying a Kind:
//   - KindMissingInput: empty input
//   - KindUnsupportedFormat: unknown signature or unhandled format variant
//   - KindCorrupt: recognised signature, undecodable payload
//   - KindInternal: decoder fault not attributable to the input
//
// Use errors.Is with the Err* sentinels, or KindOf, to branch on the kind.
// Error.Message is safe to show to clients.
//
// # Thread Safety
//
// Nothing in this package holds state between calls. All functions may be
// called concurrently.
package imaging
