package imaging

import "math"

// MaxIntensity is the upper bound of the 0-255 intensity scale.
const MaxIntensity = 255.0

// Result is the outcome of a successful intensity computation.
type Result struct {
	// AverageIntensity is the mean per-pixel intensity in [0, 255], full precision.
	AverageIntensity float64 `json:"average_intensity" yaml:"average_intensity"`

	// PixelsProcessed is the number of pixels averaged. Always >= 1.
	PixelsProcessed int `json:"pixels_processed" yaml:"pixels_processed"`
}

// Rounded returns AverageIntensity rounded to two decimal places, the
// precision used on the wire.
func (r Result) Rounded() float64 {
	return math.Round(r.AverageIntensity*100) / 100
}

// ComputeAverageIntensity returns the mean of (R+G+B)/3 over every pixel.
//
// Channels are averaged without weighting or gamma correction. The sum of
// R+G+B is accumulated exactly in a uint64 in row-major order and divided once
// at the end, so identical buffers always give bit-identical results and there
// is no precision loss even for 10^8+ pixel images.
//
// img must come from Decode (or otherwise hold at least one pixel). A buffer
// with no pixels yields a zero Result.
func ComputeAverageIntensity(img *DecodedImage) Result {
	pixels := img.PixelCount()
	if pixels <= 0 {
		return Result{}
	}

	var sum uint64
	for _, v := range img.Pix[:pixels*3] {
		sum += uint64(v)
	}

	return Result{
		AverageIntensity: float64(sum) / (3 * float64(pixels)),
		PixelsProcessed:  pixels,
	}
}

// Process decodes data and computes its average intensity.
//
// This is the single operation the HTTP layer calls per upload. It returns
// exactly one of a Result or an *Error.
func Process(data []byte) (*Result, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	res := ComputeAverageIntensity(img)
	return &res, nil
}
