package imaging

import (
	"github.com/anthonynsimon/bild/histogram"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
//
// Each component ranges from 0 to 255, where:
//   - 0 represents no intensity (black for all components)
//   - 255 represents full intensity (white for all components)
type RGBColor struct {
	R uint8 `json:"r" yaml:"r"` // Red component (0-255)
	G uint8 `json:"g" yaml:"g"` // Green component (0-255)
	B uint8 `json:"b" yaml:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h" yaml:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s" yaml:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l" yaml:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ChannelMeans holds the mean value of each channel over an image (0-255).
type ChannelMeans struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
}

// ColorSummary describes the average color of a decoded image.
//
// It is reporting data only. The average intensity of an image always equals
// the mean of the three channel means, so the summary never disagrees with
// ComputeAverageIntensity.
type ColorSummary struct {
	// Means are the per-channel averages at full precision.
	Means ChannelMeans `json:"channel_means" yaml:"channel_means"`

	// Hex is the rounded mean color in "#rrggbb" form.
	Hex string `json:"mean_hex" yaml:"mean_hex"`

	// RGB is the rounded mean color.
	RGB RGBColor `json:"mean_rgb" yaml:"mean_rgb"`

	// HSL is the mean color in HSL space.
	HSL HSLColor `json:"mean_hsl" yaml:"mean_hsl"`
}

// SummarizeColor computes per-channel means and the mean color of img.
//
// Channel means are taken from a 256-bin histogram per channel, which is
// exact for 8-bit data. img must contain at least one pixel.
func SummarizeColor(img *DecodedImage) *ColorSummary {
	hist := histogram.NewRGBAHistogram(img)
	pixels := float64(img.PixelCount())

	means := ChannelMeans{
		R: binMean(hist.R.Bins, pixels),
		G: binMean(hist.G.Bins, pixels),
		B: binMean(hist.B.Bins, pixels),
	}

	mean := colorful.Color{R: means.R / 255, G: means.G / 255, B: means.B / 255}.Clamped()
	r, g, b := mean.RGB255()
	h, s, l := mean.Hsl()

	return &ColorSummary{
		Means: means,
		Hex:   mean.Hex(),
		RGB:   RGBColor{R: r, G: g, B: b},
		HSL:   HSLColor{H: int(h), S: int(s * 100), L: int(l * 100)},
	}
}

// binMean returns the mean sample value of a histogram over pixels samples.
func binMean(bins []int, pixels float64) float64 {
	if pixels == 0 {
		return 0
	}
	var sum float64
	for v, n := range bins {
		sum += float64(v) * float64(n)
	}
	return sum / pixels
}
