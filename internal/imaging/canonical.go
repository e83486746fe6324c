package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// DecodedImage is the canonical pixel buffer every supported format is
// normalised into before intensity is computed.
//
// Pix holds Width*Height RGB triples in row-major order, 3 bytes per pixel,
// no alpha. Width and Height are always positive for values returned by
// Decode.
//
// DecodedImage also satisfies image.Image with an opaque colour model so it
// can be handed to library code that reads image.Image.
type DecodedImage struct {
	Width  int
	Height int
	Pix    []uint8
}

// PixelCount returns Width*Height.
func (d *DecodedImage) PixelCount() int {
	return d.Width * d.Height
}

// RGBAt returns the pixel at (x, y). The caller must keep (x, y) in bounds.
func (d *DecodedImage) RGBAt(x, y int) RGBColor {
	i := (y*d.Width + x) * 3
	return RGBColor{R: d.Pix[i], G: d.Pix[i+1], B: d.Pix[i+2]}
}

// ColorModel implements image.Image.
func (d *DecodedImage) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image.
func (d *DecodedImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.Width, d.Height)
}

// At implements image.Image. Pixels outside the bounds are transparent black.
func (d *DecodedImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(d.Bounds())) {
		return color.RGBA{}
	}
	c := d.RGBAt(x, y)
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// toCanonical converts any decoded image into a DecodedImage.
//
// Conversion goes through a non-premultiplied NRGBA copy, so palettes are
// resolved, gray is replicated into R, G and B, 16-bit channels keep their high
// byte, and alpha is discarded without being multiplied into the colour.
func toCanonical(img image.Image, format Format) (*DecodedImage, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, NewError(KindCorrupt, format, errors.Errorf("decoded image has no pixels (%dx%d)", w, h))
	}

	// The alpha plane of NYCbCrA is separate from its colour planes.
	if a, ok := img.(*image.NYCbCrA); ok {
		img = &a.YCbCr
	}

	src := imaging.Clone(img)
	pix := make([]uint8, w*h*3)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		dst := pix[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			dst[x*3+0] = row[x*4+0]
			dst[x*3+1] = row[x*4+1]
			dst[x*3+2] = row[x*4+2]
		}
	}

	return &DecodedImage{Width: w, Height: h, Pix: pix}, nil
}
