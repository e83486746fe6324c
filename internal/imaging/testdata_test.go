package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// solidImage creates an opaque RGBA image filled with a single color.
func solidImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// gradientImage creates an opaque image whose channels vary with position.
func gradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / max(width-1, 1)),
				G: uint8(y * 255 / max(height-1, 1)),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}

// paletted converts an image with few colors into an exact *image.Paletted.
func paletted(t *testing.T, src image.Image) *image.Paletted {
	t.Helper()
	bounds := src.Bounds()
	var pal color.Palette
	index := map[color.RGBA]uint8{}
	dst := image.NewPaletted(bounds, nil)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(src.At(x, y)).(color.RGBA)
			i, ok := index[c]
			if !ok {
				require.Less(t, len(pal), 256, "too many colors for a palette")
				i = uint8(len(pal))
				index[c] = i
				pal = append(pal, c)
			}
			dst.SetColorIndex(x, y, i)
		}
	}
	dst.Palette = pal
	return dst
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))
	return buf.Bytes()
}

func encodeGIF(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, paletted(t, img), nil))
	return buf.Bytes()
}

func encodeBMP(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	return buf.Bytes()
}

func encodeTIFF(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, img, nil))
	return buf.Bytes()
}

// padJPEG inserts COM segments of size bytes each after the SOI marker,
// pushing the frame header deep into the stream the way large EXIF blocks do.
func padJPEG(data []byte, segments, size int) []byte {
	out := append([]byte{}, data[:2]...)
	for i := 0; i < segments; i++ {
		out = append(out, 0xff, 0xfe, byte((size+2)>>8), byte(size+2))
		out = append(out, bytes.Repeat([]byte{'x'}, size)...)
	}
	return append(out, data[2:]...)
}

// webpLossless1x1 is a 1x1 VP8L image holding the opaque pixel (100, 150, 200).
var webpLossless1x1 = []byte{
	0x52, 0x49, 0x46, 0x46, 0x18, 0x00, 0x00, 0x00, 0x57, 0x45, 0x42, 0x50,
	0x56, 0x50, 0x38, 0x4c, 0x0c, 0x00, 0x00, 0x00, 0x2f, 0x00, 0x00, 0x00,
	0x00, 0xa8, 0x65, 0xc9, 0x8a, 0xdc, 0xff, 0x00,
}
