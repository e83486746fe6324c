package server

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// testConfig is DefaultConfig with timeouts short enough for tests.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.ShutdownTimeout = 0
	return cfg
}

func newTestServer(t *testing.T, cfg Config, opts ...Option) *Server {
	t.Helper()
	logger := zerolog.Nop()
	s, err := New(cfg, &logger, opts...)
	require.NoError(t, err)
	return s
}

func solidPNG(t *testing.T, width, height int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// paddedJPEG encodes a solid JPEG with two 40 KB comment segments ahead of
// the frame header.
func paddedJPEG(t *testing.T, width, height int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))
	data := buf.Bytes()

	const size = 40000
	out := append([]byte{}, data[:2]...)
	for i := 0; i < 2; i++ {
		out = append(out, 0xff, 0xfe, byte((size+2)>>8), byte(size+2))
		out = append(out, bytes.Repeat([]byte{'x'}, size)...)
	}
	return append(out, data[2:]...)
}

// multipartBody builds a form with one file part per field.
func multipartBody(t *testing.T, fields map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range fields {
		fw, err := mw.CreateFormFile(name, name+".bin")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// upload posts data as the "image" field and returns the recorded response.
func upload(t *testing.T, h http.Handler, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, map[string][]byte{"image": data})
	req := httptest.NewRequest(http.MethodPost, "/calculate-intensity", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// analyzerFunc adapts a function to the Analyzer interface.
type analyzerFunc func(ctx context.Context, data []byte) (*Analysis, error)

func (f analyzerFunc) Analyze(ctx context.Context, data []byte) (*Analysis, error) {
	return f(ctx, data)
}
