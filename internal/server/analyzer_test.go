package server

import (
	"context"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ironsheep/image-intensity/internal/imaging"
	"github.com/ironsheep/image-intensity/internal/tracing"
)

func TestAnalyzer_Success(t *testing.T) {
	a := NewAnalyzer(0, tracing.NoopTracer())

	analysis, err := a.Analyze(context.Background(), solidPNG(t, 3, 2, color.RGBA{R: 100, G: 150, B: 200, A: 255}))
	require.NoError(t, err)
	assert.Equal(t, imaging.FormatPNG, analysis.Format)
	assert.Equal(t, 150.0, analysis.Result.AverageIntensity)
	assert.Equal(t, 6, analysis.Result.PixelsProcessed)
	require.NotNil(t, analysis.Info)
	assert.Equal(t, 3, analysis.Info.Width)
	assert.Equal(t, 2, analysis.Info.Height)
}

func TestAnalyzer_PixelBudget(t *testing.T) {
	a := NewAnalyzer(15, tracing.NoopTracer())

	_, err := a.Analyze(context.Background(), solidPNG(t, 4, 4, color.RGBA{A: 255}))
	var reqErr *requestError
	require.True(t, errors.As(err, &reqErr), "got %v", err)
	assert.Equal(t, CodePayloadTooLarge, reqErr.code)

	_, err = a.Analyze(context.Background(), solidPNG(t, 5, 3, color.RGBA{A: 255}))
	assert.NoError(t, err)
}

func TestAnalyzer_PropagatesCoreErrors(t *testing.T) {
	a := NewAnalyzer(100, tracing.NoopTracer())

	_, err := a.Analyze(context.Background(), nil)
	assert.True(t, errors.Is(err, imaging.ErrMissingInput))

	_, err = a.Analyze(context.Background(), []byte("BM"))
	assert.True(t, errors.Is(err, imaging.ErrCorrupt))
}

func TestAnalyzer_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	a := NewAnalyzer(0, provider.Tracer("test"))
	_, err := a.Analyze(context.Background(), solidPNG(t, 2, 2, color.RGBA{A: 255}))
	require.NoError(t, err)

	var names []string
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.ElementsMatch(t, []string{
		"imaging.Probe",
		"imaging.Decode",
		"imaging.ComputeAverageIntensity",
		"imaging.Analyze",
	}, names)
}

func TestAnalyzer_UnreadableHeaderSkipsDecode(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	a := NewAnalyzer(0, provider.Tracer("test"))
	_, err := a.Analyze(context.Background(), []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F'})
	assert.True(t, errors.Is(err, imaging.ErrCorrupt), "got %v", err)

	var names []string
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.ElementsMatch(t, []string{"imaging.Probe", "imaging.Analyze"}, names)
}
