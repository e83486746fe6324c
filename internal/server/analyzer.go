package server

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ironsheep/image-intensity/internal/imaging"
)

// Analysis is the outcome of one successful upload.
type Analysis struct {
	// Info is the header information the pixel budget was checked against.
	Info *imaging.ImageInfo

	// Format is the detected container format.
	Format imaging.Format

	// Result holds the full-precision intensity.
	Result imaging.Result
}

// Analyzer turns uploaded bytes into an Analysis.
type Analyzer interface {
	Analyze(ctx context.Context, data []byte) (*Analysis, error)
}

// imageAnalyzer enforces the pixel budget then runs the imaging core.
type imageAnalyzer struct {
	maxPixels int64
	tracer    trace.Tracer
}

// NewAnalyzer returns an Analyzer that rejects images declaring more than
// maxPixels pixels (0 disables the check) and records spans on tracer.
func NewAnalyzer(maxPixels int64, tracer trace.Tracer) Analyzer {
	return &imageAnalyzer{maxPixels: maxPixels, tracer: tracer}
}

func (a *imageAnalyzer) Analyze(ctx context.Context, data []byte) (*Analysis, error) {
	ctx, span := a.tracer.Start(ctx, "imaging.Analyze", trace.WithAttributes(
		attribute.Int("image.size_bytes", len(data)),
	))
	defer span.End()

	// An unreadable header is rejected here so no decode runs unchecked.
	info, err := a.probe(ctx, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, imaging.KindOf(err).String())
		return nil, err
	}
	if a.maxPixels > 0 && info.Pixels() > a.maxPixels {
		err := errPayloadTooLarge(
			fmt.Sprintf("image of %dx%d pixels exceeds the %d pixel limit", info.Width, info.Height, a.maxPixels),
			nil,
		)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	img, err := a.decode(ctx, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, imaging.KindOf(err).String())
		return nil, err
	}

	_, computeSpan := a.tracer.Start(ctx, "imaging.ComputeAverageIntensity")
	res := imaging.ComputeAverageIntensity(img)
	computeSpan.SetAttributes(
		attribute.Int("image.pixels", res.PixelsProcessed),
		attribute.Float64("image.average_intensity", res.AverageIntensity),
	)
	computeSpan.End()

	return &Analysis{
		Info:   info,
		Format: imaging.DetectFormat(data),
		Result: res,
	}, nil
}

func (a *imageAnalyzer) probe(ctx context.Context, data []byte) (*imaging.ImageInfo, error) {
	_, span := a.tracer.Start(ctx, "imaging.Probe")
	defer span.End()

	info, err := imaging.Probe(data)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("image.format", info.Format.String()),
		attribute.Int("image.width", info.Width),
		attribute.Int("image.height", info.Height),
	)
	return info, nil
}

func (a *imageAnalyzer) decode(ctx context.Context, data []byte) (*imaging.DecodedImage, error) {
	_, span := a.tracer.Start(ctx, "imaging.Decode")
	defer span.End()

	img, err := imaging.Decode(data)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return img, nil
}
