package main

import (
	"encoding/json"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-intensity/internal/config"
	"github.com/ironsheep/image-intensity/internal/imaging"
	"github.com/ironsheep/image-intensity/internal/logging"
)

// inspectReport is what inspect prints for one file.
type inspectReport struct {
	File             string                `json:"file" yaml:"file"`
	Image            *imaging.ImageInfo    `json:"image" yaml:"image"`
	AverageIntensity float64               `json:"average_intensity" yaml:"average_intensity"`
	PixelsProcessed  int                   `json:"pixels_processed" yaml:"pixels_processed"`
	Color            *imaging.ColorSummary `json:"color" yaml:"color"`
}

func newInspectCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Analyze a local image file",
		Long: `Decode a local image and print its format, dimensions, average
intensity and mean color, using the same pipeline as the HTTP API.`,
		Example: `  image-intensity inspect photo.jpg
  image-intensity inspect scan.tiff --output yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), opts.configFile)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Log)

			report, err := inspectFile(args[0])
			if err != nil {
				logger.Debug().Err(err).Str("file", args[0]).Msg("Inspect failed")
				return err
			}
			return writeReport(cmd.OutOrStdout(), report, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func inspectFile(path string) (*inspectReport, error) {
	data, err := imaging.LoadFile(path)
	if err != nil {
		return nil, err
	}

	info, err := imaging.Probe(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	res := imaging.ComputeAverageIntensity(img)

	return &inspectReport{
		File:             path,
		Image:            info,
		AverageIntensity: res.Rounded(),
		PixelsProcessed:  res.PixelsProcessed,
		Color:            imaging.SummarizeColor(img),
	}, nil
}

func writeReport(w io.Writer, report *inspectReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml", "yml":
		data, err := yaml.Marshal(report)
		if err != nil {
			return errors.Wrap(err, "failed to encode report")
		}
		_, err = w.Write(data)
		return err
	default:
		return errors.Errorf("unknown output format %q (want json or yaml)", format)
	}
}
