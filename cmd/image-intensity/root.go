package main

import (
	"github.com/spf13/cobra"
)

// buildInfo identifies the binary.
type buildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configFile string
	build      buildInfo
}

func newRootCmd(build buildInfo) *cobra.Command {
	opts := &rootOptions{build: build}

	cmd := &cobra.Command{
		Use:   "image-intensity",
		Short: "Average pixel intensity of uploaded images",
		Long: `image-intensity computes the average intensity (0-255) of an image:
the mean over all pixels of (R+G+B)/3, with alpha ignored.

Run "image-intensity serve" to start the HTTP API, or
"image-intensity inspect <file>" to analyze a local file.

Configuration is read from flags, IMAGE_INTENSITY_* environment variables,
.env files, and image-intensity.{yaml,toml,json} in . or $HOME.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file (default is ./image-intensity.yaml or $HOME/image-intensity.yaml)")
	pf.String("log-level", "info", "log level: trace, debug, info, warn, error")
	pf.String("log-format", "auto", "log format: json, console, auto")
	pf.String("log-output", "stderr", "log destination: stderr, stdout, discard, or a file path")

	cmd.AddCommand(
		newServeCmd(opts),
		newInspectCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}
