package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "image-intensity %s\n", opts.build.Version)
			fmt.Fprintf(out, "  Build time: %s\n", opts.build.BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", opts.build.GitCommit)
		},
	}
}
