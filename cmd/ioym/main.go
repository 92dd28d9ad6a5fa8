package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Infinidat/loggest/internal/decoder"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		stdoutFlag bool
		utcFlag    bool
	)

	cmd := &cobra.Command{
		Use:           "ioym FILE...",
		Short:         "Extract and decode loggest log files",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := decoder.RenderLocation(utcFlag)
			if stdoutFlag {
				if len(args) > 1 {
					return errors.New("outputting to standard output is not supported with multiple inputs")
				}
				return decoder.DecodeTo(args[0], cmd.OutOrStdout(), loc)
			}
			return decoder.DecodeFiles(args, loc)
		},
	}

	cmd.Flags().BoolVarP(&stdoutFlag, "stdout", "c", false, "Output to standard output (only one file allowed)")
	cmd.Flags().BoolVarP(&utcFlag, "utc", "u", false, "Use UTC instead of the local timezone")

	return cmd
}
