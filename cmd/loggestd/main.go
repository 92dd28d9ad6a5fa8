package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Infinidat/loggest/internal/config"
	"github.com/Infinidat/loggest/internal/daemon"
	"github.com/Infinidat/loggest/internal/logging"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configFlag    string
		directoryFlag string
		socketFlag    string
		listenFlag    string
		logLevelFlag  string
		logFormatFlag string
		sampleFlag    bool
	)

	cmd := &cobra.Command{
		Use:           "loggestd",
		Short:         "loggest log-writing daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sampleFlag {
				fmt.Fprint(cmd.OutOrStdout(), config.SampleConfig())
				return nil
			}

			cfg, _, _, err := config.Load(configFlag)
			if err != nil {
				return err
			}
			if err := applyFlagOverrides(cfg, cmd, directoryFlag, socketFlag, listenFlag, logLevelFlag, logFormatFlag); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return err
			}

			d, err := daemon.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return d.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVarP(&directoryFlag, "directory", "d", "", "Output directory for log files")
	cmd.Flags().StringVar(&socketFlag, "socket", "", "Unix socket to listen on (default /run/loggestd.sock, env "+config.SocketEnv+")")
	cmd.Flags().StringVar(&listenFlag, "listen", "", "Additional TCP address to listen on")
	cmd.Flags().StringVar(&logLevelFlag, "log-level", "", "Daemon log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormatFlag, "log-format", "", "Daemon log format (console, json, auto)")
	cmd.Flags().BoolVar(&sampleFlag, "sample-config", false, "Print the annotated sample configuration and exit")

	return cmd
}

// applyFlagOverrides lets explicitly set flags win over file values.
func applyFlagOverrides(cfg *config.Config, cmd *cobra.Command, directory, socket, listen, logLevel, logFormat string) error {
	if cmd.Flags().Changed("directory") {
		expanded, err := config.ExpandPath(directory)
		if err != nil {
			return err
		}
		cfg.Paths.Directory = expanded
	}
	if cmd.Flags().Changed("socket") {
		expanded, err := config.ExpandPath(socket)
		if err != nil {
			return err
		}
		cfg.Paths.Socket = expanded
	}
	if cmd.Flags().Changed("listen") {
		cfg.Paths.Listen = listen
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	return nil
}
