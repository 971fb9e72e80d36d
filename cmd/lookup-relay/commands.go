package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/heartmarshall/yomipv-lookup/internal/app"
	"github.com/heartmarshall/yomipv-lookup/internal/config"
	"github.com/heartmarshall/yomipv-lookup/internal/domain"
)

type options struct {
	configPath string
	overrides  config.Overrides
}

func newRootCmd(out io.Writer) *cobra.Command {
	var opts options

	run := func(cmd *cobra.Command, _ []string) error {
		return runRelay(cmd.Context(), opts)
	}

	root := &cobra.Command{
		Use:          "lookup-relay",
		Short:        "Relay dictionary lookups between mpv and the popup overlay",
		Args:         cobra.NoArgs,
		RunE:         run,
		Version:      app.BuildVersion(),
		SilenceUsage: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (sets CONFIG_PATH, default ./config.yaml)")
	flags.IntVar(&opts.overrides.ParentPID, "parent-pid", 0, "exit when this process exits")
	flags.StringVar(&opts.overrides.Pipe, "pipe", "", "mpv IPC socket path or named pipe")
	flags.IntVar(&opts.overrides.Port, "port", 0, "control listener port")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the relay (same as running without a command)",
			Args:  cobra.NoArgs,
			RunE:  run,
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration as YAML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return fmt.Errorf("encode config: %w", err)
				}
				return enc.Close()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), app.BuildVersion())
			},
		},
	)

	return root
}

func loadConfig(opts options) (*config.Config, error) {
	if opts.configPath != "" {
		if err := os.Setenv("CONFIG_PATH", opts.configPath); err != nil {
			return nil, fmt.Errorf("set CONFIG_PATH: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Apply(opts.overrides); err != nil {
		return nil, fmt.Errorf("config: flags: %w", err)
	}
	return cfg, nil
}

func runRelay(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, closer := app.NewLogger(cfg.Log)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, logger); err != nil {
		if errors.Is(err, domain.ErrAlreadyRunning) {
			logger.Error("relay already running", slog.String("addr", cfg.Server.Addr()))
		} else {
			logger.Error("relay failed", slog.String("error", err.Error()))
		}
		return err
	}
	return nil
}
