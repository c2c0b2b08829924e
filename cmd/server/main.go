package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/dogeterm/internal/infrastructure/config"
	"github.com/GriffinCanCode/dogeterm/internal/infrastructure/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		port  string
		host  string
		shell string
		dev   bool
	)

	cmd := &cobra.Command{
		Use:           "dogeterm",
		Short:         "PTY terminal session server",
		Long:          "dogeterm runs interactive shell sessions behind an HTTP and WebSocket API.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg, port, host, shell, dev)
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&port, "port", "", "server port (overrides PORT)")
	flags.StringVar(&host, "host", "", "bind address (overrides HOST)")
	flags.StringVar(&shell, "shell", "", "default shell for new sessions (overrides TERMINAL_SHELL)")
	flags.BoolVar(&dev, "dev", false, "development mode: console logs at debug level")

	cmd.AddCommand(newPluginsCmd())
	return cmd
}

// applyFlags overrides cfg with the flags the user actually set.
func applyFlags(cmd *cobra.Command, cfg *config.Config, port, host, shell string, dev bool) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	if flags.Changed("host") {
		cfg.Server.Host = host
	}
	if flags.Changed("shell") {
		cfg.Terminal.Shell = shell
	}
	if flags.Changed("dev") {
		cfg.Logging.Development = dev
	}
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	return srv.Run(ctx)
}
