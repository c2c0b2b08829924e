package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/dogeterm/internal/infrastructure/config"
	"github.com/GriffinCanCode/dogeterm/internal/terminal/plugins"
)

func newPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List available plugins and the configured chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.LoadOrDefault()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "available: %s\n", strings.Join(plugins.Names(), ", "))
			fmt.Fprintf(out, "chain:     %s\n", strings.Join(cfg.Terminal.Plugins, ", "))
			return nil
		},
	}
}
