package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Fikrifrds/meeting-notes/internal/cli"
	"github.com/Fikrifrds/meeting-notes/internal/config"
	"github.com/Fikrifrds/meeting-notes/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string

	// Config must load before subcommands run, so the flag is parsed
	// in a persistent pre-run hook.
	deps := &cli.Dependencies{}
	root := cli.NewRootCmd(deps)
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		deps.Config = cfg
		deps.Logger = logging.Init(cfg.LogLevel, cfg.LogPretty)
		return nil
	}

	return root.Execute()
}
