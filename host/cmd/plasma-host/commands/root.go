package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"plasmacut/standalone"
	"plasmacut/standalone/config"
)

var (
	configPath string
	backend    string
	logLevel   string

	machine *config.MachineConfig
	logger  *slog.Logger
)

func Execute() error {
	return newRoot().Execute()
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "plasma-host",
		Short:         "Drive a two-axis plasma cutter from SVG paths",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			standalone.SetLogger(logger)

			machine, err = loadMachine(configPath, backend)
			return err
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "machine config JSON (default: built-in plasma config)")
	root.PersistentFlags().StringVar(&backend, "backend", "", "output backend override: memory, expander or bridge")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(runCmd(), checkCmd(), serveCmd(), versionCmd())
	return root
}

func loadMachine(path, backend string) (*config.MachineConfig, error) {
	var cfg *config.MachineConfig
	if path == "" {
		cfg = config.DefaultPlasmaConfig()
	} else {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if backend != "" {
		cfg.Output.Backend = backend
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}

func openSVG(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open drawing: %w", err)
	}
	return f, nil
}
