package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spboyer/lesioneval/internal/projectconfig"
	"github.com/spboyer/lesioneval/internal/validation"
	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lesioneval",
		Short: "lesioneval - uncertainty evaluation for skin-lesion classifiers",
		Long: `lesioneval evaluates a skin-lesion classifier offline from persisted
prediction tables.

It computes calibration data, risk-coverage and cost-coverage curves, AUC
summaries, confusion matrices and Monte-Carlo dropout trajectories, and
checks them against configured gates.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: "+projectconfig.FileName+" found upward from the working directory)")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newCalibrateCommand())
	cmd.AddCommand(newCoverageCommand())
	cmd.AddCommand(newMonteCarloCommand())
	cmd.AddCommand(newConfusionCommand())
	cmd.AddCommand(newCostCommand())
	cmd.AddCommand(newCompareCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newCacheCommand())
	cmd.AddCommand(newPublishCommand())

	return cmd
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCommand()
	return rootCmd.ExecuteContext(ctx)
}

// configFile returns the config file in use, or "" when running on defaults.
func configFile(cfg *projectconfig.ProjectConfig) string {
	if configPath != "" {
		return configPath
	}
	if cfg.Dir == "" {
		return ""
	}
	return filepath.Join(cfg.Dir, projectconfig.FileName)
}

// loadConfig loads --config, or searches upward from the working
// directory, and rejects files that fail schema validation.
func loadConfig() (*projectconfig.ProjectConfig, error) {
	var (
		cfg *projectconfig.ProjectConfig
		err error
	)
	if configPath != "" {
		cfg, err = projectconfig.LoadFile(configPath)
	} else {
		wd, werr := os.Getwd()
		if werr != nil {
			return nil, fmt.Errorf("getting working directory: %w", werr)
		}
		cfg, err = projectconfig.Load(wd)
	}
	if err != nil {
		return nil, err
	}

	if path := configFile(cfg); path != "" {
		errs, err := validation.ValidateConfigFile(path)
		if err != nil {
			return nil, err
		}
		if len(errs) > 0 {
			return nil, fmt.Errorf("invalid config %s:\n  %s", path, strings.Join(errs, "\n  "))
		}
		slog.Debug("config loaded", "path", path)
	}
	return cfg, nil
}
