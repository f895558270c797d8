package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spboyer/lesioneval/internal/projectconfig"
	"github.com/spboyer/lesioneval/internal/validation"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config]",
		Short: "Check a config file against the schema",
		Long: `Check a config file against the JSON schema and the cross-field rules:
square cost weights, unique estimator names and Monte-Carlo references.

Without an argument the file given by --config, or the one found upward
from the working directory, is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: validateCommandE,
	}
}

func validateCommandE(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		cfg, err := projectconfig.Load(wd)
		if err != nil {
			return err
		}
		if cfg.Dir == "" {
			return errors.New("no " + projectconfig.FileName + " found")
		}
		path = filepath.Join(cfg.Dir, projectconfig.FileName)
	}

	errs, err := validation.ValidateConfigFile(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(out, "  %s\n", e)
		}
		return fmt.Errorf("%s: %d problem(s)", path, len(errs))
	}
	fmt.Fprintf(out, "%s is valid\n", path)
	return nil
}
