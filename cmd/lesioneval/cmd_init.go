package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spboyer/lesioneval/internal/projectconfig"
	"github.com/spboyer/lesioneval/internal/validation"
	"github.com/spboyer/lesioneval/internal/wizard"
)

func newInitCommand() *cobra.Command {
	var (
		interactive bool
		force       bool
		name        string
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a " + projectconfig.FileName + " config file",
		Long: `Create a ` + projectconfig.FileName + ` config file for an evaluation project.

Without --interactive the file is prefilled for the ISIC 2019 labels with a
softmax estimator reading results/softmax.csv. Use --interactive to run a
guided wizard instead.

If no directory is specified, the current directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initCommandE(cmd, args, interactive, force, name)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Run the guided setup wizard")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.Flags().StringVar(&name, "name", "", "Project name (default: the directory name)")

	return cmd
}

func initCommandE(cmd *cobra.Command, args []string, interactive, force bool, name string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, projectconfig.FileName)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	if name == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolving path %q: %w", dir, err)
		}
		name = filepath.Base(abs)
	}

	answers := wizard.Defaults(name)
	if interactive {
		var err error
		answers, err = wizard.Run(cmd.InOrStdin(), cmd.OutOrStdout(), answers)
		if err != nil {
			return fmt.Errorf("wizard failed: %w", err)
		}
	}

	data, err := wizard.Render(answers)
	if err != nil {
		return err
	}
	if errs := validation.ValidateConfigBytes(data); len(errs) > 0 {
		return fmt.Errorf("generated config is invalid:\n  %s", strings.Join(errs, "\n  "))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", path)
	fmt.Fprintln(out, "Next: put your prediction tables in place and run `lesioneval run`.")
	return nil
}
