package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spboyer/lesioneval/internal/publish"
	"github.com/spboyer/lesioneval/internal/reporting"
	"github.com/spf13/cobra"
)

var (
	publishContainer  string
	publishAccountURL string
	publishPrefix     string
	publishRunID      string
	publishEnvFiles   []string
)

// newBlobClient is replaced in tests.
var newBlobClient = func(opts publish.Options) (publish.BlobAPI, error) {
	client, err := publish.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newPublishCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <report-dir>",
		Short: "Upload a report directory to Azure Blob Storage",
		Long: `Upload every file of a report directory to an Azure Blob Storage container,
under <prefix>/<run id>/.

Credentials come from the connection string in the environment variable
named by publish.connection_string_env (AZURE_STORAGE_CONNECTION_STRING by
default), or from the account URL with the default Azure credential chain.
.env files are loaded first; variables already set win.`,
		Args: cobra.ExactArgs(1),
		RunE: publishCommandE,
	}

	cmd.Flags().StringVar(&publishContainer, "container", "", "Container name (default: publish.container from the config)")
	cmd.Flags().StringVar(&publishAccountURL, "account-url", "", "Storage account URL (default: publish.account_url from the config)")
	cmd.Flags().StringVar(&publishPrefix, "prefix", "", "Key prefix (default: publish.prefix from the config)")
	cmd.Flags().StringVar(&publishRunID, "run-id", "", "Run ID (default: run_id of report.json in the directory)")
	cmd.Flags().StringArrayVar(&publishEnvFiles, "env-file", []string{".env"}, "Environment files to load (can be repeated)")

	return cmd
}

// reportRunID reads the run ID of the report in dir, falling back to the
// directory name.
func reportRunID(dir string) string {
	report, err := reporting.ReadJSON(filepath.Join(dir, "report.json"))
	if err == nil && report.RunID != "" {
		return report.RunID
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Base(dir)
	}
	return filepath.Base(abs)
}

func publishCommandE(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("report directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := publish.LoadEnv(publishEnvFiles...); err != nil {
		return err
	}

	pc := cfg.Publish
	if publishContainer != "" {
		pc.Container = publishContainer
	}
	if publishAccountURL != "" {
		pc.AccountURL = publishAccountURL
	}
	if publishPrefix != "" {
		pc.Prefix = publishPrefix
	}
	if pc.Container == "" {
		return errors.New("no container: set publish.container or pass --container")
	}

	client, err := newBlobClient(publish.Options{
		Container:        pc.Container,
		AccountURL:       pc.AccountURL,
		ConnectionString: os.Getenv(pc.ConnectionStringEnv),
		Prefix:           pc.Prefix,
	})
	if err != nil {
		return err
	}

	runID := publishRunID
	if runID == "" {
		runID = reportRunID(dir)
	}
	keys, err := publish.NewUploader(client, pc.Container, pc.Prefix).Upload(cmd.Context(), dir, runID)
	if err != nil {
		return fmt.Errorf("publishing %s: %w", dir, err)
	}

	out := cmd.OutOrStdout()
	for _, k := range keys {
		fmt.Fprintf(out, "  %s\n", k)
	}
	fmt.Fprintf(out, "Published %d files to container %s\n", len(keys), pc.Container)
	return nil
}
