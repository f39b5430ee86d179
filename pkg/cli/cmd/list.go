package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/repovault/repovault/pkg/backup"
)

var (
	listOutputFormat string
	listAll          bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups stored in the bucket",
	Long: `List backup archives found under the configured prefix. By default
only the most recent backup of each repository is shown; --all lists
every stored generation.`,
	Example: `  # Latest backup per repository
  repovault list

  # Every stored backup, as JSON
  repovault list --all -o json`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "table", "output format (table, json, yaml)")
	listCmd.Flags().BoolVar(&listAll, "all", false, "list every backup, not just the latest per repository")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateStorage(); err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := newStorageClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to bucket %s: %w", cfg.Storage.Bucket, err)
	}

	records, err := backup.LoadCatalog(ctx, store, cfg.Storage.Prefix)
	if err != nil {
		return err
	}
	if !listAll {
		records = backup.LatestPerRepository(records)
	}

	switch listOutputFormat {
	case "table":
		return NewCatalogTable().Render(records)
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(records)
	default:
		return fmt.Errorf("unsupported output format: %s", listOutputFormat)
	}
}
