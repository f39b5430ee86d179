package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/repovault/repovault/pkg/backup"
	"github.com/repovault/repovault/pkg/cli/format"
	"github.com/repovault/repovault/pkg/log"
	"github.com/repovault/repovault/pkg/restore"
)

const defaultRestoreDir = "restored-backups"

var (
	restoreDir    string
	restoreSelect string
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore backups from the bucket to a local directory",
	Long: `Restore repository backups from the bucket. The latest backup of
each repository is listed; pick entries by number ("1,3-5"), or "all".
Each selected archive is extracted to "<dir>/<repository>-<timestamp>/",
replacing that directory if it already exists.

Without flags the command runs interactively. --select and --dir
together skip all prompts, for scripted use.`,
	Example: `  # Interactive restore
  repovault restore

  # Restore everything into ./snapshots without prompting
  repovault restore --select all --dir ./snapshots`,
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().StringVar(&restoreDir, "dir", "", "destination directory (skips the destination prompt)")
	restoreCmd.Flags().StringVar(&restoreSelect, "select", "", `backups to restore, e.g. "1,3-5" or "all" (skips the selection prompt)`)
}

func runRestore(cmd *cobra.Command, args []string) error {
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
	latest := backup.LatestPerRepository(records)
	if len(latest) == 0 {
		fmt.Println(format.Warning("No backups found under %s/%s", cfg.Storage.Bucket, cfg.Storage.Prefix))
		return nil
	}

	interactive := restoreSelect == "" || restoreDir == ""
	if interactive && !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("no terminal attached; use --select and --dir for non-interactive restores")
	}

	fmt.Println(format.Highlight("Available backups (latest per repository):"))
	table := NewCatalogTable()
	table.Numbered = true
	if err := table.Render(latest); err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	selected, quit, err := selectRecords(reader, latest)
	if err != nil || quit {
		return err
	}

	destDir, err := selectDestination(reader)
	if err != nil {
		return err
	}

	if interactive {
		ok, err := confirm(reader, fmt.Sprintf("Restore %d backup(s) to %s? [y/N]: ", len(selected), destDir))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Restore cancelled")
			return nil
		}
	}

	executor := restore.NewExecutor(store, log.GetDefaultLogger())
	report, err := executor.Restore(ctx, selected, destDir)
	if err != nil {
		return err
	}

	if err := RenderRestoreResults(selected, report); err != nil {
		return err
	}
	printBatchSummary("Restore", report.Attempted, report.Succeeded, report.Failed)
	return nil
}

// selectRecords resolves the user's selection against the displayed list.
// The --select flag is parsed once and invalid input is fatal; interactive
// input re-prompts until it parses. quit reports that the user backed out.
func selectRecords(reader *bufio.Reader, latest []backup.Record) (selected []backup.Record, quit bool, err error) {
	if restoreSelect != "" {
		indices, err := parseSelectionInput(restoreSelect, len(latest))
		if err != nil {
			return nil, false, err
		}
		return recordsAt(latest, indices), false, nil
	}

	for {
		answer, err := promptLine(reader, `Select backups to restore (e.g. "1,3-5" or "all", "quit" to exit): `)
		if err != nil {
			return nil, false, err
		}

		switch strings.ToLower(answer) {
		case "quit", "exit":
			fmt.Println("Restore cancelled")
			return nil, true, nil
		case "":
			continue
		}

		indices, err := parseSelectionInput(answer, len(latest))
		if err != nil {
			fmt.Println(format.Error("%v", err))
			continue
		}
		return recordsAt(latest, indices), false, nil
	}
}

// parseSelectionInput handles the "all" literal, then defers to the
// selection grammar.
func parseSelectionInput(input string, max int) ([]int, error) {
	if strings.EqualFold(strings.TrimSpace(input), "all") {
		indices := make([]int, max)
		for i := range indices {
			indices[i] = i + 1
		}
		return indices, nil
	}
	return backup.ParseSelection(input, max)
}

// recordsAt maps 1-based indices back to their records.
func recordsAt(records []backup.Record, indices []int) []backup.Record {
	out := make([]backup.Record, 0, len(indices))
	for _, idx := range indices {
		out = append(out, records[idx-1])
	}
	return out
}

// selectDestination resolves the restore target directory, prompting unless
// --dir was given.
func selectDestination(reader *bufio.Reader) (string, error) {
	if restoreDir != "" {
		return restoreDir, nil
	}

	fmt.Println("Where should the backups be restored?")
	fmt.Println("  1) Current directory")
	fmt.Printf("  2) ./%s\n", defaultRestoreDir)
	fmt.Println("  3) Custom path")

	for {
		answer, err := promptLine(reader, "Choose [1-3]: ")
		if err != nil {
			return "", err
		}

		switch answer {
		case "1":
			return ".", nil
		case "2":
			return defaultRestoreDir, nil
		case "3":
			path, err := promptLine(reader, "Path: ")
			if err != nil {
				return "", err
			}
			if path == "" {
				fmt.Println(format.Error("Path cannot be empty"))
				continue
			}
			return path, nil
		default:
			fmt.Println(format.Error("Enter 1, 2 or 3"))
		}
	}
}
