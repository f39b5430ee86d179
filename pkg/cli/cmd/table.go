package cmd

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/repovault/repovault/pkg/backup"
	"github.com/repovault/repovault/pkg/cli/format"
	"github.com/repovault/repovault/pkg/restore"
)

// CatalogTable renders backup catalog records with pterm.
type CatalogTable struct {
	// Numbered prefixes each row with its 1-based index, matching the
	// indices the restore selection prompt accepts.
	Numbered bool

	tableRenderer *pterm.TablePrinter
}

// NewCatalogTable creates a catalog table with the default header style.
func NewCatalogTable() *CatalogTable {
	table := pterm.DefaultTable.WithHasHeader(true)

	headerStyle := pterm.NewStyle(pterm.FgCyan, pterm.Bold)
	table = table.WithHeaderStyle(headerStyle)

	return &CatalogTable{tableRenderer: table}
}

// Render prints the records as a table. An empty catalog prints a plain
// message instead of an empty table.
func (t *CatalogTable) Render(records []backup.Record) error {
	if len(records) == 0 {
		fmt.Println("No backups found")
		return nil
	}

	headers := []string{"REPOSITORY", "TIMESTAMP", "SIZE", "KEY"}
	if t.Numbered {
		headers = append([]string{"#"}, headers...)
	}

	rows := [][]string{headers}
	for i, record := range records {
		row := []string{
			record.Repository,
			record.Timestamp,
			format.ByteSize(record.SizeBytes),
			record.StorageKey,
		}
		if t.Numbered {
			row = append([]string{fmt.Sprintf("%d", i+1)}, row...)
		}
		rows = append(rows, row)
	}

	return t.tableRenderer.WithData(rows).Render()
}

// RenderRestoreResults prints the per-archive outcome of a restore run.
func RenderRestoreResults(records []backup.Record, report *restore.Report) error {
	failed := make(map[string]error, len(report.Failures))
	for _, f := range report.Failures {
		failed[f.Repository] = f.Err
	}

	rows := [][]string{{"REPOSITORY", "TIMESTAMP", "STATUS", "DETAIL"}}
	for _, record := range records {
		detail := ""
		err, ok := failed[record.Repository]
		if ok {
			detail = err.Error()
		}
		rows = append(rows, []string{
			record.Repository,
			record.Timestamp,
			format.StatusLabel(!ok),
			detail,
		})
	}

	table := pterm.DefaultTable.WithHasHeader(true).
		WithHeaderStyle(pterm.NewStyle(pterm.FgCyan, pterm.Bold))
	return table.WithData(rows).Render()
}
