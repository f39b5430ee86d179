// Package restore downloads selected backup archives and extracts them to a
// local destination.
package restore

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/repovault/repovault/pkg/backup"
	"github.com/repovault/repovault/pkg/log"
)

// ItemFailure records one archive whose restore failed.
type ItemFailure struct {
	Repository string
	Err        error
}

// Report summarizes a restore run.
type Report struct {
	Destination string
	Attempted   int
	Succeeded   int
	Failed      int
	Failures    []ItemFailure
}

// Executor restores archives from an object store.
type Executor struct {
	store  backup.ObjectStore
	logger log.Logger
}

// NewExecutor creates a restore executor reading from store.
func NewExecutor(store backup.ObjectStore, logger log.Logger) *Executor {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Executor{
		store:  store,
		logger: logger.WithComponent("restore"),
	}
}

// Restore extracts each selected record under destDir, sequentially. Each
// record lands in "<destDir>/<repository>-<timestamp>/"; an existing
// directory at that path is replaced entirely. One record's failure is
// logged and counted but does not stop the remaining records.
func (e *Executor) Restore(ctx context.Context, records []backup.Record, destDir string) (*Report, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("creating destination %s: %w", destDir, err)
	}

	report := &Report{Destination: destDir}

	for _, record := range records {
		report.Attempted++

		target, err := e.restoreOne(ctx, record, destDir)
		if err != nil {
			report.Failed++
			report.Failures = append(report.Failures, ItemFailure{Repository: record.Repository, Err: err})
			e.logger.Error("archive restore failed",
				log.Str("repository", record.Repository),
				log.Str("key", record.StorageKey),
				log.Err(err))
			continue
		}

		report.Succeeded++
		e.logger.Info("archive restored",
			log.Str("repository", record.Repository),
			log.Str("path", target))
	}

	return report, nil
}

// restoreOne downloads the record's archive to a scratch file and extracts
// it into its target directory. The scratch file is removed on every path.
func (e *Executor) restoreOne(ctx context.Context, record backup.Record, destDir string) (string, error) {
	scratch, err := os.CreateTemp("", "repovault-restore-*.zip")
	if err != nil {
		return "", fmt.Errorf("creating scratch file: %w", err)
	}
	defer func() {
		scratch.Close()
		os.Remove(scratch.Name())
	}()

	if _, err := e.store.Download(ctx, record.StorageKey, scratch); err != nil {
		return "", err
	}
	if err := scratch.Close(); err != nil {
		return "", fmt.Errorf("flushing scratch file: %w", err)
	}

	target := filepath.Join(destDir, fmt.Sprintf("%s-%s", record.Repository, record.Timestamp))

	// Overwrite semantics: a previous restore at the same path is replaced,
	// not merged into.
	if err := os.RemoveAll(target); err != nil {
		return "", fmt.Errorf("clearing %s: %w", target, err)
	}

	if err := extractZip(scratch.Name(), target); err != nil {
		return "", err
	}
	return target, nil
}

// extractZip unpacks the archive at zipPath into dest, preserving directory
// structure and file modes. Entries that would escape dest are skipped.
func extractZip(zipPath, dest string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer reader.Close()

	dest = filepath.Clean(dest)
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}

	for _, file := range reader.File {
		destPath := filepath.Join(dest, file.Name)

		// Guard against zip slip: reject entries escaping the target.
		if destPath != dest && !strings.HasPrefix(destPath, dest+string(os.PathSeparator)) {
			continue
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, file.Mode()); err != nil {
				return fmt.Errorf("creating directory %s: %w", file.Name, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return fmt.Errorf("creating parent of %s: %w", file.Name, err)
		}
		if err := extractFile(file, destPath); err != nil {
			return fmt.Errorf("extracting %s: %w", file.Name, err)
		}
	}

	return nil
}

func extractFile(file *zip.File, destPath string) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := file.Mode()
	if mode == 0 {
		mode = 0644
	}

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return err
	}
	return nil
}
