package restore

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repovault/repovault/pkg/backup"
	"github.com/repovault/repovault/pkg/log"
	"github.com/repovault/repovault/pkg/storage/s3"
)

type fakeStore struct {
	objects map[string][]byte
}

func (f *fakeStore) Upload(ctx context.Context, key string, body io.Reader, metadata map[string]string) error {
	return fmt.Errorf("not implemented")
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]s3.Object, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeStore) Download(ctx context.Context, key string, dst io.Writer) (int64, error) {
	data, ok := f.objects[key]
	if !ok {
		return 0, fmt.Errorf("no such key %q", key)
	}
	n, err := dst.Write(data)
	return int64(n), err
}

// buildZip produces an archive with the given name -> content entries.
// Names ending in "/" become directories.
func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		if len(name) > 0 && name[len(name)-1] == '/' {
			_, err := w.Create(name)
			require.NoError(t, err)
			continue
		}
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func quietLogger() log.Logger {
	return log.NewLogger(
		log.WithLevel(log.ErrorLevel),
		log.WithOutput(log.NewConsoleOutput(log.WithCustomWriter(io.Discard), log.WithCustomErrorWriter(io.Discard))),
	)
}

func record(repo, ts string) backup.Record {
	return backup.Record{
		Repository: repo,
		Timestamp:  ts,
		StorageKey: fmt.Sprintf("backups/%s/%s.zip", ts, repo),
	}
}

func TestRestoreExtractsArchive(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"backups/2026-03-14-0930/api.zip": buildZip(t, map[string]string{
			"api-main/":          "",
			"api-main/README.md": "hello",
			"api-main/src/a.go":  "package a",
		}),
	}}
	dest := t.TempDir()

	report, err := NewExecutor(store, quietLogger()).Restore(context.Background(), []backup.Record{record("api", "2026-03-14-0930")}, dest)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, dest, report.Destination)

	target := filepath.Join(dest, "api-2026-03-14-0930")
	data, err := os.ReadFile(filepath.Join(target, "api-main", "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	data, err = os.ReadFile(filepath.Join(target, "api-main", "src", "a.go"))
	require.NoError(t, err)
	assert.Equal(t, "package a", string(data))
}

func TestRestoreOverwritesStaleTarget(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"backups/2026-03-14-0930/api.zip": buildZip(t, map[string]string{
			"api-main/fresh.txt": "fresh",
		}),
	}}
	dest := t.TempDir()

	// Simulate a previous restore with content the new archive lacks.
	target := filepath.Join(dest, "api-2026-03-14-0930")
	require.NoError(t, os.MkdirAll(target, 0755))
	stale := filepath.Join(target, "stale.txt")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	report, err := NewExecutor(store, quietLogger()).Restore(context.Background(), []backup.Record{record("api", "2026-03-14-0930")}, dest)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	// Only the freshly extracted content survives.
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(filepath.Join(target, "api-main", "fresh.txt"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestRestoreIsolatesItemFailures(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"backups/2026-03-14-0930/cli.zip": buildZip(t, map[string]string{
			"cli-main/main.go": "package main",
		}),
	}}
	dest := t.TempDir()

	records := []backup.Record{
		record("api", "2026-03-14-0930"), // missing from storage
		record("cli", "2026-03-14-0930"),
	}

	report, err := NewExecutor(store, quietLogger()).Restore(context.Background(), records, dest)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "api", report.Failures[0].Repository)

	// The later record still restored.
	_, err = os.Stat(filepath.Join(dest, "cli-2026-03-14-0930", "cli-main", "main.go"))
	assert.NoError(t, err)
}

func TestRestoreSkipsZipSlipEntries(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"backups/2026-03-14-0930/api.zip": buildZip(t, map[string]string{
			"../escape.txt": "evil",
			"safe.txt":      "ok",
		}),
	}}
	dest := t.TempDir()

	report, err := NewExecutor(store, quietLogger()).Restore(context.Background(), []backup.Record{record("api", "2026-03-14-0930")}, dest)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	_, err = os.Stat(filepath.Join(dest, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dest, "api-2026-03-14-0930", "safe.txt"))
	assert.NoError(t, err)
}

func TestRestoreCleansScratchFiles(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{}}

	_, err := NewExecutor(store, quietLogger()).Restore(context.Background(), []backup.Record{record("api", "2026-03-14-0930")}, t.TempDir())
	require.NoError(t, err)

	leftovers, err := filepath.Glob(filepath.Join(os.TempDir(), "repovault-restore-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestRestoreCorruptArchive(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"backups/2026-03-14-0930/api.zip": []byte("this is not a zip"),
	}}

	report, err := NewExecutor(store, quietLogger()).Restore(context.Background(), []backup.Record{record("api", "2026-03-14-0930")}, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Err.Error(), "opening archive")
}
