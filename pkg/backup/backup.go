// Package backup implements the repository archive pipeline: batch backup
// runs, the catalog of stored archives and the selection syntax used by the
// interactive restore flow.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/repovault/repovault/pkg/github"
	"github.com/repovault/repovault/pkg/log"
	"github.com/repovault/repovault/pkg/storage/s3"
)

// TimestampFormat is the generation timestamp embedded in storage keys.
// One backup run produces one generation shared by every repository in it.
const TimestampFormat = "2006-01-02-1504"

// RepositorySource lists repositories and downloads branch snapshot
// archives. *github.Client implements it.
type RepositorySource interface {
	ListRepositories(ctx context.Context) ([]github.Repository, error)
	DownloadArchive(ctx context.Context, repo github.Repository, dst io.Writer) (int64, error)
}

// ObjectStore is the slice of object storage the backup pipeline needs.
// *s3.Client implements it.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, metadata map[string]string) error
	List(ctx context.Context, prefix string) ([]s3.Object, error)
	Download(ctx context.Context, key string, dst io.Writer) (int64, error)
}

// ItemFailure records one repository whose backup failed.
type ItemFailure struct {
	Repository string
	Err        error
}

// Report summarizes a backup run. A run with partial failures is still a
// completed run: every repository was attempted.
type Report struct {
	Generation string
	RunID      string
	Attempted  int
	Succeeded  int
	Failed     int
	Failures   []ItemFailure
}

// Runner executes backup runs against an object store.
type Runner struct {
	source RepositorySource
	store  ObjectStore
	prefix string
	logger log.Logger
	now    func() time.Time
}

// NewRunner creates a backup runner writing archives under prefix.
func NewRunner(source RepositorySource, store ObjectStore, prefix string, logger log.Logger) *Runner {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Runner{
		source: source,
		store:  store,
		prefix: prefix,
		logger: logger.WithComponent("backup"),
		now:    time.Now,
	}
}

// BackupAll archives every repository visible to the installation,
// sequentially and in listing order. A single repository's failure is
// logged and counted but does not abort the batch; only the repository
// listing itself is fatal. Zero repositories is a valid no-op run.
func (r *Runner) BackupAll(ctx context.Context) (*Report, error) {
	repos, err := r.source.ListRepositories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	report := &Report{
		Generation: r.now().UTC().Format(TimestampFormat),
		RunID:      uuid.NewString(),
	}

	if len(repos) == 0 {
		r.logger.Warn("no repositories visible to this installation, nothing to back up")
		return report, nil
	}

	r.logger.Info("starting backup run",
		log.Str("generation", report.Generation),
		log.Str("run_id", report.RunID),
		log.Int("repositories", len(repos)))

	for _, repo := range repos {
		report.Attempted++

		size, err := r.backupOne(ctx, repo, report.Generation, report.RunID)
		if err != nil {
			report.Failed++
			report.Failures = append(report.Failures, ItemFailure{Repository: repo.FullName, Err: err})
			r.logger.Error("repository backup failed",
				log.Str("repository", repo.FullName),
				log.Err(err))
			continue
		}

		report.Succeeded++
		r.logger.Info("repository backed up",
			log.Str("repository", repo.FullName),
			log.Str("branch", repo.DefaultBranch),
			log.Int64("bytes", size))
	}

	return report, nil
}

// backupOne downloads one repository's default branch archive to a scratch
// file and uploads it under the generation key. The scratch file is removed
// on every path.
func (r *Runner) backupOne(ctx context.Context, repo github.Repository, generation, runID string) (int64, error) {
	scratch, err := os.CreateTemp("", "repovault-backup-*.zip")
	if err != nil {
		return 0, fmt.Errorf("creating scratch file: %w", err)
	}
	defer func() {
		scratch.Close()
		os.Remove(scratch.Name())
	}()

	size, err := r.source.DownloadArchive(ctx, repo, scratch)
	if err != nil {
		return 0, err
	}

	if _, err := scratch.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewinding scratch file: %w", err)
	}

	key := ArchiveKey(r.prefix, generation, repo.Name)
	metadata := map[string]string{
		"timestamp":  generation,
		"repository": repo.Name,
		"branch":     repo.DefaultBranch,
		"run-id":     runID,
	}

	if err := r.store.Upload(ctx, key, scratch, metadata); err != nil {
		return 0, err
	}
	return size, nil
}

// ArchiveKey builds the storage key for one repository archive within a
// generation.
func ArchiveKey(prefix, generation, repoName string) string {
	return fmt.Sprintf("%s/%s/%s.zip", prefix, generation, repoName)
}
