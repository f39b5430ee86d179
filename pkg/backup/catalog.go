package backup

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"
)

// Record is one recognized backup archive in storage.
type Record struct {
	Repository    string    `json:"repository" yaml:"repository"`
	Timestamp     string    `json:"timestamp" yaml:"timestamp"`
	TimestampDate time.Time `json:"timestamp_date" yaml:"timestamp_date"`
	StorageKey    string    `json:"storage_key" yaml:"storage_key"`
	SizeBytes     int64     `json:"size_bytes" yaml:"size_bytes"`
	LastModified  time.Time `json:"last_modified" yaml:"last_modified"`
}

// CatalogError indicates the storage listing itself failed. Zero recognized
// archives is not an error.
type CatalogError struct {
	Err error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("loading backup catalog: %v", e.Err)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// LoadCatalog lists the objects under prefix and parses them into backup
// records. Keys that do not match the expected
// "<prefix>/<timestamp>/<repository>.zip" layout are not backups and are
// skipped. A timestamp segment that fails to parse falls back to the
// object's last-modified time.
//
// Records sort newest generation first, repository ascending within a
// generation.
func LoadCatalog(ctx context.Context, store ObjectStore, prefix string) ([]Record, error) {
	objects, err := store.List(ctx, prefix+"/")
	if err != nil {
		return nil, &CatalogError{Err: err}
	}

	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `/([^/]+)/([^/]+)\.zip$`)

	var records []Record
	for _, obj := range objects {
		m := pattern.FindStringSubmatch(obj.Key)
		if m == nil {
			continue
		}

		record := Record{
			Repository:   m[2],
			Timestamp:    m[1],
			StorageKey:   obj.Key,
			SizeBytes:    obj.Size,
			LastModified: obj.LastModified,
		}

		if ts, err := time.ParseInLocation(TimestampFormat, m[1], time.UTC); err == nil {
			record.TimestampDate = ts
		} else {
			record.TimestampDate = obj.LastModified
		}

		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].TimestampDate.Equal(records[j].TimestampDate) {
			return records[i].TimestampDate.After(records[j].TimestampDate)
		}
		return records[i].Repository < records[j].Repository
	})

	return records, nil
}

// LatestPerRepository reduces a catalog to the most recent record of each
// repository, sorted by repository name. This is the list the restore flow
// displays and indexes into.
func LatestPerRepository(records []Record) []Record {
	latest := make(map[string]Record)
	for _, r := range records {
		cur, ok := latest[r.Repository]
		if !ok || r.TimestampDate.After(cur.TimestampDate) {
			latest[r.Repository] = r
		}
	}

	out := make([]Record, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Repository < out[j].Repository
	})
	return out
}
