package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"purchase-reconciler/core/storage"

	"github.com/minio/minio-go/v7"
)

// ErrReportNotFound is returned when no archived report has the requested run id.
var ErrReportNotFound = errors.New("run report not found")

// StorageArchive stores run reports as JSON objects at
// <prefix>/<yyyy>/<mm>/<dd>/<run_id>.json.
type StorageArchive struct {
	client storage.Client
	bucket string
	prefix string
}

// NewStorageArchive creates an archive in the given bucket.
func NewStorageArchive(client storage.Client, bucket, prefix string) *StorageArchive {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "reports"
	}
	return &StorageArchive{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key of a report.
func (a *StorageArchive) Key(report *RunReport) string {
	return path.Join(a.prefix, report.StartedAt.UTC().Format("2006/01/02"), report.RunID+".json")
}

// Archive implements Archiver.
func (a *StorageArchive) Archive(ctx context.Context, report *RunReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode run report: %w", err)
	}

	_, err = a.client.PutObject(ctx, a.bucket, a.Key(report), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload run report %s: %w", report.RunID, err)
	}
	return nil
}

// List returns the keys of archived reports, newest day first. date narrows
// the listing to one day in yyyy/mm/dd form.
func (a *StorageArchive) List(ctx context.Context, date string) ([]string, error) {
	prefix := a.prefix + "/"
	if date != "" {
		prefix += strings.Trim(date, "/") + "/"
	}

	var keys []string
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list run reports: %w", obj.Err)
		}
		if strings.HasSuffix(obj.Key, ".json") {
			keys = append(keys, obj.Key)
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

// Load returns the archived report with the given run id.
func (a *StorageArchive) Load(ctx context.Context, runID string) (*RunReport, error) {
	keys, err := a.List(ctx, "")
	if err != nil {
		return nil, err
	}

	name := runID + ".json"
	for _, key := range keys {
		if path.Base(key) != name {
			continue
		}

		obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch run report %s: %w", runID, err)
		}
		defer obj.Close()

		data, err := io.ReadAll(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to read run report %s: %w", runID, err)
		}

		var report RunReport
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("failed to decode run report %s: %w", runID, err)
		}
		return &report, nil
	}

	return nil, ErrReportNotFound
}
