package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"purchase-reconciler/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func objectChan(keys ...string) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		ch <- minio.ObjectInfo{Key: k}
	}
	close(ch)
	return ch
}

func TestStorageArchive_Archive(t *testing.T) {
	client := new(mocks.Client)
	archive := NewStorageArchive(client, "bucket", "/reports/")

	report := &RunReport{
		RunID:     "run-1",
		PaymentID: "P1",
		StartedAt: time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "reports/2026/03/07/run-1.json", archive.Key(report))

	var body []byte
	client.On("PutObject", mock.Anything, "bucket", "reports/2026/03/07/run-1.json", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			body, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{}, nil)

	require.NoError(t, archive.Archive(context.Background(), report))

	var decoded RunReport
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "P1", decoded.PaymentID)
}

func TestStorageArchive_ArchiveError(t *testing.T) {
	client := new(mocks.Client)
	archive := NewStorageArchive(client, "bucket", "")
	client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("bucket gone"))

	err := archive.Archive(context.Background(), &RunReport{RunID: "r"})
	assert.ErrorContains(t, err, "bucket gone")
}

func TestStorageArchive_List(t *testing.T) {
	client := new(mocks.Client)
	archive := NewStorageArchive(client, "bucket", "reports")

	client.On("ListObjects", mock.Anything, "bucket", minio.ListObjectsOptions{Prefix: "reports/2026/03/07/", Recursive: true}).
		Return(objectChan("reports/2026/03/07/a.json", "reports/2026/03/07/b.json", "reports/2026/03/07/notes.txt"))

	keys, err := archive.List(context.Background(), "2026/03/07")
	require.NoError(t, err)
	assert.Equal(t, []string{"reports/2026/03/07/b.json", "reports/2026/03/07/a.json"}, keys)
}

func TestStorageArchive_ListError(t *testing.T) {
	client := new(mocks.Client)
	archive := NewStorageArchive(client, "bucket", "reports")

	ch := make(chan minio.ObjectInfo, 1)
	ch <- minio.ObjectInfo{Err: errors.New("denied")}
	close(ch)
	client.On("ListObjects", mock.Anything, "bucket", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	_, err := archive.List(context.Background(), "")
	assert.ErrorContains(t, err, "denied")
}

func TestStorageArchive_Load(t *testing.T) {
	client := new(mocks.Client)
	archive := NewStorageArchive(client, "bucket", "reports")

	data, err := json.Marshal(RunReport{RunID: "run-2", Purchases: 3})
	require.NoError(t, err)

	client.On("ListObjects", mock.Anything, "bucket", mock.Anything).
		Return(objectChan("reports/2026/03/06/run-1.json", "reports/2026/03/07/run-2.json"))
	client.On("GetObject", mock.Anything, "bucket", "reports/2026/03/07/run-2.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader(data)), nil)

	report, err := archive.Load(context.Background(), "run-2")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Purchases)

	_, err = archive.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrReportNotFound)
}
