package storage

import (
	"context"
	"io"
	"time"

	"github.com/APTrust/storage-gateway/models/registry"
	"github.com/APTrust/storage-gateway/models/service"
	"github.com/APTrust/storage-gateway/network"
	"github.com/APTrust/storage-gateway/util/metrics"
	"github.com/minio/minio-go/v7"
	"github.com/op/go-logging"
)

// ObjectStore is the part of network.S3Client the file store uses.
type ObjectStore interface {
	Bucket() string
	EnsureBucket(ctx context.Context) error
	HeadObject(ctx context.Context, key string) network.HeadResult
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	PutObject(ctx context.Context, key string, reader io.Reader, metadata map[string]string, contentType string, progress io.Reader) (minio.UploadInfo, error)
	DeleteObject(ctx context.Context, key string) error
	ListObjectsPage(ctx context.Context, prefix string, recursive bool, token string) (network.ListPage, error)
}

// ImportTrigger starts import jobs for a freshly uploaded file.
type ImportTrigger interface {
	Dispatch(ctx context.Context, user *registry.User, fileID, mimeType, entityID string, opts service.ImportOptions) ([]*registry.Connector, error)
}

// FileStore presents the objects in the bucket as files: it maps
// object metadata to StoredFile descriptors, lists them, and moves
// bytes in and out.
type FileStore struct {
	store    ObjectStore
	trigger  ImportTrigger
	excluded []string
	logger   *logging.Logger
	metrics  *metrics.Recorder
	now      func() time.Time
}

// NewFileStore returns a FileStore. Files whose base name matches an
// entry in excluded (ignoring case) never show up in listings.
// Params trigger and recorder may be nil.
func NewFileStore(store ObjectStore, trigger ImportTrigger, excluded []string, logger *logging.Logger, recorder *metrics.Recorder) *FileStore {
	return &FileStore{
		store:    store,
		trigger:  trigger,
		excluded: excluded,
		logger:   logger,
		metrics:  recorder,
		now:      time.Now,
	}
}

// SetClock replaces the time source used for version stamps and
// minute counts.
func (fs *FileStore) SetClock(now func() time.Time) {
	fs.now = now
}

// LoadFile returns the descriptor of the file stored under key.
func (fs *FileStore) LoadFile(ctx context.Context, user *registry.User, key string) (*service.StoredFile, error) {
	return ToStoredFile(user, key, fs.store.HeadObject(ctx, key), fs.now())
}

// DeleteObject removes the object stored under key.
func (fs *FileStore) DeleteObject(ctx context.Context, key string) error {
	return fs.store.DeleteObject(ctx, key)
}

// IsStorageAlive returns nil if the bucket exists or could be created.
func (fs *FileStore) IsStorageAlive(ctx context.Context) error {
	return fs.store.EnsureBucket(ctx)
}
