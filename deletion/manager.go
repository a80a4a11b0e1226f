package deletion

import (
	"context"
	"fmt"

	"github.com/APTrust/storage-gateway/models/registry"
	"github.com/APTrust/storage-gateway/models/service"
	"github.com/APTrust/storage-gateway/util/metrics"
	"github.com/op/go-logging"
)

// FileRemover loads and removes stored files. *storage.FileStore
// implements it.
type FileRemover interface {
	LoadFile(ctx context.Context, user *registry.User, key string) (*service.StoredFile, error)
	DeleteObject(ctx context.Context, key string) error
}

// WorkReleaser drops the work records kept for a file.
type WorkReleaser interface {
	DeleteWorkForFile(ctx context.Context, fileID string) error
}

// Manager deletes files from storage and releases the work records
// that refer to them.
type Manager struct {
	files   FileRemover
	works   WorkReleaser
	logger  *logging.Logger
	metrics *metrics.Recorder
}

// NewManager creates a new deletion.Manager. Param recorder may be nil.
func NewManager(files FileRemover, works WorkReleaser, logger *logging.Logger, recorder *metrics.Recorder) *Manager {
	return &Manager{
		files:   files,
		works:   works,
		logger:  logger,
		metrics: recorder,
	}
}

// DeleteFile deletes the file with the given id and returns its
// descriptor as it was before deletion. If the file does not exist,
// this returns a *common.FileNotFoundError and deletes nothing.
func (m *Manager) DeleteFile(ctx context.Context, user *registry.User, id string) (*service.StoredFile, error) {
	file, err := m.deleteFile(ctx, user, id)
	m.metrics.Deletion(err)
	return file, err
}

func (m *Manager) deleteFile(ctx context.Context, user *registry.User, id string) (*service.StoredFile, error) {
	file, err := m.files.LoadFile(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if err = m.files.DeleteObject(ctx, id); err != nil {
		m.logger.Errorf("[FILE STORAGE] Cannot delete %s: %v", id, err)
		return nil, fmt.Errorf("deleting %s: %w", id, err)
	}
	if err = m.works.DeleteWorkForFile(ctx, id); err != nil {
		m.logger.Errorf("[FILE STORAGE] Deleted %s but cannot release its work records: %v", id, err)
		return nil, fmt.Errorf("releasing work for %s: %w", id, err)
	}
	m.logger.Infof("[FILE STORAGE] Deleted %s", id)
	return file, nil
}

// DeleteFiles deletes the files one at a time, in order. It stops at
// the first failure and returns the descriptors of the files deleted
// before it along with the error.
func (m *Manager) DeleteFiles(ctx context.Context, user *registry.User, ids []string) ([]*service.StoredFile, error) {
	deleted := make([]*service.StoredFile, 0, len(ids))
	for _, id := range ids {
		file, err := m.DeleteFile(ctx, user, id)
		if err != nil {
			return deleted, err
		}
		deleted = append(deleted, file)
	}
	return deleted, nil
}
