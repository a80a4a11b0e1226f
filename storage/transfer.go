package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/APTrust/storage-gateway/constants"
	"github.com/APTrust/storage-gateway/models/common"
	"github.com/APTrust/storage-gateway/models/registry"
	"github.com/APTrust/storage-gateway/models/service"
	"github.com/APTrust/storage-gateway/network"
	"github.com/APTrust/storage-gateway/util/logger"
)

// FileUpload is a file on its way into storage. Reader is read to
// the end once. MimeType is what the client declared; the filename's
// extension takes precedence.
type FileUpload struct {
	Encoding string
	Filename string
	MimeType string
	Reader   io.Reader
}

// UploadOptions controls an upload.
type UploadOptions struct {
	// Entity the file is attached to, if any.
	Entity *registry.Entity

	// Meta is extra metadata stored with the object.
	Meta map[string]string

	// NoTriggerImport suppresses import jobs.
	NoTriggerImport bool

	// ErrorOnExisting makes the upload fail if a file already exists
	// under the same key.
	ErrorOnExisting bool
}

// countingReader counts the bytes read through it.
type countingReader struct {
	reader io.Reader
	count  int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.count += int64(n)
	return n, err
}

// Upload streams upload into storage under dir/filename and returns
// its descriptor. The stream is sent in parts, so it is never held in
// memory as a whole.
//
// Files uploaded into the import namespace start import jobs on the
// eligible connectors, unless opts.NoTriggerImport is set or the file
// is in import/pending or import/External-Reference. If dispatch
// fails, the file stays stored and Upload returns both its descriptor
// and the dispatch error.
func (fs *FileStore) Upload(ctx context.Context, user *registry.User, dir string, upload FileUpload, opts UploadOptions) (*service.StoredFile, error) {
	key := objectKey(dir, upload.Filename)
	if opts.ErrorOnExisting {
		head := fs.store.HeadObject(ctx, key)
		switch head.Status {
		case network.HeadFound:
			return nil, &common.AlreadyExistsError{Key: key}
		case network.HeadFailed:
			return nil, fmt.Errorf("checking for existing file %s: %w", key, head.Err)
		}
	}

	entityID := ""
	if opts.Entity != nil {
		entityID = opts.Entity.InternalID
	}
	now := fs.now()
	metadata := BuildMetadata(upload.Filename, upload.MimeType, upload.Encoding, user.GetID(), entityID, opts.Meta, now)
	mimeType := metadata[constants.MetaMimeType]

	counter := &countingReader{reader: upload.Reader}
	progress := logger.NewUploadProgressLogger(fs.logger, fmt.Sprintf("[FILE STORAGE] Upload %s", key))
	_, err := fs.store.PutObject(ctx, key, counter, metadata, mimeType, progress)
	fs.metrics.Upload(counter.count, err)
	if err != nil {
		fs.logger.Errorf("[FILE STORAGE] Upload of %s failed after %d bytes: %v", key, counter.count, err)
		return nil, fmt.Errorf("uploading %s: %w", key, err)
	}
	fs.logger.Infof("[FILE STORAGE] Stored %s (%d bytes)", key, counter.count)

	file := describe(key, metadata, counter.count, now, now)
	if opts.NoTriggerImport || fs.trigger == nil || !constants.TriggersImport(dir) {
		return file, nil
	}
	_, err = fs.trigger.Dispatch(ctx, user, key, mimeType, entityID, service.ImportOptions{})
	return file, err
}

// Download returns a reader for the file stored under key. It returns
// nil if the file can't be read; the caller must close the reader.
func (fs *FileStore) Download(ctx context.Context, key string) io.ReadCloser {
	reader, err := fs.store.GetObject(ctx, key)
	if err != nil {
		fs.logger.Warningf("[FILE STORAGE] Cannot download %s: %v", key, err)
		return nil
	}
	return reader
}

// GetContent returns the whole content of a text file.
func (fs *FileStore) GetContent(ctx context.Context, user *registry.User, key string) (string, error) {
	reader, err := fs.store.GetObject(ctx, key)
	if err != nil {
		if network.IsS3NotFound(err) {
			return "", &common.FileNotFoundError{UserID: user.GetID(), Key: key}
		}
		return "", err
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return string(data), nil
}
