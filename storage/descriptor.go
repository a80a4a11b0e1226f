package storage

import (
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/APTrust/storage-gateway/constants"
	"github.com/APTrust/storage-gateway/models/common"
	"github.com/APTrust/storage-gateway/models/registry"
	"github.com/APTrust/storage-gateway/models/service"
	"github.com/APTrust/storage-gateway/network"
)

// ToStoredFile converts the result of a HEAD request into a file
// descriptor. A missing object yields a *common.FileNotFoundError.
// Other backend errors are returned as they are.
func ToStoredFile(user *registry.User, key string, head network.HeadResult, now time.Time) (*service.StoredFile, error) {
	switch head.Status {
	case network.HeadNotFound:
		return nil, &common.FileNotFoundError{UserID: user.GetID(), Key: key}
	case network.HeadFailed:
		return nil, head.Err
	}
	values := make(map[string]string, len(head.Info.UserMetadata))
	for k, v := range head.Info.UserMetadata {
		values[strings.ToLower(k)] = v
	}
	return describe(key, values, head.Info.Size, head.Info.LastModified, now), nil
}

// describe builds the descriptor for a committed object from its
// lowercased metadata.
func describe(key string, values map[string]string, size int64, lastModified, now time.Time) *service.StoredFile {
	metadata := service.NewFileMetadata(values)
	if labels := values[constants.MetaLabelsText]; labels != "" {
		metadata.Labels = strings.Split(labels, ";")
	}
	return &service.StoredFile{
		ID:                   key,
		LastModified:         lastModified,
		LastModifiedSinceMin: service.MinutesSince(lastModified, now),
		Metadata:             metadata,
		Name:                 DecodeFilename(values[constants.MetaFilename]),
		Size:                 size,
		UploadStatus:         constants.UploadStatusComplete,
	}
}

// BuildMetadata returns the object metadata stored with an upload.
// Entries in extra are kept, with their keys lowercased the way
// ToStoredFile reads them back. The MIME type comes from the filename's
// extension when we know it, and from declaredMime otherwise.
func BuildMetadata(filename, declaredMime, encoding, userID, entityID string, extra map[string]string, now time.Time) map[string]string {
	metadata := make(map[string]string, len(extra)+6)
	for k, v := range extra {
		metadata[strings.ToLower(k)] = v
	}
	metadata[constants.MetaFilename] = EncodeFilename(filename)
	metadata[constants.MetaMimeType] = GuessMimeType(filename, declaredMime)
	if encoding != "" {
		metadata[constants.MetaEncoding] = encoding
	}
	if metadata[constants.MetaVersion] == "" {
		metadata[constants.MetaVersion] = now.UTC().Format(time.RFC3339)
	}
	if userID != "" {
		metadata[constants.MetaCreatorID] = userID
	}
	if entityID != "" {
		metadata[constants.MetaEntityID] = entityID
	}
	return metadata
}

// GuessMimeType returns the MIME type registered for the filename's
// extension, without parameters, falling back to declared.
func GuessMimeType(filename, declared string) string {
	ext := path.Ext(filename)
	if ext == "" {
		return declared
	}
	guessed := mime.TypeByExtension(strings.ToLower(ext))
	if guessed == "" {
		return declared
	}
	mediaType, _, err := mime.ParseMediaType(guessed)
	if err != nil {
		return declared
	}
	return mediaType
}

// EncodeFilename percent-encodes name so it can travel in an object
// metadata header.
func EncodeFilename(name string) string {
	return url.PathEscape(name)
}

// DecodeFilename reverses EncodeFilename. Empty values decode to
// "unknown", and values that don't decode are returned unchanged.
func DecodeFilename(encoded string) string {
	if encoded == "" {
		return constants.UnknownFilename
	}
	name, err := url.PathUnescape(encoded)
	if err != nil {
		return encoded
	}
	return name
}

// objectKey joins an upload path and filename into an object key.
func objectKey(dir, filename string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(dir, "/"), filename)
}
