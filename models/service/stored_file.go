package service

import (
	"time"

	"github.com/APTrust/storage-gateway/constants"
	"github.com/APTrust/storage-gateway/models/registry"
)

// StoredFile describes a file in the storage bucket, or a placeholder
// for a file an in-flight export will produce. ID is the full object
// key.
type StoredFile struct {
	ID                   string        `json:"id"`
	Information          string        `json:"information"`
	LastModified         time.Time     `json:"lastModified"`
	LastModifiedSinceMin int           `json:"lastModifiedSinceMin"`
	Metadata             *FileMetadata `json:"metaData"`
	Name                 string        `json:"name"`
	Size                 int64         `json:"size"`
	UploadStatus         string        `json:"uploadStatus"`
}

// FileMetadata is the object's user metadata plus the derived and
// entity-attached fields we show alongside it.
type FileMetadata struct {
	Description string            `json:"description,omitempty"`
	Errors      []string          `json:"errors"`
	InCarousel  bool              `json:"inCarousel,omitempty"`
	Labels      []string          `json:"labels,omitempty"`
	Messages    []string          `json:"messages"`
	Order       *int              `json:"order,omitempty"`
	Values      map[string]string `json:"values"`
}

// FileReference is the compact form of a file that entities keep in
// their list of attached files.
type FileReference struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Name     string `json:"name"`
	Version  string `json:"version"`
}

// NewFileMetadata returns metadata wrapping values, with empty
// message and error lists.
func NewFileMetadata(values map[string]string) *FileMetadata {
	if values == nil {
		values = make(map[string]string)
	}
	return &FileMetadata{
		Errors:   make([]string, 0),
		Messages: make([]string, 0),
		Values:   values,
	}
}

// Get returns the metadata value for key, or an empty string.
func (m *FileMetadata) Get(key string) string {
	if m == nil || m.Values == nil {
		return ""
	}
	return m.Values[key]
}

func (m *FileMetadata) MimeType() string {
	return m.Get(constants.MetaMimeType)
}

func (m *FileMetadata) EntityID() string {
	return m.Get(constants.MetaEntityID)
}

func (m *FileMetadata) CreatorID() string {
	return m.Get(constants.MetaCreatorID)
}

func (m *FileMetadata) Version() string {
	return m.Get(constants.MetaVersion)
}

// IsPlaceholder returns true if this entry stands for an in-flight
// work rather than a committed object.
func (f *StoredFile) IsPlaceholder() bool {
	return f.UploadStatus != constants.UploadStatusComplete
}

// Reference returns the compact reference entities store for this file.
func (f *StoredFile) Reference() FileReference {
	return FileReference{
		ID:       f.ID,
		MimeType: f.Metadata.MimeType(),
		Name:     f.Name,
		Version:  f.Metadata.Version(),
	}
}

// MinutesSince returns the number of whole minutes between t and now.
func MinutesSince(t, now time.Time) int {
	if t.IsZero() || now.Before(t) {
		return 0
	}
	return int(now.Sub(t) / time.Minute)
}

// PlaceholderFromWork represents an in-flight export work as a
// listing entry. Works that have not been updated in a while are
// reported as timed out.
func PlaceholderFromWork(work *registry.Work, now time.Time) *StoredFile {
	sinceMin := MinutesSince(work.UpdatedAt, now)
	status := work.Status
	if now.Sub(work.UpdatedAt) >= constants.ExportWorkTimeout {
		status = constants.UploadStatusTimeout
	}
	name := work.Name
	if name == "" {
		name = "Unknown"
	}
	metadata := NewFileMetadata(nil)
	metadata.Messages = append(metadata.Messages, work.Messages...)
	metadata.Errors = append(metadata.Errors, work.Errors...)
	return &StoredFile{
		ID:                   work.ID,
		LastModified:         work.UpdatedAt,
		LastModifiedSinceMin: sinceMin,
		Metadata:             metadata,
		Name:                 name,
		Size:                 0,
		UploadStatus:         status,
	}
}
