package listing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/APTrust/storage-gateway/models/registry"
	"github.com/APTrust/storage-gateway/models/service"
	"github.com/op/go-logging"
)

// FileLister lists the files under a prefix. *storage.FileStore
// implements it.
type FileLister interface {
	List(ctx context.Context, user *registry.User, prefix string, recursive bool) []*service.StoredFile
}

// ExportWorkSource returns the exports still writing into a path.
type ExportWorkSource interface {
	ExportWorksForSource(ctx context.Context, path string) ([]*registry.Work, error)
}

// FileDeleter deletes files in order, stopping at the first failure.
type FileDeleter interface {
	DeleteFiles(ctx context.Context, user *registry.User, ids []string) ([]*service.StoredFile, error)
}

// Composer builds the file listings users see: committed files
// merged with placeholders for exports that haven't finished yet.
type Composer struct {
	files   FileLister
	exports ExportWorkSource
	deleter FileDeleter
	logger  *logging.Logger
	now     func() time.Time
}

func NewComposer(files FileLister, exports ExportWorkSource, deleter FileDeleter, logger *logging.Logger) *Composer {
	return &Composer{
		files:   files,
		exports: exports,
		deleter: deleter,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock replaces the time source used to age placeholders.
func (c *Composer) SetClock(now func() time.Time) {
	c.now = now
}

// RenderPage returns the first entries of the listing for path,
// newest first. If first is zero or less, it returns all entries.
//
// When entity is given, only files attached to it are listed, with
// the ordering, carousel flag and description the entity keeps for
// them. When mimePrefix is given, only files whose MIME type contains
// it are listed. Placeholders for running exports are always included.
func (c *Composer) RenderPage(ctx context.Context, user *registry.User, path string, first int, entity *registry.Entity, mimePrefix string) (*service.ListingPage, error) {
	files := c.files.List(ctx, user, path, false)
	if entity != nil {
		files = resolveEntityFiles(files, entity)
	}
	if mimePrefix != "" {
		files = filterMimeType(files, mimePrefix)
	}
	placeholders, err := c.placeholders(ctx, path)
	if err != nil {
		return nil, err
	}
	all := append(placeholders, files...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].LastModified.After(all[j].LastModified)
	})
	return service.NewListingPage(all, first), nil
}

// DeleteAll deletes every committed file under path and returns the
// deleted files. Placeholders of running exports are left alone: they
// have no object behind them yet. It stops at the first failure.
func (c *Composer) DeleteAll(ctx context.Context, user *registry.User, path string) ([]*service.StoredFile, error) {
	files := c.files.List(ctx, user, path, false)
	placeholders, err := c.placeholders(ctx, path)
	if err != nil {
		return nil, err
	}
	for _, p := range placeholders {
		c.logger.Infof("[FILE STORAGE] Skipping running export %s (%s) under %s", p.Name, p.ID, path)
	}
	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	c.logger.Infof("[FILE STORAGE] Deleting %d files under %s", len(ids), path)
	return c.deleter.DeleteFiles(ctx, user, ids)
}

func (c *Composer) placeholders(ctx context.Context, path string) ([]*service.StoredFile, error) {
	works, err := c.exports.ExportWorksForSource(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading exports for %s: %w", path, err)
	}
	now := c.now()
	placeholders := make([]*service.StoredFile, len(works))
	for i, work := range works {
		placeholders[i] = service.PlaceholderFromWork(work, now)
	}
	return placeholders, nil
}

// resolveEntityFiles keeps the files attached to entity and copies in
// the entity's view of each one, ordered by the entity's order. Files
// without an order go last.
func resolveEntityFiles(files []*service.StoredFile, entity *registry.Entity) []*service.StoredFile {
	resolved := make([]*service.StoredFile, 0, len(files))
	for _, f := range files {
		if f.Metadata.EntityID() != entity.InternalID {
			continue
		}
		if ef := entity.FindFile(f.ID); ef != nil {
			f.Metadata.Order = ef.Order
			f.Metadata.InCarousel = ef.InCarousel
			f.Metadata.Description = ef.Description
		}
		resolved = append(resolved, f)
	}
	sort.SliceStable(resolved, func(i, j int) bool {
		a, b := resolved[i].Metadata.Order, resolved[j].Metadata.Order
		if a == nil {
			return false
		}
		return b == nil || *a < *b
	})
	return resolved
}

func filterMimeType(files []*service.StoredFile, mimePrefix string) []*service.StoredFile {
	filtered := make([]*service.StoredFile, 0, len(files))
	for _, f := range files {
		if strings.Contains(f.Metadata.MimeType(), mimePrefix) {
			filtered = append(filtered, f)
		}
	}
	return filtered
}
