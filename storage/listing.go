package storage

import (
	"context"
	"strings"

	"github.com/APTrust/storage-gateway/constants"
	"github.com/APTrust/storage-gateway/models/registry"
	"github.com/APTrust/storage-gateway/models/service"
	"github.com/APTrust/storage-gateway/network"
	"github.com/APTrust/storage-gateway/util"
	"golang.org/x/sync/errgroup"
)

// List returns descriptors for the files under prefix, in the order
// the backend lists them. When recursive is false, files in nested
// "directories" are left out.
//
// Listing favors availability. A failed page ends the listing with
// what we have so far, and a file whose metadata can't be fetched is
// left out. Both are logged.
func (fs *FileStore) List(ctx context.Context, user *registry.User, prefix string, recursive bool) []*service.StoredFile {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	keys := fs.listKeys(ctx, prefix, recursive)
	files := make([]*service.StoredFile, len(keys))
	now := fs.now()

	group := &errgroup.Group{}
	group.SetLimit(constants.ListingConcurrency)
	for i, key := range keys {
		i, key := i, key
		group.Go(func() error {
			head := fs.store.HeadObject(ctx, key)
			switch head.Status {
			case network.HeadNotFound:
				// Deleted since we listed it.
				return nil
			case network.HeadFailed:
				fs.logger.Warningf("[FILE STORAGE] Skipping %s: cannot read metadata: %v", key, head.Err)
				fs.metrics.ListingError("head")
				return nil
			}
			file, err := ToStoredFile(user, key, head, now)
			if err == nil {
				files[i] = file
			}
			return nil
		})
	}
	_ = group.Wait()

	result := make([]*service.StoredFile, 0, len(files))
	for _, file := range files {
		if file != nil {
			result = append(result, file)
		}
	}
	return result
}

// listKeys pages through the bucket and returns the keys under prefix
// that aren't excluded.
func (fs *FileStore) listKeys(ctx context.Context, prefix string, recursive bool) []string {
	keys := make([]string, 0)
	token := ""
	for {
		page, err := fs.store.ListObjectsPage(ctx, prefix, recursive, token)
		if err != nil {
			fs.logger.Errorf("[FILE STORAGE] Listing %s stopped after %d files: %v", prefix, len(keys), err)
			fs.metrics.ListingError("page")
			break
		}
		for _, obj := range page.Objects {
			if obj.Key == prefix || fs.isExcluded(obj.Key) {
				continue
			}
			keys = append(keys, obj.Key)
		}
		if !page.IsTruncated || page.NextToken == "" {
			break
		}
		token = page.NextToken
	}
	return keys
}

func (fs *FileStore) isExcluded(key string) bool {
	return util.StringListContainsFold(fs.excluded, util.BaseName(key))
}
