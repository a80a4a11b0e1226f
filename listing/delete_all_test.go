package listing_test

import (
	"context"
	"strings"
	"testing"

	"github.com/APTrust/storage-gateway/constants"
	"github.com/APTrust/storage-gateway/deletion"
	"github.com/APTrust/storage-gateway/listing"
	"github.com/APTrust/storage-gateway/models/common"
	"github.com/APTrust/storage-gateway/models/registry"
	"github.com/APTrust/storage-gateway/network"
	"github.com/APTrust/storage-gateway/storage"
	"github.com/APTrust/storage-gateway/util/testutil"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteAllWithRunningExport(t *testing.T) {
	ctx := context.Background()
	counter := testutil.NewRequestCounter()
	client, err := network.NewS3Client(network.S3Options{
		Bucket:    "delete-all",
		Creds:     credentials.NewStaticV4("test-access-key", "test-secret-key", ""),
		Endpoint:  S3TestServer.Endpoint(),
		Region:    constants.DefaultBucketRegion,
		Transport: counter,
	})
	require.Nil(t, err)
	require.Nil(t, client.EnsureBucket(ctx))
	RedisTestServer.FlushAll()
	redis := network.NewRedisClient(RedisTestServer.Addr(), "", 0)
	defer redis.Close()

	files := storage.NewFileStore(client, nil, nil, testLogger, nil)
	manager := deletion.NewManager(files, redis, testLogger, nil)
	composer := listing.NewComposer(files, redis, manager, testLogger)

	path := "export/Report/e1"
	ids := make([]string, 0)
	for _, name := range []string{"a.pdf", "b.pdf"} {
		upload := storage.FileUpload{Filename: name, MimeType: "application/pdf", Reader: strings.NewReader(name)}
		file, err := files.Upload(ctx, testUser, path, upload, storage.UploadOptions{NoTriggerImport: true})
		require.Nil(t, err)
		ids = append(ids, file.ID)
	}
	running := registry.NewWork(constants.WorkTypeExport, "c.pdf", "conn", path, testUser.ID)
	require.Nil(t, redis.WorkSave(ctx, running))

	page, err := composer.RenderPage(ctx, testUser, path, 0, nil, "")
	require.Nil(t, err)
	require.Equal(t, 3, page.PageInfo.GlobalCount)

	deleted, err := composer.DeleteAll(ctx, testUser, path)
	require.Nil(t, err)
	require.Len(t, deleted, 2)
	assert.ElementsMatch(t, ids, []string{deleted[0].ID, deleted[1].ID})
	assert.Equal(t, 2, counter.Count("DELETE"))

	for _, id := range ids {
		_, err := files.LoadFile(ctx, testUser, id)
		assert.True(t, common.IsNotFound(err), id)
	}

	// The running export is untouched and still listed.
	exports, err := redis.ExportWorksForSource(ctx, path)
	require.Nil(t, err)
	require.Len(t, exports, 1)
	assert.Equal(t, running.ID, exports[0].ID)
	page, err = composer.RenderPage(ctx, testUser, path, 0, nil, "")
	require.Nil(t, err)
	require.Len(t, page.Edges, 1)
	assert.True(t, page.Edges[0].Node.IsPlaceholder())
}
