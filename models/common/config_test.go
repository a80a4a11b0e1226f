package common_test

import (
	"testing"

	"github.com/APTrust/storage-gateway/constants"
	"github.com/APTrust/storage-gateway/models/common"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	config, err := common.LoadConfig("testdata", "test")
	require.Nil(t, err)
	assert.Equal(t, "test", config.ConfigName)
	assert.Equal(t, "localhost", config.MinioEndpoint)
	assert.Equal(t, 9899, config.MinioPort)
	assert.Equal(t, "test-access-key", config.MinioAccessKey)
	assert.Equal(t, "test-secret-key", config.MinioSecretKey)
	assert.Equal(t, "gateway-test", config.BucketName)
	assert.Equal(t, constants.DefaultBucketRegion, config.BucketRegion)
	assert.Equal(t, []string{".DS_Store", "Thumbs.db"}, config.ExcludedFiles)
	assert.Equal(t, uint64(8*1024*1024), config.PartSize)
	assert.Equal(t, constants.DefaultListPageSize, config.ListPageSize)
	assert.Equal(t, constants.DefaultFileFetchPrefix, config.FileFetchPrefix)
	assert.Equal(t, 2, config.RedisDefaultDB)
	assert.Equal(t, logging.DEBUG, config.LogLevel)
	assert.Equal(t, "127.0.0.1:9464", config.MetricsListen)
	assert.False(t, config.UseAWSRole)
	assert.False(t, config.Secure())
	assert.Equal(t, "localhost:9899", config.S3Endpoint())
}

func TestLoadConfigAWS(t *testing.T) {
	config, err := common.LoadConfig("testdata", "aws")
	require.Nil(t, err)
	assert.True(t, config.UseAWSRole)
	assert.True(t, config.Secure())
	assert.Equal(t, constants.S3AmazonHost, config.S3Endpoint())
	assert.Equal(t, constants.DefaultBucketName, config.BucketName)
	assert.Equal(t, constants.DefaultExcludedFiles, config.ExcludedFiles)
	assert.Equal(t, logging.INFO, config.LogLevel)
	assert.Empty(t, config.MetricsListen)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := common.LoadConfig("testdata", "badpart")
	assert.NotNil(t, err)

	_, err = common.LoadConfig("testdata", "does-not-exist")
	assert.NotNil(t, err)
}
