package models

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/APTrust/storage-gateway/constants"
	"github.com/APTrust/storage-gateway/deletion"
	"github.com/APTrust/storage-gateway/dispatch"
	"github.com/APTrust/storage-gateway/listing"
	"github.com/APTrust/storage-gateway/models/common"
	"github.com/APTrust/storage-gateway/network"
	"github.com/APTrust/storage-gateway/storage"
	"github.com/APTrust/storage-gateway/util/logger"
	"github.com/APTrust/storage-gateway/util/metrics"
	"github.com/op/go-logging"
)

// Context holds the config and the wired-up clients and services
// the gateway runs on.
type Context struct {
	Config      *common.Config
	Logger      *logging.Logger
	Metrics     *metrics.Recorder
	Credentials *network.CredentialResolver
	S3Client    *network.S3Client
	Publisher   network.Publisher
	RedisClient *network.RedisClient
	Files       *storage.FileStore
	Dispatcher  *dispatch.Dispatcher
	Deletion    *deletion.Manager
	Composer    *listing.Composer

	metricsServer *http.Server
}

// NewContext loads the config named by the environment and builds
// a Context from it. It panics if anything can't be set up, since
// nothing can run without it.
func NewContext() *Context {
	config := common.NewConfig()
	_logger := getLogger(config)
	c, err := NewContextFromConfig(config, _logger)
	if err != nil {
		panic(fmt.Sprintf("Could not initialize context: %v", err))
	}
	return c
}

// NewContextFromConfig builds a Context on config, logging to _logger.
func NewContextFromConfig(config *common.Config, _logger *logging.Logger) (*Context, error) {
	recorder := metrics.NewRecorder()
	resolver := network.NewCredentialResolver(
		constants.CredentialRefreshWindow,
		network.DefaultCredentialProviders(config)...)
	s3Client, err := network.NewS3Client(network.S3Options{
		Bucket:   config.BucketName,
		Creds:    resolver.MinioCredentials(),
		Endpoint: config.S3Endpoint(),
		PageSize: config.ListPageSize,
		PartSize: config.PartSize,
		Region:   config.BucketRegion,
		Secure:   config.Secure(),
	})
	if err != nil {
		return nil, err
	}
	if config.LogLevel == logging.DEBUG {
		s3Client.TraceOn(logger.NewTracer(_logger))
	}
	publisher, err := getPublisher(config)
	if err != nil {
		return nil, err
	}
	redisClient := getRedisClient(config)
	dispatcher := dispatch.NewDispatcher(redisClient, redisClient, publisher, config.FileFetchPrefix, _logger, recorder)
	files := storage.NewFileStore(s3Client, dispatcher, config.ExcludedFiles, _logger, recorder)
	deleter := deletion.NewManager(files, redisClient, _logger, recorder)
	return &Context{
		Config:      config,
		Logger:      _logger,
		Metrics:     recorder,
		Credentials: resolver,
		S3Client:    s3Client,
		Publisher:   publisher,
		RedisClient: redisClient,
		Files:       files,
		Dispatcher:  dispatcher,
		Deletion:    deleter,
		Composer:    listing.NewComposer(files, redisClient, deleter, _logger),
	}, nil
}

// InitStorage makes sure the bucket exists. Call it once at startup.
func (c *Context) InitStorage(ctx context.Context) error {
	if err := c.Files.IsStorageAlive(ctx); err != nil {
		return err
	}
	c.Logger.Infof("[FILE STORAGE] Bucket %s is ready", c.S3Client.Bucket())
	return nil
}

// StartMetricsServer serves the Prometheus metrics on /metrics and a
// storage health check on /healthz at addr. Close stops it.
func (c *Context) StartMetricsServer(addr string) (net.Addr, error) {
	extra := map[string]http.Handler{
		"/healthz": http.HandlerFunc(c.serveHealth),
	}
	srv, ln, err := c.Metrics.StartServer(addr, extra, c.Logger)
	if err != nil {
		return nil, err
	}
	c.metricsServer = srv
	return ln.Addr(), nil
}

func (c *Context) serveHealth(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 10*time.Second)
	defer cancel()
	if err := c.Files.IsStorageAlive(ctx); err != nil {
		c.Logger.Warningf("[FILE STORAGE] Health check failed: %v", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Close stops the metrics server and releases the broker and Redis
// connections.
func (c *Context) Close() {
	if c.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			c.Logger.Warningf("Error stopping metrics server: %v", err)
		}
		cancel()
		c.metricsServer = nil
	}
	if producer, ok := c.Publisher.(*network.NSQProducer); ok {
		producer.Stop()
	}
	if err := c.RedisClient.Close(); err != nil {
		c.Logger.Warningf("Error closing Redis client: %v", err)
	}
}

func getLogger(config *common.Config) *logging.Logger {
	logger, _ := logger.InitLogger(config.LogDir, config.LogLevel)
	return logger
}

// getPublisher prefers a TCP producer when an nsqd TCP address is
// configured, and posts to nsqd's HTTP interface otherwise.
func getPublisher(config *common.Config) (network.Publisher, error) {
	if config.NsqTCPAddress != "" {
		return network.NewNSQProducer(config.NsqTCPAddress)
	}
	return network.NewNSQClient(config.NsqURL), nil
}

func getRedisClient(config *common.Config) *network.RedisClient {
	return network.NewRedisClient(
		config.RedisURL,
		config.RedisPassword,
		config.RedisDefaultDB)
}
