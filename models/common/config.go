package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/APTrust/storage-gateway/constants"
	"github.com/APTrust/storage-gateway/util"
	"github.com/dustin/go-humanize"
	"github.com/op/go-logging"
	"github.com/spf13/viper"
)

type Config struct {
	BucketName      string
	BucketRegion    string
	ConfigName      string
	ExcludedFiles   []string
	FileFetchPrefix string
	ListPageSize    int
	LogDir          string
	LogLevel        logging.Level
	MetricsListen   string
	MinioAccessKey  string
	MinioEndpoint   string
	MinioPort       int
	MinioSecretKey  string
	MinioSession    string
	NsqTCPAddress   string
	NsqURL          string
	PartSize        uint64
	RedisDefaultDB  int
	RedisPassword   string
	RedisURL        string
	UseAWSRole      bool
	UseSSL          bool
}

var logLevels = map[string]logging.Level{
	"CRITICAL": logging.CRITICAL,
	"ERROR":    logging.ERROR,
	"WARNING":  logging.WARNING,
	"NOTICE":   logging.NOTICE,
	"INFO":     logging.INFO,
	"DEBUG":    logging.DEBUG,
}

// Returns a new config based on ENV vars APT_CONFIG_DIR and
// APT_SERVICES_CONFIG. This panics if the config can't be loaded,
// since none of the services can run without it.
func NewConfig() *Config {
	configDir, envName := getEnvVars()
	config, err := LoadConfig(configDir, envName)
	if err != nil {
		panic(fmt.Errorf("Fatal error config file: %s \n", err))
	}
	return config
}

// LoadConfig reads .env.<envName> from configDir.
func LoadConfig(configDir, envName string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(configDir)
	v.SetConfigName(".env." + envName)
	v.SetConfigType("env")
	setDefaults(v)
	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}
	partSize, err := humanize.ParseBytes(v.GetString("MINIO_PART_SIZE"))
	if err != nil {
		return nil, fmt.Errorf("Invalid MINIO_PART_SIZE: %w", err)
	}
	logLevel, ok := logLevels[strings.ToUpper(v.GetString("LOG_LEVEL"))]
	if !ok {
		logLevel = logging.INFO
	}
	config := &Config{
		BucketName:      v.GetString("MINIO_BUCKET_NAME"),
		BucketRegion:    v.GetString("MINIO_BUCKET_REGION"),
		ConfigName:      envName,
		ExcludedFiles:   splitList(v.GetString("MINIO_EXCLUDED_FILES")),
		FileFetchPrefix: v.GetString("FILE_FETCH_PREFIX"),
		ListPageSize:    v.GetInt("MINIO_LIST_PAGE_SIZE"),
		LogDir:          v.GetString("LOG_DIR"),
		LogLevel:        logLevel,
		MetricsListen:   v.GetString("METRICS_LISTEN"),
		MinioAccessKey:  v.GetString("MINIO_ACCESS_KEY"),
		MinioEndpoint:   v.GetString("MINIO_ENDPOINT"),
		MinioPort:       v.GetInt("MINIO_PORT"),
		MinioSecretKey:  v.GetString("MINIO_SECRET_KEY"),
		MinioSession:    v.GetString("MINIO_SESSION_TOKEN"),
		NsqTCPAddress:   v.GetString("NSQ_TCP_ADDRESS"),
		NsqURL:          v.GetString("NSQ_URL"),
		PartSize:        partSize,
		RedisDefaultDB:  v.GetInt("REDIS_DEFAULT_DB"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisURL:        v.GetString("REDIS_URL"),
		UseAWSRole:      v.GetBool("MINIO_USE_AWS_ROLE"),
		UseSSL:          v.GetBool("MINIO_USE_SSL"),
	}
	config.LogDir, err = util.ExpandTilde(config.LogDir)
	if err != nil {
		return nil, err
	}
	return config, config.sanityCheck()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("FILE_FETCH_PREFIX", constants.DefaultFileFetchPrefix)
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("METRICS_LISTEN", "")
	v.SetDefault("MINIO_BUCKET_NAME", constants.DefaultBucketName)
	v.SetDefault("MINIO_BUCKET_REGION", constants.DefaultBucketRegion)
	v.SetDefault("MINIO_EXCLUDED_FILES", strings.Join(constants.DefaultExcludedFiles, ","))
	v.SetDefault("MINIO_LIST_PAGE_SIZE", constants.DefaultListPageSize)
	v.SetDefault("MINIO_PART_SIZE", constants.DefaultPartSize)
	v.SetDefault("MINIO_PORT", constants.DefaultPort)
	v.SetDefault("MINIO_USE_AWS_ROLE", false)
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("NSQ_URL", "http://localhost:4151")
	v.SetDefault("REDIS_URL", "localhost:6379")
}

func splitList(value string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getEnvVars() (string, string) {
	configDir := getRequiredEnvVar("APT_CONFIG_DIR")
	envName := getRequiredEnvVar("APT_SERVICES_CONFIG")
	return configDir, envName
}

func getRequiredEnvVar(varName string) string {
	value := os.Getenv(varName)
	if value == "" {
		panic(fmt.Sprintf("Required env var %s not set", varName))
	}
	return value
}

func (c *Config) sanityCheck() error {
	if c.MinioEndpoint == "" {
		return fmt.Errorf("MINIO_ENDPOINT is required")
	}
	if c.BucketName == "" {
		return fmt.Errorf("MINIO_BUCKET_NAME is required")
	}
	if c.PartSize < constants.MinPartSize {
		return fmt.Errorf("MINIO_PART_SIZE must be at least %s", humanize.IBytes(constants.MinPartSize))
	}
	if c.ListPageSize <= 0 {
		return fmt.Errorf("MINIO_LIST_PAGE_SIZE must be positive")
	}
	return nil
}

// S3Endpoint returns the host[:port] the S3 client should talk to.
// For AWS we use the bare host and let the client choose the
// regional endpoint.
func (c *Config) S3Endpoint() string {
	if c.MinioEndpoint == constants.S3AmazonHost {
		return c.MinioEndpoint
	}
	return c.MinioEndpoint + ":" + strconv.Itoa(c.MinioPort)
}

// Secure returns true if we talk to S3 over TLS. AWS always uses TLS.
func (c *Config) Secure() bool {
	return c.UseSSL || c.MinioEndpoint == constants.S3AmazonHost
}
