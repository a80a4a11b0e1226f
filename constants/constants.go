package constants

import "time"

const (
	ConnectorTypeImportFile = "INTERNAL_IMPORT_FILE"
	DefaultBucketName       = "storage-gateway-bucket"
	DefaultBucketRegion     = "us-east-1"
	DefaultFileFetchPrefix  = "/storage/get/"
	DefaultListPageSize     = 1000
	DefaultPartSize         = "16MB"
	DefaultPort             = 9000
	ListingConcurrency      = 5
	MetaCreatorID           = "creator_id"
	MetaEncoding            = "encoding"
	MetaEntityID            = "entity_id"
	MetaFilename            = "filename"
	MetaLabelsText          = "labels_text"
	MetaMimeType            = "mimetype"
	MetaVersion             = "version"
	MinPartSize             = uint64(5 * 1024 * 1024)
	S3AmazonHost            = "s3.amazonaws.com"
	TopicPrefix             = "push_"
	UnknownFilename         = "unknown"
	UploadStatusComplete    = "complete"
	UploadStatusTimeout     = "timeout"
	WorkStatusComplete      = "complete"
	WorkStatusProgress      = "progress"
	WorkStatusWait          = "wait"
	WorkTypeExport          = "export"
	WorkTypeImport          = "import"
)

// CredentialRefreshWindow is how long before expiry cached
// credentials are considered stale.
const CredentialRefreshWindow = 5 * time.Minute

// CredentialFetchTimeout bounds each request to a remote identity
// endpoint, so hosts without one fall through the chain quickly.
const CredentialFetchTimeout = 5 * time.Second

// ExportWorkTimeout is how long an export work may go without an
// update before its placeholder is reported as timed out.
const ExportWorkTimeout = 20 * time.Minute

var DefaultExcludedFiles = []string{".DS_Store"}

// InFlightWorkStatuses are the statuses of works that are still
// running and should show up as placeholder files.
var InFlightWorkStatuses = []string{
	WorkStatusWait,
	WorkStatusProgress,
}
