package logger

import (
	"github.com/dustin/go-humanize"
	"github.com/op/go-logging"
)

// UploadProgressLogger logs the progress of minio's streaming
// PutObject. Uploads coming from a stream have no known size, so
// this logs every time another Interval bytes have gone out.
type UploadProgressLogger struct {
	logger      *logging.Logger
	partNumber  int
	totalBytes  uint64
	lastPrinted uint64
	prefix      string
	Interval    uint64
}

const _100MB = uint64(104857600)

// NewUploadProgressLogger creates a new UploadProgressLogger.
func NewUploadProgressLogger(logger *logging.Logger, prefix string) *UploadProgressLogger {
	return &UploadProgressLogger{
		logger:     logger,
		prefix:     prefix,
		partNumber: 1,
		Interval:   _100MB,
	}
}

// Read fulfills the io.Reader interface minio expects in
// PutObjectOptions.Progress. Minio calls it with a slice whose
// length is the number of bytes just sent.
func (e *UploadProgressLogger) Read(p []byte) (n int, err error) {
	e.totalBytes += uint64(len(p))
	if e.shouldPrint() {
		e.logger.Infof("%s : part %d, %s sent",
			e.prefix, e.partNumber, humanize.IBytes(e.totalBytes))
		e.lastPrinted = e.totalBytes
	}
	e.partNumber++
	return len(p), nil
}

// TotalBytes returns the number of bytes reported so far.
func (e *UploadProgressLogger) TotalBytes() uint64 {
	return e.totalBytes
}

// Small uploads finish quickly and don't need progress entries.
func (e *UploadProgressLogger) shouldPrint() bool {
	return e.Interval > 0 && e.totalBytes-e.lastPrinted >= e.Interval
}
