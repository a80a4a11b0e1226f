package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/APTrust/storage-gateway/constants"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

/*
   S3Client is a thin wrapper around the minio client, scoped to the
   one bucket the gateway stores files in. See
   https://docs.min.io/docs/golang-client-api-reference.html

   Everything here is a single round-trip to the backend. Callers decide
   whether an error should be swallowed or passed up.
*/

// S3Options configures an S3Client.
type S3Options struct {
	Bucket    string
	Creds     *credentials.Credentials
	Endpoint  string
	PageSize  int
	PartSize  uint64
	Region    string
	Secure    bool
	Transport http.RoundTripper
}

type S3Client struct {
	client *minio.Client
	core   *minio.Core
	opts   S3Options
}

// HeadStatus says whether a HEAD request found the object.
type HeadStatus int

const (
	HeadFound HeadStatus = iota
	HeadNotFound
	HeadFailed
)

// HeadResult is the outcome of HeadObject. Info is set when Status is
// HeadFound, and Err is set when Status is HeadFailed.
type HeadResult struct {
	Err    error
	Info   minio.ObjectInfo
	Key    string
	Status HeadStatus
}

// ListPage is one page of a ListObjectsV2 call. Prefixes holds the
// "directories" returned when listing with a delimiter.
type ListPage struct {
	IsTruncated bool
	NextToken   string
	Objects     []minio.ObjectInfo
	Prefixes    []string
}

// NewS3Client returns a client using path-style bucket lookup.
func NewS3Client(opts S3Options) (*S3Client, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}
	if opts.PartSize == 0 {
		opts.PartSize = constants.MinPartSize
	}
	if opts.PageSize <= 0 {
		opts.PageSize = constants.DefaultListPageSize
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		BucketLookup: minio.BucketLookupPath,
		Creds:        opts.Creds,
		Region:       opts.Region,
		Secure:       opts.Secure,
		Transport:    opts.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("Could not create S3 client: %w", err)
	}
	return &S3Client{
		client: client,
		core:   &minio.Core{Client: client},
		opts:   opts,
	}, nil
}

// TraceOn writes the HTTP traffic to and from the backend to w.
func (s *S3Client) TraceOn(w io.Writer) {
	s.client.TraceOn(w)
}

// Bucket returns the name of the bucket this client works on.
func (s *S3Client) Bucket() string {
	return s.opts.Bucket
}

// EnsureBucket creates the bucket unless it already exists. If we
// can't tell whether it exists, we try to create it anyway. Errors
// from bucket creation are returned.
func (s *S3Client) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.opts.Bucket)
	if err == nil && exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.opts.Bucket, minio.MakeBucketOptions{Region: s.opts.Region})
	if err != nil {
		return fmt.Errorf("Could not create bucket %s: %w", s.opts.Bucket, err)
	}
	return nil
}

// DeleteBucket removes the bucket, ignoring all errors. It's for
// cleaning up after tests.
func (s *S3Client) DeleteBucket(ctx context.Context) {
	_ = s.client.RemoveBucket(ctx, s.opts.Bucket)
}

// HeadObject fetches the object's metadata without its body.
func (s *S3Client) HeadObject(ctx context.Context, key string) HeadResult {
	info, err := s.client.StatObject(ctx, s.opts.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if IsS3NotFound(err) {
			return HeadResult{Key: key, Status: HeadNotFound}
		}
		return HeadResult{Key: key, Status: HeadFailed, Err: err}
	}
	return HeadResult{Key: key, Status: HeadFound, Info: info}
}

// GetObject returns a reader for the object's body. The object is
// stat'ed up front so a missing key is reported here instead of on
// the first read. The caller must close the reader.
func (s *S3Client) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.opts.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err = obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

// PutObject streams reader into the bucket. The size is unknown, so
// minio sends it as a multipart upload, buffering one part at a time.
// Param progress may be nil.
func (s *S3Client) PutObject(ctx context.Context, key string, reader io.Reader, metadata map[string]string, contentType string, progress io.Reader) (minio.UploadInfo, error) {
	return s.client.PutObject(ctx, s.opts.Bucket, key, reader, -1, minio.PutObjectOptions{
		ContentType:  contentType,
		PartSize:     s.opts.PartSize,
		Progress:     progress,
		UserMetadata: metadata,
	})
}

// DeleteObject deletes the object at key.
func (s *S3Client) DeleteObject(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.opts.Bucket, key, minio.RemoveObjectOptions{})
}

// ListObjectsPage returns one page of objects under prefix, starting
// at continuation token (empty for the first page). When recursive is
// false, only the immediate children of prefix come back.
func (s *S3Client) ListObjectsPage(ctx context.Context, prefix string, recursive bool, token string) (ListPage, error) {
	delimiter := "/"
	if recursive {
		delimiter = ""
	}
	result, err := s.core.ListObjectsV2(s.opts.Bucket, prefix, "", token, delimiter, s.opts.PageSize)
	if err != nil {
		return ListPage{}, err
	}
	page := ListPage{
		IsTruncated: result.IsTruncated,
		NextToken:   result.NextContinuationToken,
		Objects:     result.Contents,
		Prefixes:    make([]string, 0, len(result.CommonPrefixes)),
	}
	for _, p := range result.CommonPrefixes {
		page.Prefixes = append(page.Prefixes, p.Prefix)
	}
	return page, nil
}

// IsS3NotFound returns true if err is a 404 from the S3 backend.
func IsS3NotFound(err error) bool {
	errResp := minio.ErrorResponse{}
	if errors.As(err, &errResp) {
		return errResp.StatusCode == http.StatusNotFound
	}
	return false
}
