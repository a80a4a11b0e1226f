package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
)

const GatewayBucket = "gateway-test"

// S3Server is an in-memory S3 endpoint for tests.
type S3Server struct {
	backend *s3mem.Backend
	server  *httptest.Server
	URL     string
}

func NewS3Server() *S3Server {
	backend := s3mem.New()
	faker := gofakes3.New(backend)
	server := httptest.NewServer(faker.Server())
	return &S3Server{
		backend: backend,
		server:  server,
		URL:     server.URL,
	}
}

// Endpoint returns host:port, the form the S3 client expects.
func (s *S3Server) Endpoint() string {
	return strings.TrimPrefix(s.URL, "http://")
}

// CreateBucket creates the named bucket, ignoring the error
// if it already exists.
func (s *S3Server) CreateBucket(name string) {
	_ = s.backend.CreateBucket(name)
}

func (s *S3Server) Close() {
	s.server.Close()
}

// RequestCounter is an http.RoundTripper that counts requests
// by method before passing them on.
type RequestCounter struct {
	mu     sync.Mutex
	counts map[string]int
	next   http.RoundTripper
}

func NewRequestCounter() *RequestCounter {
	return &RequestCounter{
		counts: make(map[string]int),
		next:   http.DefaultTransport,
	}
}

func (c *RequestCounter) RoundTrip(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.counts[req.Method]++
	c.mu.Unlock()
	return c.next.RoundTrip(req)
}

// Count returns the number of requests seen with the given method.
func (c *RequestCounter) Count(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[method]
}
