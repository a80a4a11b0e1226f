package metrics

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"

	"github.com/op/go-logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storage_gateway"

// Recorder counts gateway operations. A nil *Recorder is valid and
// records nothing, so components can be built without metrics.
type Recorder struct {
	registry      *prometheus.Registry
	uploads       *prometheus.CounterVec
	uploadedBytes prometheus.Counter
	publishes     *prometheus.CounterVec
	listingErrors *prometheus.CounterVec
	deletions     *prometheus.CounterVec
}

// NewRecorder returns a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploads by result.",
		}, []string{"result"}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes written to the storage backend.",
		}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_publishes_total",
			Help:      "Import job messages published, by result.",
		}, []string{"result"}),
		listingErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_errors_total",
			Help:      "Listing failures that shortened a result, by stage.",
		}, []string{"stage"}),
		deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletions_total",
			Help:      "File deletions by result.",
		}, []string{"result"}),
	}
	r.registry.MustRegister(r.uploads, r.uploadedBytes, r.publishes, r.listingErrors, r.deletions)
	return r
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Upload records one finished upload of size bytes.
func (r *Recorder) Upload(size int64, err error) {
	if r == nil {
		return
	}
	r.uploads.WithLabelValues(result(err)).Inc()
	if err == nil && size > 0 {
		r.uploadedBytes.Add(float64(size))
	}
}

// Publish records one import job publish.
func (r *Recorder) Publish(err error) {
	if r == nil {
		return
	}
	r.publishes.WithLabelValues(result(err)).Inc()
}

// ListingError records a listing failure at stage "page" or "head".
func (r *Recorder) ListingError(stage string) {
	if r == nil {
		return
	}
	r.listingErrors.WithLabelValues(stage).Inc()
}

// Deletion records one file deletion.
func (r *Recorder) Deletion(err error) {
	if r == nil {
		return
	}
	r.deletions.WithLabelValues(result(err)).Inc()
}

// Gatherer exposes the registry, mostly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the metrics in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Summary returns one "name{labels} value" line per counter that has
// counted anything, sorted by name.
func (r *Recorder) Summary() ([]string, error) {
	if r == nil {
		return nil, nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0)
	for _, family := range families {
		for _, m := range family.GetMetric() {
			value := m.GetCounter().GetValue()
			if value == 0 {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, pair := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", pair.GetName(), pair.GetValue()))
			}
			name := family.GetName()
			if len(labels) > 0 {
				name = fmt.Sprintf("%s{%s}", name, strings.Join(labels, ","))
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, value))
		}
	}
	sort.Strings(lines)
	return lines, nil
}

// LogSummary writes Summary to the log. One-shot commands call it on
// exit, since nothing scrapes them.
func (r *Recorder) LogSummary(logger *logging.Logger) {
	lines, err := r.Summary()
	if err != nil {
		logger.Warningf("[METRICS] Cannot gather metrics: %v", err)
		return
	}
	for _, line := range lines {
		logger.Infof("[METRICS] %s", line)
	}
}

// StartServer serves Handler on /metrics at addr, plus any extra
// routes, until the returned server is shut down.
func (r *Recorder) StartServer(addr string, extra map[string]http.Handler, logger *logging.Logger) (*http.Server, net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listen: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	for pattern, handler := range extra {
		mux.Handle(pattern, handler)
	}
	srv := &http.Server{
		Handler: mux,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warningf("[METRICS] Server error: %v", err)
		}
	}()
	logger.Infof("[METRICS] Serving /metrics on %s", ln.Addr())
	return srv, ln, nil
}
