package logger

import (
	"strings"

	"github.com/op/go-logging"
)

// Tracer writes minio's HTTP trace output to the debug log.
type Tracer struct {
	logger *logging.Logger
}

func NewTracer(logger *logging.Logger) *Tracer {
	return &Tracer{logger: logger}
}

func (t *Tracer) Write(p []byte) (n int, err error) {
	if msg := strings.TrimRight(string(p), "\r\n"); msg != "" {
		t.logger.Debug(msg)
	}
	return len(p), nil
}
