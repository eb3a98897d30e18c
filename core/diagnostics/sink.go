package diagnostics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Sink receives reconciliation reports. Reporting is fire-and-forget.
type Sink interface {
	Report(success bool, tag, message string)
}

// ZapSink writes reports to a zap logger.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a sink backed by the given logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

// Report logs successes at info level and failures at error level.
func (s *ZapSink) Report(success bool, tag, message string) {
	fields := []zap.Field{zap.String("tag", tag), zap.Bool("success", success)}
	if success {
		s.logger.Info(message, fields...)
		return
	}
	s.logger.Error(message, fields...)
}

// MetricsSink counts reports per tag and outcome.
type MetricsSink struct {
	counter metric.Int64Counter
}

// NewMetricsSink registers the reconcile.reports counter on the meter.
func NewMetricsSink(meter metric.Meter) (*MetricsSink, error) {
	counter, err := meter.Int64Counter(
		"reconcile.reports",
		metric.WithDescription("Reconciliation reports by tag and outcome"),
		metric.WithUnit("{report}"),
	)
	if err != nil {
		return nil, err
	}
	return &MetricsSink{counter: counter}, nil
}

// Report increments the counter.
func (s *MetricsSink) Report(success bool, tag, _ string) {
	s.counter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("tag", tag),
		attribute.Bool("success", success),
	))
}

// Entry is one report kept by a Recorder.
type Entry struct {
	Success bool      `json:"success"`
	Tag     string    `json:"tag"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Recorder keeps reports in memory. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Report appends the report.
func (r *Recorder) Report(success bool, tag, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Success: success, Tag: tag, Message: message, At: time.Now()})
}

// Entries returns a copy of the recorded reports in arrival order.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Failures returns the recorded reports with success false.
func (r *Recorder) Failures() []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if !e.Success {
			out = append(out, e)
		}
	}
	return out
}

// Multi fans reports out to every non-nil sink.
type Multi []Sink

// Report forwards the report to each sink in order.
func (m Multi) Report(success bool, tag, message string) {
	for _, s := range m {
		if s != nil {
			s.Report(success, tag, message)
		}
	}
}

// Nop discards reports.
type Nop struct{}

// Report implements Sink.
func (Nop) Report(bool, string, string) {}
