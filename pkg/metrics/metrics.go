// Package metrics counts what the wizard server does and serves the counts
// in the Prometheus text exposition format.
//
// All recording methods are safe on a nil *Metrics, so components can take
// an optional collector without guarding every call.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Submission outcomes.
const (
	SubmitOK      = "ok"
	SubmitInvalid = "invalid"
	SubmitFailed  = "failed"
)

// Metrics holds the wizard server's metrics.
type Metrics struct {
	namespace string

	SessionsActive *Gauge
	SessionsTotal  *Counter

	Events      *CounterVec
	Submissions *CounterVec
	DraftsSaved *Counter

	FilesUploaded *Counter
	UploadBytes   *Histogram

	RenderDuration *Histogram
}

// New creates a collector whose metric names start with namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		namespace: namespace,

		SessionsActive: NewGauge("sessions_active", "Live wizard sessions currently mounted"),
		SessionsTotal:  NewCounter("sessions_total", "Live wizard sessions mounted"),

		Events:      NewCounterVec("events_total", "Client events handled", "event"),
		Submissions: NewCounterVec("submissions_total", "Submit attempts by outcome", "result"),
		DraftsSaved: NewCounter("drafts_saved_total", "Drafts written to the store"),

		FilesUploaded: NewCounter("files_uploaded_total", "Files accepted from the drop zone"),
		UploadBytes:   NewHistogram("upload_batch_bytes", "Bytes per upload batch"),

		RenderDuration: NewHistogram("render_duration_seconds", "Wizard render duration"),
	}
}

// SessionOpened records a mounted session.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
	m.SessionsTotal.Inc()
}

// SessionClosed records a terminated session.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

// Event counts a handled client event.
func (m *Metrics) Event(name string) {
	if m == nil {
		return
	}
	m.Events.Inc(name)
}

// Submission counts a submit attempt with one of the Submit* outcomes.
func (m *Metrics) Submission(result string) {
	if m == nil {
		return
	}
	m.Submissions.Inc(result)
}

// DraftSaved counts a successful draft write.
func (m *Metrics) DraftSaved() {
	if m == nil {
		return
	}
	m.DraftsSaved.Inc()
}

// FilesReceived records one upload batch.
func (m *Metrics) FilesReceived(files int, bytes int64) {
	if m == nil || files == 0 {
		return
	}
	m.FilesUploaded.Add(int64(files))
	m.UploadBytes.Observe(float64(bytes))
}

// ObserveRender records one render.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.RenderDuration.ObserveDuration(d)
}

// Handler serves the metrics.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		m.WriteTo(w)
	})
}

// WriteTo writes every metric in exposition format. Labelled series are
// sorted so output is stable.
func (m *Metrics) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	m.writeScalar(cw, m.SessionsActive.name, m.SessionsActive.help, "gauge", m.SessionsActive.Value())
	m.writeScalar(cw, m.SessionsTotal.name, m.SessionsTotal.help, "counter", m.SessionsTotal.Value())
	m.writeVec(cw, m.Events)
	m.writeVec(cw, m.Submissions)
	m.writeScalar(cw, m.DraftsSaved.name, m.DraftsSaved.help, "counter", m.DraftsSaved.Value())
	m.writeScalar(cw, m.FilesUploaded.name, m.FilesUploaded.help, "counter", m.FilesUploaded.Value())
	m.writeHistogram(cw, m.UploadBytes)
	m.writeHistogram(cw, m.RenderDuration)

	return cw.n, cw.err
}

func (m *Metrics) fullName(name string) string {
	if m.namespace == "" {
		return name
	}
	return m.namespace + "_" + name
}

func (m *Metrics) writeScalar(w io.Writer, name, help, typ string, value float64) {
	name = m.fullName(name)
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %g\n", name, help, name, typ, name, value)
}

func (m *Metrics) writeVec(w io.Writer, cv *CounterVec) {
	name := m.fullName(cv.name)
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n", name, cv.help, name)

	values := cv.Values()
	labels := make([]string, 0, len(values))
	for l := range values {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		fmt.Fprintf(w, "%s{%s=%q} %g\n", name, cv.label, l, values[l])
	}
}

func (m *Metrics) writeHistogram(w io.Writer, h *Histogram) {
	name := m.fullName(h.name)
	stats := h.Stats()
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s summary\n", name, h.help, name)
	fmt.Fprintf(w, "%s_sum %g\n%s_count %d\n", name, stats.Sum, name, stats.Count)
	if stats.Count > 0 {
		fmt.Fprintf(w, "%s_min %g\n%s_max %g\n", name, stats.Min, name, stats.Max)
	}
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name  string
	help  string
	value atomic.Int64
}

// NewCounter creates a new counter.
func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add adds delta, which must not be negative.
func (c *Counter) Add(delta int64) {
	if delta < 0 {
		return
	}
	c.value.Add(delta)
}

// Value returns the current counter value.
func (c *Counter) Value() float64 {
	return float64(c.value.Load())
}

// Gauge is a value that can go up and down.
type Gauge struct {
	name  string
	help  string
	value atomic.Int64
}

// NewGauge creates a new gauge.
func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

func (g *Gauge) Set(value int64) { g.value.Store(value) }
func (g *Gauge) Inc()            { g.value.Add(1) }
func (g *Gauge) Dec()            { g.value.Add(-1) }

// Value returns the current gauge value.
func (g *Gauge) Value() float64 {
	return float64(g.value.Load())
}

// CounterVec is a counter with one label.
type CounterVec struct {
	name   string
	help   string
	label  string
	values map[string]*Counter
	mu     sync.RWMutex
}

// NewCounterVec creates a counter vector keyed by label.
func NewCounterVec(name, help, label string) *CounterVec {
	return &CounterVec{
		name:   name,
		help:   help,
		label:  label,
		values: make(map[string]*Counter),
	}
}

// WithLabel returns the counter for the given label value.
func (cv *CounterVec) WithLabel(value string) *Counter {
	cv.mu.RLock()
	c, ok := cv.values[value]
	cv.mu.RUnlock()
	if ok {
		return c
	}

	cv.mu.Lock()
	defer cv.mu.Unlock()
	if c, ok := cv.values[value]; ok {
		return c
	}
	c = NewCounter(cv.name, cv.help)
	cv.values[value] = c
	return c
}

// Inc increments the counter for the given label.
func (cv *CounterVec) Inc(label string) {
	cv.WithLabel(label).Inc()
}

// Values returns all counter values by label.
func (cv *CounterVec) Values() map[string]float64 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	result := make(map[string]float64, len(cv.values))
	for label, counter := range cv.values {
		result[label] = counter.Value()
	}
	return result
}

// Histogram keeps running statistics of observed values.
type Histogram struct {
	name  string
	help  string
	sum   float64
	count int64
	min   float64
	max   float64
	mu    sync.Mutex
}

// NewHistogram creates a new histogram.
func NewHistogram(name, help string) *Histogram {
	return &Histogram{name: name, help: help}
}

// Observe records a value.
func (h *Histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 || value < h.min {
		h.min = value
	}
	if h.count == 0 || value > h.max {
		h.max = value
	}
	h.sum += value
	h.count++
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(d time.Duration) {
	h.Observe(d.Seconds())
}

// Stats returns histogram statistics.
func (h *Histogram) Stats() HistogramStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := HistogramStats{
		Count: h.count,
		Sum:   h.sum,
		Min:   h.min,
		Max:   h.max,
	}
	if h.count > 0 {
		stats.Avg = h.sum / float64(h.count)
	}
	return stats
}

// HistogramStats contains histogram statistics.
type HistogramStats struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Avg   float64
}
