// Package metrics keeps process-wide counters and histograms and renders
// them in the Prometheus text exposition format.
package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

type counter struct {
	name  string
	help  string
	value atomic.Uint64
}

var (
	analysisStarted   = &counter{name: "analysis_started_total", help: "Total analyses started"}
	analysisCompleted = &counter{name: "analysis_completed_total", help: "Total analyses completed"}
	analysisFailed    = &counter{name: "analysis_failed_total", help: "Total analyses failed"}
	chatCompleted     = &counter{name: "chat_exchanges_total", help: "Total chat exchanges completed"}
	chatFailed        = &counter{name: "chat_failed_total", help: "Total chat exchanges failed"}
	documentsUploaded = &counter{name: "documents_uploaded_total", help: "Total documents created"}

	counters = []*counter{analysisStarted, analysisCompleted, analysisFailed, chatCompleted, chatFailed, documentsUploaded}

	completionBuckets = []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000}
	analysisDuration  = newHistogram("analysis_duration_ms", "Analysis duration in milliseconds", completionBuckets)
	chatDuration      = newHistogram("chat_duration_ms", "Chat exchange duration in milliseconds", completionBuckets)
)

func IncAnalysisStarted()   { analysisStarted.value.Add(1) }
func IncAnalysisCompleted() { analysisCompleted.value.Add(1) }
func IncAnalysisFailed()    { analysisFailed.value.Add(1) }
func IncChatCompleted()     { chatCompleted.value.Add(1) }
func IncChatFailed()        { chatFailed.value.Add(1) }
func IncDocumentsUploaded() { documentsUploaded.value.Add(1) }

// ObserveAnalysisDuration records how long one analysis took.
func ObserveAnalysisDuration(d time.Duration) {
	analysisDuration.Observe(millis(d))
}

// ObserveChatDuration records how long one chat exchange took.
func ObserveChatDuration(d time.Duration) {
	chatDuration.Observe(millis(d))
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	for _, c := range counters {
		writeCounter(&buf, c.name, c.help, c.value.Load())
	}
	for _, h := range []*histogram{analysisDuration, chatDuration} {
		writeHistogram(&buf, h.name, h.help, h.Snapshot())
	}
	return buf.String()
}

func millis(d time.Duration) float64 {
	v := float64(d) / float64(time.Millisecond)
	if v < 0 {
		return 0
	}
	return v
}

type histogram struct {
	name    string
	help    string
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(name, help string, buckets []float64) *histogram {
	return &histogram{
		name:    name,
		help:    help,
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe adds value to the first bucket whose bound holds it; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
