package metrics

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram("test_ms", "test", []float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("count = %d, want 3", snap.count)
	}

	var buf bytes.Buffer
	writeHistogram(&buf, "test_ms", "test", snap)
	out := buf.String()

	for _, want := range []string{
		`test_ms_bucket{le="10"} 1`,
		`test_ms_bucket{le="100"} 2`,
		`test_ms_bucket{le="+Inf"} 3`,
		"test_ms_sum 555",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderIncludesCounters(t *testing.T) {
	IncAnalysisStarted()
	IncChatFailed()
	ObserveChatDuration(1500 * time.Millisecond)

	out := Render()
	for _, name := range []string{"analysis_started_total", "chat_failed_total", "documents_uploaded_total", "chat_duration_ms_count"} {
		if !strings.Contains(out, name) {
			t.Fatalf("missing %s", name)
		}
	}
}
