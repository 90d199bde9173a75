// Package metrics exposes capture and replay counters through a Prometheus
// registry owned by ChronoGL.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// DefaultRegistry holds every ChronoGL collector
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		ChunksRecorded, PayloadBytes, UnsupportedCalls, CaptureFailures,
		FramesCaptured, ChunksReplayed, ReplayFailures,
	)
}

// ChunksRecorded counts chunks appended, by destination log and opcode
var ChunksRecorded = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chronogl_chunks_recorded_total",
		Help: "Chunks appended to a capture log",
	},
	[]string{"log", "opcode"}, // record | frame
)

// PayloadBytes counts captured payload bytes
var PayloadBytes = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "chronogl_payload_bytes_total",
		Help: "Payload bytes captured",
	},
)

// UnsupportedCalls counts forwarded calls that produced no chunk
var UnsupportedCalls = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chronogl_unsupported_calls_total",
		Help: "Calls forwarded without recording",
	},
	[]string{"entry_point"},
)

// CaptureFailures counts calls whose chunk could not be recorded
var CaptureFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chronogl_capture_failures_total",
		Help: "Calls whose recording was aborted",
	},
	[]string{"opcode"},
)

// FramesCaptured counts frames by outcome
var FramesCaptured = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chronogl_frames_total",
		Help: "Active captures by outcome",
	},
	[]string{"status"}, // completed | aborted
)

// ChunksReplayed counts chunks reissued, by pass
var ChunksReplayed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chronogl_chunks_replayed_total",
		Help: "Chunks reissued during replay",
	},
	[]string{"pass"}, // records | frame
)

// ReplayFailures counts aborted replays by violation kind
var ReplayFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chronogl_replay_failures_total",
		Help: "Replays aborted by an invariant violation",
	},
	[]string{"kind"},
)

// WritePrometheus writes the registry in Prometheus text format to w
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
