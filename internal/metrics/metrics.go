// Package metrics exposes Prometheus instrumentation for the capture
// pipeline and the command surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meeting_notes_sessions_started_total",
		Help: "Total recording sessions started",
	})

	sessionsStopped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meeting_notes_sessions_stopped_total",
		Help: "Total recording sessions stopped",
	})

	recordingActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meeting_notes_recording_active",
		Help: "Whether a recording session is active (0 or 1)",
	})

	mixedSamples = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meeting_notes_mixed_samples_total",
		Help: "Total samples appended to the master buffer",
	})

	realtimeChunks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meeting_notes_realtime_chunks_total",
		Help: "Realtime transcription chunks dispatched",
	}, []string{"status"})

	recognizerLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meeting_notes_recognizer_latency_seconds",
		Help:    "Recognizer invocation latency in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	commandRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meeting_notes_command_requests_total",
		Help: "Command surface requests by command and status",
	}, []string{"command", "status"})
)

func RecordSessionStart() {
	sessionsStarted.Inc()
	recordingActive.Set(1)
}

func RecordSessionStop() {
	sessionsStopped.Inc()
	recordingActive.Set(0)
}

func RecordMixedSamples(n int) {
	mixedSamples.Add(float64(n))
}

func RecordRealtimeChunk(ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	realtimeChunks.WithLabelValues(status).Inc()
}

func RecordRecognizerLatency(seconds float64) {
	recognizerLatency.Observe(seconds)
}

func RecordCommand(command string, statusCode int) {
	status := "ok"
	if statusCode >= 400 {
		status = "error"
	}
	commandRequests.WithLabelValues(command, status).Inc()
}
