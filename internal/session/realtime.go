package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Fikrifrds/meeting-notes/internal/audio"
	"github.com/Fikrifrds/meeting-notes/internal/metrics"
)

// RealtimeInterval is the cadence at which the live transcriber checks
// the master buffer for a full chunk.
const RealtimeInterval = 5 * time.Second

// Recognizer is the narrow speech-to-text interface the realtime task
// depends on.
type Recognizer interface {
	Transcribe(samples []float32, language string) (string, error)
}

// Realtime watches the master buffer and, once a chunk's worth of new
// samples exists, dispatches it to the recognizer on its own goroutine
// and emits the text as a UI event. The cursor advances even when
// recognition fails so one bad chunk never blocks the stream; chunk
// completions may arrive out of order.
type Realtime struct {
	master     *audio.Buffer
	enabled    *atomic.Bool
	chunkSize  int
	recognizer Recognizer
	sink       EventSink
	language   string
	logger     zerolog.Logger

	lastProcessed int
	workers       sync.WaitGroup
}

// NewRealtime wires a realtime transcriber over the master buffer.
func NewRealtime(master *audio.Buffer, enabled *atomic.Bool, chunkSize int,
	recognizer Recognizer, sink EventSink, language string, logger zerolog.Logger) *Realtime {
	return &Realtime{
		master:     master,
		enabled:    enabled,
		chunkSize:  chunkSize,
		recognizer: recognizer,
		sink:       sink,
		language:   language,
		logger:     logger.With().Str("task", "realtime").Logger(),
	}
}

// Run ticks until done is closed, then waits for in-flight chunk
// workers to finish.
func (r *Realtime) Run(done <-chan struct{}) {
	ticker := time.NewTicker(RealtimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			r.workers.Wait()
			return
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Tick extracts every complete pending chunk in index order. Chunks are
// copied out under the buffer lock; the recognizer runs off-tick on a
// worker goroutine so capture and mixing never wait on inference.
func (r *Realtime) Tick() {
	if !r.enabled.Load() {
		return
	}

	for r.master.Len()-r.lastProcessed >= r.chunkSize {
		start := r.lastProcessed
		chunk := r.master.CopyRange(start, start+r.chunkSize)
		r.lastProcessed += r.chunkSize
		if chunk == nil {
			return
		}

		r.workers.Add(1)
		go func(chunk []float32, start int) {
			defer r.workers.Done()

			began := time.Now()
			text, err := r.recognizer.Transcribe(chunk, r.language)
			metrics.RecordRecognizerLatency(time.Since(began).Seconds())

			if err != nil {
				metrics.RecordRealtimeChunk(false)
				r.logger.Warn().Err(err).Int("chunk_start", start).Msg("chunk transcription failed")
				return
			}

			metrics.RecordRealtimeChunk(true)
			if text != "" {
				r.sink.Emit(EventRealtimeTranscript, text)
			}
		}(chunk, start)
	}
}

// Cursor returns the index of the next unprocessed master sample.
func (r *Realtime) Cursor() int {
	return r.lastProcessed
}
