// Package session orchestrates a meeting lifecycle: capture sources,
// the mixer, the realtime transcriber, and WAV finalization.
package session

// EventRealtimeTranscript carries interim transcript text to the UI
// host. The stream is best-effort live feedback; the authoritative
// record is the post-stop whole-file transcription.
const EventRealtimeTranscript = "realtime-transcript"

// EventSink receives asynchronous events for the UI host. The
// controller holds only this interface, never the host itself.
type EventSink interface {
	Emit(event string, payload string)
}

// NopSink discards events; used when no UI host is attached.
type NopSink struct{}

func (NopSink) Emit(string, string) {}
