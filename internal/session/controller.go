package session

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Fikrifrds/meeting-notes/internal/audio"
	"github.com/Fikrifrds/meeting-notes/internal/meeting"
	"github.com/Fikrifrds/meeting-notes/internal/metrics"
	"github.com/Fikrifrds/meeting-notes/internal/store"
)

// State is the controller's lifecycle position.
type State int

const (
	StateIdle State = iota
	StatePreparing
	StateRecording
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreparing:
		return "preparing"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// RecognizerService extends the chunk recognizer with the readiness
// check the realtime toggle needs.
type RecognizerService interface {
	Recognizer
	Initialized() bool
}

// StartResult is the response of a successful session start.
type StartResult struct {
	Message       string `json:"message"`
	MeetingID     string `json:"meeting_id"`
	AudioFilePath string `json:"audio_file_path"`
}

// StopResult is the response of a successful session stop.
type StopResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	AudioFilePath   string `json:"audio_file_path,omitempty"`
	DurationSeconds int64  `json:"duration_seconds"`
	SampleCount     int    `json:"sample_count"`
}

// Controller owns the capture buffers and drives one meeting session
// at a time through Idle -> Preparing -> Recording -> Stopping -> Idle.
// Tasks
// receive the shared running flag and buffers; a single capture source
// failing disables that source only.
type Controller struct {
	mu             sync.Mutex
	state          State
	startTime      time.Time
	outputPath     string
	meetingID      string
	selectedMic    string
	selectedSystem string
	language       string

	running         atomic.Bool
	realtimeEnabled atomic.Bool

	micBuf    *audio.Buffer
	sysBuf    *audio.Buffer
	master    *audio.Buffer
	gains     *audio.GainControl
	chunkSize int

	backend       CaptureBackend
	store         *store.Store
	recognizer    RecognizerService
	sink          EventSink
	recordingsDir string
	logger        zerolog.Logger

	micSource Stopper
	sysSource Stopper
	done      chan struct{}
	tasks     sync.WaitGroup
}

// NewController wires a session controller. chunkSize is the realtime
// chunk threshold in samples (typically 16000*N for small N).
func NewController(backend CaptureBackend, st *store.Store, recognizer RecognizerService,
	sink EventSink, recordingsDir string, chunkSize int, gains *audio.GainControl,
	logger zerolog.Logger) *Controller {

	if sink == nil {
		sink = NopSink{}
	}
	return &Controller{
		state:         StateIdle,
		micBuf:        audio.NewBuffer(60),
		sysBuf:        audio.NewBuffer(60),
		master:        audio.NewBuffer(600),
		gains:         gains,
		chunkSize:     chunkSize,
		backend:       backend,
		store:         st,
		recognizer:    recognizer,
		sink:          sink,
		recordingsDir: recordingsDir,
		logger:        logger.With().Str("component", "session").Logger(),
	}
}

// StartRecording allocates a meeting, prepares the output file, clears
// the buffers, and starts the capture sources plus the mixer and
// realtime tasks.
func (c *Controller) StartRecording() (*StartResult, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil, meeting.ErrAlreadyRecording
	}
	c.state = StatePreparing
	micName, sysName := c.selectedMic, c.selectedSystem
	c.mu.Unlock()

	fail := func(err error) (*StartResult, error) {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		return nil, err
	}

	now := time.Now()
	m, err := c.store.Create("Meeting "+now.Format("2006-01-02 15:04:05"), nil)
	if err != nil {
		return fail(err)
	}

	// Once the row exists, an aborted start must remove it again so no
	// meeting is left pointing at a file this session never produced.
	abort := func(err error) (*StartResult, error) {
		if derr := c.store.Delete(m.ID); derr != nil {
			c.logger.Warn().Err(derr).Str("meeting_id", m.ID).Msg("could not remove meeting after failed start")
		}
		return fail(err)
	}

	if err := os.MkdirAll(c.recordingsDir, 0o755); err != nil {
		return abort(fmt.Errorf("%w: creating recordings dir: %v", meeting.ErrIO, err))
	}
	outputPath := filepath.Join(c.recordingsDir, "recording_"+m.ID+".wav")

	// The controller is the single writer of audio_file_path; it is
	// set at start so the row always names the file this session owns.
	m.AudioFilePath = &outputPath
	if err := c.store.Update(m); err != nil {
		return abort(err)
	}

	c.micBuf.Reset()
	c.sysBuf.Reset()
	c.master.Reset()
	c.running.Store(true)

	sink := c.sourceErrorSink()

	micSource, err := c.backend.StartMic(micName, &c.running, c.micBuf, sink)
	if err != nil {
		c.running.Store(false)
		return abort(fmt.Errorf("%w: microphone: %w", meeting.ErrDeviceNotFound, err))
	}

	sysSource, ok, err := c.backend.StartSystem(sysName, &c.running, c.sysBuf, sink)
	switch {
	case err != nil:
		// A broken system source never blocks the session.
		c.logger.Warn().Err(err).Msg("system audio unavailable, recording microphone only")
	case !ok:
		c.logger.Info().Msg("no system-audio device detected, recording microphone only")
	}

	c.done = make(chan struct{})

	mixer := audio.NewMixer(c.micBuf, c.sysBuf, c.master, c.gains, c.logger)
	realtime := NewRealtime(c.master, &c.realtimeEnabled, c.chunkSize,
		c.recognizer, c.sink, c.language, c.logger)

	c.tasks.Add(2)
	go func() {
		defer c.tasks.Done()
		mixer.Run(c.done)
	}()
	go func() {
		defer c.tasks.Done()
		realtime.Run(c.done)
	}()

	c.mu.Lock()
	c.state = StateRecording
	c.startTime = now.UTC()
	c.outputPath = outputPath
	c.meetingID = m.ID
	c.micSource = micSource
	c.sysSource = sysSource
	c.mu.Unlock()

	metrics.RecordSessionStart()
	c.logger.Info().Str("meeting_id", m.ID).Str("output", outputPath).Msg("recording started")

	return &StartResult{
		Message:       "Recording started: " + outputPath,
		MeetingID:     m.ID,
		AudioFilePath: outputPath,
	}, nil
}

// StopRecording drains the pipeline, serializes the master buffer to
// the session WAV, and updates the meeting row. The WAV write precedes
// the row update so a storage failure never loses audio.
func (c *Controller) StopRecording() (*StopResult, error) {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return nil, meeting.ErrNotRecording
	}
	c.state = StateStopping
	startTime := c.startTime
	outputPath := c.outputPath
	meetingID := c.meetingID
	micSource, sysSource := c.micSource, c.sysSource
	c.mu.Unlock()

	c.running.Store(false)
	if micSource != nil {
		micSource.Stop()
	}
	if sysSource != nil {
		sysSource.Stop()
	}
	close(c.done)
	c.tasks.Wait()

	duration := int64(math.Floor(time.Since(startTime).Seconds()))
	samples := c.master.All()
	metrics.RecordMixedSamples(len(samples))

	sampleCount, err := audio.WriteWAV(outputPath, samples, audio.TargetSampleRate)
	if err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		metrics.RecordSessionStop()
		return nil, err
	}

	if m, err := c.store.Get(meetingID); err == nil {
		m.DurationSeconds = &duration
		m.AudioFilePath = &outputPath
		if err := c.store.Update(m); err != nil {
			c.logger.Error().Err(err).Str("meeting_id", meetingID).Msg("meeting update failed after stop; WAV is on disk")
		}
	} else {
		c.logger.Error().Err(err).Str("meeting_id", meetingID).Msg("meeting lookup failed after stop; WAV is on disk")
	}

	c.mu.Lock()
	c.state = StateIdle
	c.micSource, c.sysSource = nil, nil
	c.mu.Unlock()

	metrics.RecordSessionStop()
	c.logger.Info().
		Str("meeting_id", meetingID).
		Int64("duration_seconds", duration).
		Int("sample_count", sampleCount).
		Msg("recording stopped")

	return &StopResult{
		Success:         true,
		Message:         fmt.Sprintf("Recording saved: %s (%ds, %d samples)", outputPath, duration, sampleCount),
		AudioFilePath:   outputPath,
		DurationSeconds: duration,
		SampleCount:     sampleCount,
	}, nil
}

// sourceErrorSink contains a failing source: log it, leave the sibling
// running.
func (c *Controller) sourceErrorSink() audio.ErrorSink {
	return func(source string, err error) {
		c.logger.Error().Err(err).Str("source", source).Msg("capture source failed; continuing with remaining sources")
	}
}

// Status returns a human-readable recording status.
func (c *Controller) Status() string {
	c.mu.Lock()
	state := c.state
	startTime := c.startTime
	output := c.outputPath
	c.mu.Unlock()

	if state != StateRecording {
		return "Not recording"
	}
	elapsed := time.Since(startTime).Round(time.Second)
	return fmt.Sprintf("Recording for %s (%d samples captured) -> %s", elapsed, c.master.Len(), output)
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetDevices selects the capture devices for the next session.
func (c *Controller) SetDevices(mic, system *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mic != nil {
		c.selectedMic = *mic
	}
	if system != nil {
		c.selectedSystem = *system
	}
}

// SelectedDevices returns the currently selected device names; empty
// means auto/default.
func (c *Controller) SelectedDevices() (mic, system string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedMic, c.selectedSystem
}

// SetLanguage selects the recognizer language hint for realtime chunks.
func (c *Controller) SetLanguage(lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.language = lang
}

// SetGains updates the mixing gains; they take effect on the next
// mixer tick.
func (c *Controller) SetGains(mic, system float32) error {
	return c.gains.Set(mic, system)
}

// Gains returns the current (mic, system) gains.
func (c *Controller) Gains() (float32, float32) {
	return c.gains.Get()
}

// EnableRealtime turns on live chunk transcription. The recognizer
// must be initialized first.
func (c *Controller) EnableRealtime() error {
	if !c.recognizer.Initialized() {
		return meeting.ErrNotInitialized
	}
	c.realtimeEnabled.Store(true)
	return nil
}

// DisableRealtime turns off live chunk transcription.
func (c *Controller) DisableRealtime() {
	c.realtimeEnabled.Store(false)
}

// RealtimeEnabled reports the realtime toggle.
func (c *Controller) RealtimeEnabled() bool {
	return c.realtimeEnabled.Load()
}
