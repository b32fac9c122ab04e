package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Fikrifrds/meeting-notes/internal/meeting"
)

// MixInterval is the mixer's tick period. Low enough to keep latency
// well under the realtime transcription cadence, large enough to
// amortize locking.
const MixInterval = 100 * time.Millisecond

// GainControl guards the per-source gains. Gains may change while a
// session is recording; the mixer reads them each tick.
type GainControl struct {
	mu     sync.Mutex
	mic    float32
	system float32
}

// NewGainControl returns gains clamped-checked at construction.
func NewGainControl(mic, system float32) *GainControl {
	g := &GainControl{mic: 1, system: 1}
	_ = g.Set(mic, system)
	return g
}

// Set updates both gains. Values outside [0.0, 10.0] are rejected.
func (g *GainControl) Set(mic, system float32) error {
	if mic < 0 || mic > 10 || system < 0 || system > 10 {
		return fmt.Errorf("%w: gains must be within [0.0, 10.0], got mic=%g system=%g",
			meeting.ErrOutOfRange, mic, system)
	}
	g.mu.Lock()
	g.mic, g.system = mic, system
	g.mu.Unlock()
	return nil
}

// Get returns the current (mic, system) gains.
func (g *GainControl) Get() (float32, float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mic, g.system
}

// Mixer periodically drains new samples from both source buffers and
// appends the soft-clipped mix to the master buffer. Alignment between
// the sources is best-effort in sample-index space; each producer runs
// at its own device clock and minor drift is accepted.
type Mixer struct {
	mic    *Buffer
	system *Buffer
	master *Buffer
	gains  *GainControl
	logger zerolog.Logger

	lastMic    int
	lastSystem int
}

// NewMixer wires a mixer over the session's buffers.
func NewMixer(mic, system, master *Buffer, gains *GainControl, logger zerolog.Logger) *Mixer {
	return &Mixer{
		mic:    mic,
		system: system,
		master: master,
		gains:  gains,
		logger: logger.With().Str("task", "mixer").Logger(),
	}
}

// Run ticks until done is closed, then performs one final drain so no
// captured samples are lost at session stop.
func (m *Mixer) Run(done <-chan struct{}) {
	ticker := time.NewTicker(MixInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			m.Tick()
			m.logger.Debug().Int("mixed_samples", m.master.Len()).Msg("mixer drained")
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// Tick drains whatever both sources produced since the previous tick
// and appends the mixed result to the master buffer.
func (m *Mixer) Tick() {
	newMic := m.mic.CopyFrom(m.lastMic)
	newSystem := m.system.CopyFrom(m.lastSystem)
	m.lastMic += len(newMic)
	m.lastSystem += len(newSystem)

	if len(newMic) == 0 && len(newSystem) == 0 {
		return
	}

	micGain, systemGain := m.gains.Get()
	m.master.Append(MixSoft(newMic, newSystem, micGain, systemGain))
}
