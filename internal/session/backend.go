package session

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Fikrifrds/meeting-notes/internal/audio"
)

// Stopper tears down one running capture source.
type Stopper interface {
	Stop()
}

// CaptureBackend abstracts device capture so the controller can be
// exercised with synthetic sources in tests. The production backend
// wraps the malgo device manager.
type CaptureBackend interface {
	// StartMic opens the named microphone (default when empty) and
	// produces into buf until the running flag clears.
	StartMic(name string, running *atomic.Bool, buf *audio.Buffer, sink audio.ErrorSink) (Stopper, error)

	// StartSystem opens the system-audio source by name or
	// auto-detection. ok is false when no system source is available.
	StartSystem(name string, running *atomic.Bool, buf *audio.Buffer, sink audio.ErrorSink) (Stopper, bool, error)
}

type deviceBackend struct {
	manager *audio.Manager
	logger  zerolog.Logger
}

// NewDeviceBackend returns the malgo-backed capture backend.
func NewDeviceBackend(manager *audio.Manager, logger zerolog.Logger) CaptureBackend {
	return &deviceBackend{manager: manager, logger: logger}
}

func (b *deviceBackend) StartMic(name string, running *atomic.Bool, buf *audio.Buffer, sink audio.ErrorSink) (Stopper, error) {
	src, err := b.manager.StartMicSource(name, running, buf, sink, b.logger)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func (b *deviceBackend) StartSystem(name string, running *atomic.Bool, buf *audio.Buffer, sink audio.ErrorSink) (Stopper, bool, error) {
	src, ok, err := b.manager.StartSystemSource(name, running, buf, sink, b.logger)
	if err != nil || !ok {
		return nil, ok, err
	}
	return src, true, nil
}
