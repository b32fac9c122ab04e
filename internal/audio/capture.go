package audio

import (
	"fmt"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"

	"github.com/Fikrifrds/meeting-notes/internal/meeting"
)

// ErrorSink receives stream errors from a capture source. A failing
// source reports and goes quiet; it never stops the sibling source.
type ErrorSink func(source string, err error)

// CaptureSource owns one device stream and publishes normalized 16 kHz
// mono samples into a shared buffer. The producer callback runs on a
// device-owned thread and must never block: conversion, downmix, and
// resample are bounded work, and the buffer append drops samples when
// the lock is contended.
type CaptureSource struct {
	label  string
	dev    *malgo.Device
	logger zerolog.Logger

	rate     uint32
	channels uint32
	format   malgo.FormatType

	dropped atomic.Uint64
}

// StartCapture negotiates the device's native configuration, validates
// the sample format, and starts the producer. info selects the device
// (nil means host default); kind is malgo.Capture for real inputs or
// malgo.Loopback for system audio via a playback endpoint.
func StartCapture(m *Manager, label string, info *malgo.DeviceInfo, kind malgo.DeviceType,
	running *atomic.Bool, buf *Buffer, sink ErrorSink, logger zerolog.Logger) (*CaptureSource, error) {

	cfg := malgo.DefaultDeviceConfig(kind)
	// Leave format, channels, and rate at zero so the host supplies the
	// device's native configuration; conversion happens in the callback.
	cfg.Capture.Format = malgo.FormatUnknown
	cfg.Capture.Channels = 0
	cfg.SampleRate = 0
	if info != nil {
		cfg.Capture.DeviceID = info.ID.Pointer()
	}

	s := &CaptureSource{label: label, logger: logger.With().Str("source", label).Logger()}

	onData := func(_, data []byte, frameCount uint32) {
		if !running.Load() {
			return
		}

		sampleCount := frameCount * s.channels

		var samples []float32
		switch s.format {
		case malgo.FormatS16:
			samples = Int16ToFloat32(bytesToInt16(data, sampleCount))
		case malgo.FormatF32:
			samples = bytesToFloat32(data, sampleCount)
		default:
			return // rejected at start
		}

		mono, err := ToMono(samples, int(s.channels))
		if err != nil {
			return
		}
		if s.rate != TargetSampleRate {
			mono = ResampleLinear(mono, int(s.rate), TargetSampleRate)
		}

		if !buf.TryAppend(mono) {
			n := s.dropped.Add(uint64(len(mono)))
			s.logger.Warn().Uint64("dropped_total", n).Msg("buffer contended, samples dropped")
		}
	}

	onStop := func() {
		if running.Load() {
			sink(label, fmt.Errorf("capture stream stopped unexpectedly"))
		}
	}

	dev, err := malgo.InitDevice(m.ctx.Context, cfg, malgo.DeviceCallbacks{Data: onData, Stop: onStop})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", meeting.ErrConfigUnavailable, label, err)
	}

	s.dev = dev
	s.rate = dev.SampleRate()
	s.channels = dev.CaptureChannels()
	s.format = dev.CaptureFormat()

	switch s.format {
	case malgo.FormatS16, malgo.FormatF32:
	default:
		dev.Uninit()
		return nil, fmt.Errorf("%w: %s: native format %v", meeting.ErrUnsupportedSampleFormat, label, s.format)
	}

	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, fmt.Errorf("starting %s capture: %w", label, err)
	}

	s.logger.Info().
		Uint32("native_rate", s.rate).
		Uint32("native_channels", s.channels).
		Msg("capture started")

	return s, nil
}

// StartMicSource opens the named microphone (host default when empty)
// and starts producing into buf.
func (m *Manager) StartMicSource(name string, running *atomic.Bool, buf *Buffer,
	sink ErrorSink, logger zerolog.Logger) (*CaptureSource, error) {

	info, err := m.findCapture(name)
	if err != nil {
		return nil, err
	}
	return StartCapture(m, "microphone", info, malgo.Capture, running, buf, sink, logger)
}

// StartSystemSource opens the system-audio source by name or by
// auto-detection. ok is false when no system source exists; the caller
// proceeds with the microphone only.
func (m *Manager) StartSystemSource(name string, running *atomic.Bool, buf *Buffer,
	sink ErrorSink, logger zerolog.Logger) (*CaptureSource, bool, error) {

	info, kind, ok, err := m.findSystemSource(name)
	if err != nil || !ok {
		return nil, false, err
	}

	src, err := StartCapture(m, "system", info, kind, running, buf, sink, logger)
	if err != nil {
		return nil, false, err
	}
	return src, true, nil
}

// Stop tears the device down. The producer goes quiet beforehand via
// the shared running flag.
func (s *CaptureSource) Stop() {
	if s.dev != nil {
		s.dev.Uninit()
		s.dev = nil
	}
	s.logger.Info().Uint64("dropped_samples", s.dropped.Load()).Msg("capture stopped")
}
