package audio

import (
	"fmt"
	"strings"

	"github.com/gen2brain/malgo"

	"github.com/Fikrifrds/meeting-notes/internal/meeting"
)

// DeviceType classifies a device as seen by the capture pipeline.
type DeviceType string

const (
	DeviceInput    DeviceType = "input"
	DeviceOutput   DeviceType = "output"
	DeviceLoopback DeviceType = "loopback"
)

// Device describes one enumerated audio endpoint.
type Device struct {
	Name      string     `json:"name"`
	IsDefault bool       `json:"is_default"`
	Type      DeviceType `json:"device_type"`
}

// DefaultSuffix is the annotation the UI appends to default device
// names; selection strips it before matching.
const DefaultSuffix = " (Default)"

// Names (lowercased substrings) that identify virtual loopback input
// devices, in preference order, followed by output devices that expose
// the system mix and can be opened as loopback inputs.
var (
	loopbackInputHints  = []string{"blackhole", "soundflower", "loopback", "virtual"}
	loopbackOutputHints = []string{"system", "stereo mix", "what u hear", "loopback"}
)

// Manager owns the malgo context used for enumeration and capture.
// Call Close when done.
type Manager struct {
	ctx *malgo.AllocatedContext
}

// NewManager initializes the audio host context.
func NewManager() (*Manager, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing audio context: %w", err)
	}
	return &Manager{ctx: ctx}, nil
}

// Close releases the audio host context.
func (m *Manager) Close() error {
	if m.ctx != nil {
		if err := m.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninitializing audio context: %w", err)
		}
		m.ctx.Free()
		m.ctx = nil
	}
	return nil
}

// List enumerates capture and playback endpoints. Playback devices
// whose name suggests a system mix are classified as loopback.
func (m *Manager) List() (inputs, outputs []Device, err error) {
	captureInfos, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: capture: %v", meeting.ErrEnumerationFailed, err)
	}
	for _, info := range captureInfos {
		inputs = append(inputs, Device{
			Name:      info.Name(),
			IsDefault: info.IsDefault != 0,
			Type:      DeviceInput,
		})
	}

	playbackInfos, err := m.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: playback: %v", meeting.ErrEnumerationFailed, err)
	}
	for _, info := range playbackInfos {
		kind := DeviceOutput
		if nameMatchesAny(info.Name(), loopbackOutputHints) {
			kind = DeviceLoopback
		}
		outputs = append(outputs, Device{
			Name:      info.Name(),
			IsDefault: info.IsDefault != 0,
			Type:      kind,
		})
	}

	return inputs, outputs, nil
}

// findCapture resolves a capture device by name, or the host default
// when name is empty. The trailing " (Default)" annotation is stripped
// before matching. A nil info means "use the host default".
func (m *Manager) findCapture(name string) (*malgo.DeviceInfo, error) {
	if name == "" {
		return nil, nil
	}
	want := strings.TrimSuffix(name, DefaultSuffix)

	infos, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", meeting.ErrEnumerationFailed, err)
	}
	for i := range infos {
		if strings.TrimSuffix(infos[i].Name(), DefaultSuffix) == want {
			return &infos[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", meeting.ErrDeviceNotFound, name)
}

// findSystemSource locates the system-audio source. Preference order:
// a capture device with a virtual-loopback name, then a playback device
// with a system-mix name opened in loopback mode. ok is false when no
// candidate exists; the session then proceeds with the microphone only.
func (m *Manager) findSystemSource(name string) (info *malgo.DeviceInfo, kind malgo.DeviceType, ok bool, err error) {
	captureInfos, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, 0, false, fmt.Errorf("%w: capture: %v", meeting.ErrEnumerationFailed, err)
	}

	if name != "" {
		want := strings.TrimSuffix(name, DefaultSuffix)
		for i := range captureInfos {
			if strings.TrimSuffix(captureInfos[i].Name(), DefaultSuffix) == want {
				return &captureInfos[i], malgo.Capture, true, nil
			}
		}
	} else {
		for i := range captureInfos {
			if nameMatchesAny(captureInfos[i].Name(), loopbackInputHints) {
				return &captureInfos[i], malgo.Capture, true, nil
			}
		}
	}

	playbackInfos, err := m.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, 0, false, fmt.Errorf("%w: playback: %v", meeting.ErrEnumerationFailed, err)
	}
	if name != "" {
		want := strings.TrimSuffix(name, DefaultSuffix)
		for i := range playbackInfos {
			if strings.TrimSuffix(playbackInfos[i].Name(), DefaultSuffix) == want {
				return &playbackInfos[i], malgo.Loopback, true, nil
			}
		}
		return nil, 0, false, fmt.Errorf("%w: %q", meeting.ErrDeviceNotFound, name)
	}
	for i := range playbackInfos {
		if nameMatchesAny(playbackInfos[i].Name(), loopbackOutputHints) {
			return &playbackInfos[i], malgo.Loopback, true, nil
		}
	}

	return nil, 0, false, nil
}

// TestMicrophoneAccess briefly opens and starts the default capture
// device and returns a human-readable report. Failure to initialize is
// treated as a permission problem on hosts that gate microphone access.
func (m *Manager) TestMicrophoneAccess() (string, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = TargetSampleRate

	dev, err := malgo.InitDevice(m.ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(_, _ []byte, _ uint32) {},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", meeting.ErrDeviceNotFound, err)
	}
	defer dev.Uninit()

	if err := dev.Start(); err != nil {
		return "", fmt.Errorf("%w: %v", meeting.ErrPermissionDenied, err)
	}
	defer func() { _ = dev.Stop() }()

	return fmt.Sprintf("Microphone OK: %d Hz, %d channel(s), format %v",
		dev.SampleRate(), dev.CaptureChannels(), dev.CaptureFormat()), nil
}

func nameMatchesAny(name string, hints []string) bool {
	lower := strings.ToLower(name)
	for _, h := range hints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}
