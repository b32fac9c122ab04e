package meeting

import "errors"

// Error taxonomy returned across the command surface. Internal errors are
// wrapped with %w onto one of these sentinels so handlers can classify
// them with errors.Is.
var (
	ErrAlreadyRecording        = errors.New("already recording")
	ErrNotRecording            = errors.New("not currently recording")
	ErrDeviceNotFound          = errors.New("audio device not found")
	ErrPermissionDenied        = errors.New("audio permission denied")
	ErrEnumerationFailed       = errors.New("device enumeration failed")
	ErrUnsupportedSampleFormat = errors.New("unsupported sample format")
	ErrConfigUnavailable       = errors.New("device configuration unavailable")
	ErrModelMissing            = errors.New("whisper model not found")
	ErrNotInitialized          = errors.New("whisper not initialized")
	ErrFileMissing             = errors.New("file not found")
	ErrDecodeFailed            = errors.New("audio decode failed")
	ErrTranscribeFailed        = errors.New("transcription failed")
	ErrWavWriteFailed          = errors.New("wav write failed")
	ErrIO                      = errors.New("io error")
	ErrStorage                 = errors.New("storage error")
	ErrNotFound                = errors.New("not found")
	ErrOutOfRange              = errors.New("value out of range")
	ErrProviderFailure         = errors.New("ai provider failure")
	ErrEnvMissing              = errors.New("required environment variable missing")
	ErrUnsupportedFormat       = errors.New("unsupported export format")
)

// ErrorCode returns the canonical tag for err, or "Internal" when the
// error does not map onto the taxonomy.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyRecording):
		return "AlreadyRecording"
	case errors.Is(err, ErrNotRecording):
		return "NotRecording"
	case errors.Is(err, ErrDeviceNotFound):
		return "DeviceNotFound"
	case errors.Is(err, ErrPermissionDenied):
		return "PermissionDenied"
	case errors.Is(err, ErrEnumerationFailed):
		return "EnumerationFailed"
	case errors.Is(err, ErrUnsupportedSampleFormat):
		return "UnsupportedSampleFormat"
	case errors.Is(err, ErrConfigUnavailable):
		return "ConfigUnavailable"
	case errors.Is(err, ErrModelMissing):
		return "ModelMissing"
	case errors.Is(err, ErrNotInitialized):
		return "NotInitialized"
	case errors.Is(err, ErrFileMissing):
		return "FileMissing"
	case errors.Is(err, ErrDecodeFailed):
		return "DecodeError"
	case errors.Is(err, ErrTranscribeFailed):
		return "TranscribeFailed"
	case errors.Is(err, ErrWavWriteFailed):
		return "WavWriteFailed"
	case errors.Is(err, ErrIO):
		return "IOError"
	case errors.Is(err, ErrStorage):
		return "StorageError"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrOutOfRange):
		return "OutOfRange"
	case errors.Is(err, ErrProviderFailure):
		return "ProviderFailure"
	case errors.Is(err, ErrEnvMissing):
		return "EnvMissing"
	case errors.Is(err, ErrUnsupportedFormat):
		return "UnsupportedFormat"
	default:
		return "Internal"
	}
}
