package audio

import (
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Fikrifrds/meeting-notes/internal/meeting"
)

// QualityInfo summarizes a WAV file for the UI.
type QualityInfo struct {
	SampleRate      int     `json:"sample_rate"`
	Channels        int     `json:"channels"`
	BitsPerSample   int     `json:"bits_per_sample"`
	DurationSeconds float64 `json:"duration_seconds"`
	FileSizeBytes   int64   `json:"file_size_bytes"`
	BitrateKbps     float64 `json:"bitrate_kbps"`
}

// QuantizeSample maps a normalized float32 sample to signed 16-bit,
// saturating outside [-1, 1].
func QuantizeSample(s float32) int {
	if s > 1 {
		s = 1
	}
	if s < -1 {
		s = -1
	}
	return int(math.Floor(float64(s) * math.MaxInt16))
}

// WriteWAV serializes samples to path as mono 16-bit signed PCM at the
// given rate and returns the sample count written.
func WriteWAV(path string, samples []float32, sampleRate int) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("%w: creating %s: %v", meeting.ErrWavWriteFailed, path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = QuantizeSample(s)
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return 0, fmt.Errorf("%w: writing %s: %v", meeting.ErrWavWriteFailed, path, err)
	}
	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("%w: finalizing %s: %v", meeting.ErrWavWriteFailed, path, err)
	}

	return len(samples), nil
}

// ReadWAV decodes a WAV file into normalized float32 samples, downmixed
// to mono and resampled to the target rate when needed.
func ReadWAV(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("%w: %s", meeting.ErrFileMissing, path)
		}
		return nil, 0, fmt.Errorf("%w: opening %s: %v", meeting.ErrIO, path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: %s is not a valid WAV file", meeting.ErrDecodeFailed, path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: decoding %s: %v", meeting.ErrDecodeFailed, path, err)
	}

	channels := buf.Format.NumChannels
	rate := buf.Format.SampleRate

	// Decoded ints are at the file's source depth, so the normalization
	// divisor must follow it or deep files blow past [-1, 1].
	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	if depth < 8 || depth > 32 {
		return nil, 0, fmt.Errorf("%w: %s has unsupported bit depth %d", meeting.ErrDecodeFailed, path, depth)
	}
	scale := float32(int64(1) << (depth - 1))

	samples := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float32(s) / scale
	}

	mono, err := ToMono(samples, channels)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", meeting.ErrDecodeFailed, path, err)
	}
	if rate != TargetSampleRate {
		mono = ResampleLinear(mono, rate, TargetSampleRate)
	}

	return mono, rate, nil
}

// ReadQualityInfo inspects a WAV file's format without decoding the
// entire audio payload.
func ReadQualityInfo(path string) (*QualityInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", meeting.ErrFileMissing, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", meeting.ErrIO, path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if dec.SampleRate == 0 {
		return nil, fmt.Errorf("%w: %s has no readable format", meeting.ErrDecodeFailed, path)
	}

	dur, err := dec.Duration()
	if err != nil {
		return nil, fmt.Errorf("%w: reading duration of %s: %v", meeting.ErrDecodeFailed, path, err)
	}

	info := &QualityInfo{
		SampleRate:      int(dec.SampleRate),
		Channels:        int(dec.NumChans),
		BitsPerSample:   int(dec.BitDepth),
		DurationSeconds: dur.Seconds(),
		FileSizeBytes:   stat.Size(),
	}
	if info.DurationSeconds > 0 {
		info.BitrateKbps = float64(stat.Size()) * 8 / info.DurationSeconds / 1000
	}
	return info, nil
}
