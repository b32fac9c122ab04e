// Package audio implements the capture pipeline: device discovery and
// selection, per-device capture with on-the-fly format conversion, the
// two-source soft-clipping mixer, and WAV serialization. All pipeline
// samples are normalized float32 in [-1, 1] at 16 kHz mono.
package audio

import "errors"

// TargetSampleRate is the pipeline-wide sample rate every source is
// converted to before mixing and recognition.
const TargetSampleRate = 16000

// ErrUnsupportedLayout is returned by ToMono for a non-positive channel
// count.
var ErrUnsupportedLayout = errors.New("unsupported channel layout")

// ToMono averages contiguous frames down to a single channel. A channel
// count of 1 returns the input unchanged.
func ToMono(samples []float32, channels int) ([]float32, error) {
	if channels < 1 {
		return nil, ErrUnsupportedLayout
	}
	if channels == 1 {
		return samples, nil
	}

	frames := len(samples) / channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}
	return mono, nil
}

// Int16ToFloat32 normalizes signed 16-bit samples into [-1, 1).
func Int16ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// ResampleLinear converts samples from inRate to outRate by linear
// interpolation. Output length is floor(len * outRate / inRate) and
// matching rates are an identity. Cheap and artifact-tolerant at small
// ratios; not suitable for aggressive downsampling.
func ResampleLinear(samples []float32, inRate, outRate int) []float32 {
	if inRate == outRate || len(samples) == 0 {
		return samples
	}

	outLen := len(samples) * outRate / inRate
	out := make([]float32, outLen)
	ratio := float64(inRate) / float64(outRate)

	for i := 0; i < outLen; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := float32(pos - float64(idx))

		next := idx + 1
		if next >= len(samples) {
			next = len(samples) - 1
		}

		out[i] = samples[idx]*(1-frac) + samples[next]*frac
	}
	return out
}

// MixSoft sums two sources with per-source gains and bounds the result
// with a smooth saturating curve. Output length is the max of the two
// inputs; missing samples read as zero. Output always lies in [-1, 1].
func MixSoft(mic, system []float32, micGain, systemGain float32) []float32 {
	n := len(mic)
	if len(system) > n {
		n = len(system)
	}

	out := make([]float32, n)
	for i := 0; i < n; i++ {
		var s float32
		if i < len(mic) {
			s += mic[i] * micGain
		}
		if i < len(system) {
			s += system[i] * systemGain
		}
		out[i] = softClip(s)
	}
	return out
}

// softClip bounds s to [-1, 1] without a hard corner.
func softClip(s float32) float32 {
	if s > 1 {
		return 1 - 1/(1+(s-1))
	}
	if s < -1 {
		return -1 + 1/(1+(-s-1))
	}
	return s
}
