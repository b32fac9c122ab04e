package audio

import (
	"encoding/binary"
	"math"
	"sync"
)

// Buffer is a mutex-guarded, append-only float32 sample buffer shared
// between a producer (capture callback or mixer) and readers that copy
// slices out under the lock.
type Buffer struct {
	mu      sync.Mutex
	samples []float32
}

// NewBuffer returns an empty buffer with capacity for the given number
// of seconds at the target rate.
func NewBuffer(seconds int) *Buffer {
	return &Buffer{samples: make([]float32, 0, seconds*TargetSampleRate)}
}

// Append adds samples, blocking on the lock.
func (b *Buffer) Append(samples []float32) {
	b.mu.Lock()
	b.samples = append(b.samples, samples...)
	b.mu.Unlock()
}

// TryAppend adds samples only if the lock is immediately available.
// Capture callbacks use it so a contended lock drops samples instead of
// stalling the device thread. Reports whether the samples were kept.
func (b *Buffer) TryAppend(samples []float32) bool {
	if !b.mu.TryLock() {
		return false
	}
	b.samples = append(b.samples, samples...)
	b.mu.Unlock()
	return true
}

// Len returns the current sample count.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// CopyFrom returns a copy of the samples from start to the current end.
// An out-of-range start yields nil.
func (b *Buffer) CopyFrom(start int) []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || start >= len(b.samples) {
		return nil
	}
	out := make([]float32, len(b.samples)-start)
	copy(out, b.samples[start:])
	return out
}

// CopyRange returns a copy of the samples in [start, end).
func (b *Buffer) CopyRange(start, end int) []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || end > len(b.samples) || start >= end {
		return nil
	}
	out := make([]float32, end-start)
	copy(out, b.samples[start:end])
	return out
}

// All returns a copy of the entire buffer.
func (b *Buffer) All() []float32 {
	return b.CopyFrom(0)
}

// Reset empties the buffer but keeps its capacity.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.samples = b.samples[:0]
	b.mu.Unlock()
}

// bytesToFloat32 converts little-endian float32 bytes to samples.
func bytesToFloat32(data []byte, sampleCount uint32) []float32 {
	samples := make([]float32, 0, sampleCount)
	for i := uint32(0); i < sampleCount; i++ {
		offset := i * 4
		if offset+4 > uint32(len(data)) {
			break
		}
		bits := binary.LittleEndian.Uint32(data[offset : offset+4])
		samples = append(samples, math.Float32frombits(bits))
	}
	return samples
}

// bytesToInt16 converts little-endian signed 16-bit PCM bytes to samples.
func bytesToInt16(data []byte, sampleCount uint32) []int16 {
	samples := make([]int16, 0, sampleCount)
	for i := uint32(0); i < sampleCount; i++ {
		offset := i * 2
		if offset+2 > uint32(len(data)) {
			break
		}
		samples = append(samples, int16(binary.LittleEndian.Uint16(data[offset:offset+2])))
	}
	return samples
}
