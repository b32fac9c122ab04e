package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Fikrifrds/meeting-notes/internal/meeting"
)

func TestQuantizeSample(t *testing.T) {
	tests := []struct {
		in   float32
		want int
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{2.5, 32767},
		{-2.5, -32767},
		{0.5, 16383},
	}
	for _, tc := range tests {
		if got := QuantizeSample(tc.in); got != tc.want {
			t.Errorf("QuantizeSample(%g) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestWriteReadWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")

	in := make([]float32, 1600)
	for i := range in {
		in[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i)/float64(TargetSampleRate)))
	}

	n, err := WriteWAV(path, in, TargetSampleRate)
	if err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}
	if n != len(in) {
		t.Errorf("WriteWAV() n = %d, want %d", n, len(in))
	}

	out, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV() error = %v", err)
	}
	if rate != TargetSampleRate {
		t.Errorf("rate = %d, want %d", rate, TargetSampleRate)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		want := float32(QuantizeSample(in[i])) / 32768.0
		if out[i] != want {
			t.Fatalf("out[%d] = %g, want %g", i, out[i], want)
		}
	}
}

func TestReadWAVNormalizesDeepBitDepths(t *testing.T) {
	tests := []struct {
		depth int
		max   int
	}{
		{24, 1<<23 - 1},
		{32, 1<<31 - 1},
	}
	for _, tc := range tests {
		path := filepath.Join(t.TempDir(), "deep.wav")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		enc := wav.NewEncoder(f, TargetSampleRate, tc.depth, 1, 1)
		buf := &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 1, SampleRate: TargetSampleRate},
			Data:           []int{0, tc.max, -tc.max, tc.max / 2},
			SourceBitDepth: tc.depth,
		}
		if err := enc.Write(buf); err != nil {
			t.Fatalf("encoding %d-bit fixture: %v", tc.depth, err)
		}
		if err := enc.Close(); err != nil {
			t.Fatal(err)
		}
		f.Close()

		out, _, err := ReadWAV(path)
		if err != nil {
			t.Fatalf("ReadWAV() %d-bit error = %v", tc.depth, err)
		}
		var peak float32
		for _, s := range out {
			if a := float32(math.Abs(float64(s))); a > peak {
				peak = a
			}
		}
		if peak > 1 {
			t.Errorf("%d-bit peak = %g, want <= 1", tc.depth, peak)
		}
		if peak < 0.99 {
			t.Errorf("%d-bit peak = %g, want full scale near 1", tc.depth, peak)
		}
	}
}

func TestReadWAVMissingFile(t *testing.T) {
	_, _, err := ReadWAV(filepath.Join(t.TempDir(), "absent.wav"))
	if !errors.Is(err, meeting.ErrFileMissing) {
		t.Errorf("error = %v, want ErrFileMissing", err)
	}
}

func TestReadWAVGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("not a wav file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := ReadWAV(path)
	if !errors.Is(err, meeting.ErrDecodeFailed) {
		t.Errorf("error = %v, want ErrDecodeFailed", err)
	}
}

func TestReadQualityInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "info.wav")
	samples := make([]float32, TargetSampleRate) // one second
	if _, err := WriteWAV(path, samples, TargetSampleRate); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	info, err := ReadQualityInfo(path)
	if err != nil {
		t.Fatalf("ReadQualityInfo() error = %v", err)
	}
	if info.SampleRate != TargetSampleRate {
		t.Errorf("SampleRate = %d, want %d", info.SampleRate, TargetSampleRate)
	}
	if info.Channels != 1 {
		t.Errorf("Channels = %d, want 1", info.Channels)
	}
	if info.BitsPerSample != 16 {
		t.Errorf("BitsPerSample = %d, want 16", info.BitsPerSample)
	}
	if math.Abs(info.DurationSeconds-1.0) > 0.05 {
		t.Errorf("DurationSeconds = %g, want ~1.0", info.DurationSeconds)
	}
	if info.FileSizeBytes == 0 {
		t.Error("FileSizeBytes should be non-zero")
	}
}

func TestReadQualityInfoMissing(t *testing.T) {
	_, err := ReadQualityInfo(filepath.Join(t.TempDir(), "absent.wav"))
	if !errors.Is(err, meeting.ErrFileMissing) {
		t.Errorf("error = %v, want ErrFileMissing", err)
	}
}
