package audio

import (
	"errors"
	"math"
	"testing"
)

func TestToMonoStereo(t *testing.T) {
	stereo := []float32{0.2, 0.4, -0.6, -0.2, 1.0, 0.0}
	mono, err := ToMono(stereo, 2)
	if err != nil {
		t.Fatalf("ToMono() error = %v", err)
	}
	want := []float32{0.3, -0.4, 0.5}
	if len(mono) != len(want) {
		t.Fatalf("len = %d, want %d", len(mono), len(want))
	}
	for i := range want {
		if math.Abs(float64(mono[i]-want[i])) > 1e-6 {
			t.Errorf("mono[%d] = %g, want %g", i, mono[i], want[i])
		}
	}
}

func TestToMonoSingleChannelIdentity(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	out, err := ToMono(in, 1)
	if err != nil {
		t.Fatalf("ToMono() error = %v", err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %g, want %g", i, out[i], in[i])
		}
	}
}

func TestToMonoLengthLaw(t *testing.T) {
	// Output length is input length divided by channel count.
	for _, channels := range []int{1, 2, 3, 4} {
		in := make([]float32, 12)
		out, err := ToMono(in, channels)
		if err != nil {
			t.Fatalf("ToMono(channels=%d) error = %v", channels, err)
		}
		if len(out) != len(in)/channels {
			t.Errorf("channels=%d: len = %d, want %d", channels, len(out), len(in)/channels)
		}
	}
}

func TestToMonoInvalidChannels(t *testing.T) {
	if _, err := ToMono([]float32{0}, 0); err == nil {
		t.Error("ToMono(channels=0) should fail")
	}
	if _, err := ToMono([]float32{0}, -1); err == nil {
		t.Error("ToMono(channels=-1) should fail")
	}
}

func TestInt16ToFloat32Range(t *testing.T) {
	out := Int16ToFloat32([]int16{-32768, 0, 16384, 32767})
	if out[0] != -1.0 {
		t.Errorf("out[0] = %g, want -1.0", out[0])
	}
	if out[1] != 0 {
		t.Errorf("out[1] = %g, want 0", out[1])
	}
	if math.Abs(float64(out[2])-0.5) > 1e-4 {
		t.Errorf("out[2] = %g, want 0.5", out[2])
	}
	if out[3] >= 1.0 {
		t.Errorf("out[3] = %g, want < 1.0", out[3])
	}
}

func TestResampleLinearIdentity(t *testing.T) {
	in := []float32{0.1, -0.2, 0.3, -0.4}
	out := ResampleLinear(in, 16000, 16000)
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %g, want %g", i, out[i], in[i])
		}
	}
}

func TestResampleLinearDownsampleLength(t *testing.T) {
	in := make([]float32, 480) // 10 ms at 48 kHz
	out := ResampleLinear(in, 48000, 16000)
	if len(out) != 160 {
		t.Errorf("len = %d, want 160", len(out))
	}
}

func TestResampleLinearUpsampleInterpolates(t *testing.T) {
	in := []float32{0, 1}
	out := ResampleLinear(in, 1, 4)
	if len(out) != 8 {
		t.Fatalf("len = %d, want 8", len(out))
	}
	// Values must be non-decreasing for a ramp input.
	for i := 1; i < len(out); i++ {
		if out[i] < out[i-1] {
			t.Errorf("out[%d] = %g < out[%d] = %g", i, out[i], i-1, out[i-1])
		}
	}
}

func TestResampleLinearEmpty(t *testing.T) {
	if out := ResampleLinear(nil, 48000, 16000); len(out) != 0 {
		t.Errorf("len = %d, want 0", len(out))
	}
}

func TestMixSoftBounded(t *testing.T) {
	mic := []float32{2.0, -3.0, 0.9, 100.0}
	system := []float32{2.0, -3.0, 0.9, 100.0}
	out := MixSoft(mic, system, 5.0, 5.0)
	for i, s := range out {
		if s < -1.0 || s > 1.0 {
			t.Errorf("out[%d] = %g, outside [-1, 1]", i, s)
		}
	}
}

func TestMixSoftUnequalLengths(t *testing.T) {
	mic := []float32{0.5, 0.5, 0.5}
	system := []float32{0.25}
	out := MixSoft(mic, system, 1.0, 1.0)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if math.Abs(float64(out[0])-0.75) > 1e-6 {
		t.Errorf("out[0] = %g, want 0.75", out[0])
	}
	if out[1] != 0.5 {
		t.Errorf("out[1] = %g, want 0.5 (missing system samples are silence)", out[1])
	}
}

func TestMixSoftUnitySumPassesThrough(t *testing.T) {
	// A sum of exactly 1 is inside the linear region.
	out := MixSoft([]float32{1.0}, []float32{0}, 1.0, 1.0)
	if math.Abs(float64(out[0])-1.0) > 1e-6 {
		t.Errorf("out[0] = %g, want 1.0", out[0])
	}
}

func TestMixSoftZeroGainSilence(t *testing.T) {
	out := MixSoft([]float32{0.8}, []float32{0.8}, 0, 0)
	if out[0] != 0 {
		t.Errorf("out[0] = %g, want 0", out[0])
	}
}

func TestUnsupportedLayoutError(t *testing.T) {
	_, err := ToMono([]float32{0, 0}, 0)
	if !errors.Is(err, ErrUnsupportedLayout) {
		t.Errorf("error = %v, want ErrUnsupportedLayout", err)
	}
}
