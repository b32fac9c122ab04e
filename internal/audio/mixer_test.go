package audio

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestGainControlSetGet(t *testing.T) {
	g := NewGainControl(1.0, 1.0)
	if err := g.Set(2.5, 0.5); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	mic, system := g.Get()
	if mic != 2.5 || system != 0.5 {
		t.Errorf("Get() = (%g, %g), want (2.5, 0.5)", mic, system)
	}
}

func TestGainControlRejectsOutOfRange(t *testing.T) {
	g := NewGainControl(1.0, 1.0)
	for _, tc := range []struct{ mic, system float32 }{
		{-0.1, 1}, {1, -0.1}, {10.1, 1}, {1, 10.1},
	} {
		if err := g.Set(tc.mic, tc.system); err == nil {
			t.Errorf("Set(%g, %g) should fail", tc.mic, tc.system)
		}
	}
	mic, system := g.Get()
	if mic != 1 || system != 1 {
		t.Errorf("gains changed after rejected Set: (%g, %g)", mic, system)
	}
}

func TestMixerTickDrainsBothSources(t *testing.T) {
	mic := NewBuffer(1)
	system := NewBuffer(1)
	master := NewBuffer(1)
	m := NewMixer(mic, system, master, NewGainControl(1, 1), testLogger())

	mic.Append([]float32{0.1, 0.1})
	system.Append([]float32{0.2, 0.2})
	m.Tick()

	got := master.All()
	if len(got) != 2 {
		t.Fatalf("master len = %d, want 2", len(got))
	}
	if math.Abs(float64(got[0])-0.3) > 1e-6 {
		t.Errorf("master[0] = %g, want 0.3", got[0])
	}
}

func TestMixerTickIncremental(t *testing.T) {
	mic := NewBuffer(1)
	system := NewBuffer(1)
	master := NewBuffer(1)
	m := NewMixer(mic, system, master, NewGainControl(1, 1), testLogger())

	mic.Append([]float32{0.1})
	m.Tick()
	mic.Append([]float32{0.2})
	m.Tick()

	got := master.All()
	if len(got) != 2 {
		t.Fatalf("master len = %d, want 2", len(got))
	}
	if got[1] != 0.2 {
		t.Errorf("master[1] = %g, want 0.2 (only new samples mixed)", got[1])
	}
}

func TestMixerTickEmptyNoAppend(t *testing.T) {
	master := NewBuffer(1)
	m := NewMixer(NewBuffer(1), NewBuffer(1), master, NewGainControl(1, 1), testLogger())
	m.Tick()
	if master.Len() != 0 {
		t.Errorf("master len = %d, want 0", master.Len())
	}
}

func TestMixerLaggingSourcePadsWithSilence(t *testing.T) {
	mic := NewBuffer(1)
	system := NewBuffer(1)
	master := NewBuffer(1)
	m := NewMixer(mic, system, master, NewGainControl(1, 1), testLogger())

	mic.Append([]float32{0.5, 0.5, 0.5})
	system.Append([]float32{0.25})
	m.Tick()

	got := master.All()
	if len(got) != 3 {
		t.Fatalf("master len = %d, want 3", len(got))
	}
	if math.Abs(float64(got[0])-0.75) > 1e-6 {
		t.Errorf("master[0] = %g, want 0.75", got[0])
	}
	if got[2] != 0.5 {
		t.Errorf("master[2] = %g, want 0.5", got[2])
	}
}

func TestMixerRespectsLiveGainChange(t *testing.T) {
	mic := NewBuffer(1)
	master := NewBuffer(1)
	gains := NewGainControl(1, 1)
	m := NewMixer(mic, NewBuffer(1), master, gains, testLogger())

	mic.Append([]float32{0.1})
	m.Tick()
	if err := gains.Set(2, 1); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	mic.Append([]float32{0.1})
	m.Tick()

	got := master.All()
	if math.Abs(float64(got[1])-0.2) > 1e-6 {
		t.Errorf("master[1] = %g, want 0.2 after gain change", got[1])
	}
}
