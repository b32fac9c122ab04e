package transcribe

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Fikrifrds/meeting-notes/internal/meeting"
)

func touchModel(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("ggml"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindModelPreferenceOrder(t *testing.T) {
	dir := t.TempDir()
	touchModel(t, dir, "ggml-small.bin")
	touchModel(t, dir, "ggml-large-v3.bin")

	path, err := FindModel(dir)
	if err != nil {
		t.Fatalf("FindModel() error = %v", err)
	}
	if filepath.Base(path) != "ggml-large-v3.bin" {
		t.Errorf("FindModel() = %q, want the higher-preference ggml-large-v3.bin", path)
	}
}

func TestFindModelEmptyDir(t *testing.T) {
	_, err := FindModel(t.TempDir())
	if !errors.Is(err, meeting.ErrModelMissing) {
		t.Errorf("FindModel() error = %v, want ErrModelMissing", err)
	}
}

func TestFindModelIgnoresEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ggml-base.en.bin"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := FindModel(dir); !errors.Is(err, meeting.ErrModelMissing) {
		t.Errorf("FindModel() error = %v, want ErrModelMissing for zero-byte model", err)
	}
}

func TestInitMissingModel(t *testing.T) {
	s := NewService()
	defer s.Close()
	err := s.Init(t.TempDir())
	if !errors.Is(err, meeting.ErrModelMissing) {
		t.Errorf("Init() error = %v, want ErrModelMissing", err)
	}
	if s.Initialized() {
		t.Error("Initialized() = true after failed Init")
	}
}

func TestTranscribeUninitialized(t *testing.T) {
	s := NewService()
	defer s.Close()
	_, err := s.Transcribe(make([]float32, 16000), "")
	if !errors.Is(err, meeting.ErrNotInitialized) {
		t.Errorf("Transcribe() error = %v, want ErrNotInitialized", err)
	}
}

// Model-backed behavior needs a real ggml file; skipped unless one is
// installed in the default models directory.
func TestTranscribeShortInput(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	modelsDir := filepath.Join(home, "Documents", "MeetingRecorder", "MeetingRecordings", "models")
	if _, err := FindModel(modelsDir); err != nil {
		t.Skip("no whisper model installed")
	}

	s := NewService()
	defer s.Close()
	if err := s.Init(modelsDir); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	res, err := s.TranscribeWithSegments(make([]float32, MinSamples-1), "")
	if err != nil {
		t.Fatalf("TranscribeWithSegments() error = %v", err)
	}
	if res.FullText != MsgTooShort {
		t.Errorf("FullText = %q, want %q", res.FullText, MsgTooShort)
	}
	if len(res.Segments) != 0 {
		t.Errorf("Segments = %d, want 0", len(res.Segments))
	}
}
