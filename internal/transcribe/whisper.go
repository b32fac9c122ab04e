// Package transcribe wraps the whisper.cpp Go bindings behind a narrow
// service: initialize once from a model directory, then transcribe
// 16 kHz mono float32 samples, optionally with segment timestamps.
package transcribe

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/Fikrifrds/meeting-notes/internal/meeting"
)

const (
	// MinSamples is the shortest input worth handing to the recognizer
	// (about 0.1 s at 16 kHz).
	MinSamples = 1600

	// threads used per recognizer invocation.
	threads = 4

	// MsgTooShort and MsgNoSpeech are the literal strings the UI shows.
	MsgTooShort = "(Audio too short for transcription)"
	MsgNoSpeech = "(No speech detected)"
)

// modelPreference orders candidate model files from multilingual-large
// down to English-only-base.
var modelPreference = []string{
	"ggml-large-v3-turbo.bin",
	"ggml-large-v3.bin",
	"ggml-medium.bin",
	"ggml-small.bin",
	"ggml-small.en.bin",
	"ggml-base.en.bin",
	"ggml-medium.en.bin",
}

// Segment is one recognizer span in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is a whole-input transcription with timestamps.
type Result struct {
	Segments []Segment `json:"segments"`
	FullText string    `json:"full_text"`
}

// Service wraps a whisper model. Calls are synchronous; concurrent
// callers serialize on the service mutex.
type Service struct {
	mu        sync.Mutex
	model     whisper.Model
	modelPath string
}

// NewService returns an uninitialized service; call Init before use.
func NewService() *Service {
	return &Service{}
}

// FindModel locates the preferred model file in dir.
func FindModel(dir string) (string, error) {
	for _, name := range modelPreference {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no model file in %s (looked for %s)",
		meeting.ErrModelMissing, dir, strings.Join(modelPreference, ", "))
}

// Init loads the preferred model from modelDir. Idempotent: a second
// call with a model already loaded returns success.
func (s *Service) Init(modelDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model != nil {
		return nil
	}

	path, err := FindModel(modelDir)
	if err != nil {
		return err
	}

	model, err := whisper.New(path)
	if err != nil {
		return fmt.Errorf("transcribe: load model %q: %w", path, err)
	}

	s.model = model
	s.modelPath = path
	return nil
}

// Initialized reports whether a model is loaded.
func (s *Service) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model != nil
}

// ModelPath returns the loaded model file, or "" when uninitialized.
func (s *Service) ModelPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modelPath
}

// Close releases the whisper model resources.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != nil {
		err := s.model.Close()
		s.model = nil
		return err
	}
	return nil
}

// Transcribe converts samples to a single text string. Inputs shorter
// than MinSamples and empty recognizer output yield the literal
// placeholder strings rather than errors.
func (s *Service) Transcribe(samples []float32, language string) (string, error) {
	res, err := s.TranscribeWithSegments(samples, language)
	if err != nil {
		return "", err
	}
	return res.FullText, nil
}

// TranscribeWithSegments converts samples to ordered (start, end, text)
// segments plus the concatenated full text.
func (s *Service) TranscribeWithSegments(samples []float32, language string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return nil, meeting.ErrNotInitialized
	}

	if len(samples) < MinSamples {
		return &Result{FullText: MsgTooShort}, nil
	}

	// Fresh recognizer state per call; the model itself is shared.
	ctx, err := s.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("%w: create context: %v", meeting.ErrTranscribeFailed, err)
	}

	ctx.SetThreads(threads)
	ctx.SetTranslate(false)
	lang := language
	if lang == "" {
		lang = "auto"
	}
	if err := ctx.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("%w: set language %q: %v", meeting.ErrTranscribeFailed, lang, err)
	}

	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("%w: process: %v", meeting.ErrTranscribeFailed, err)
	}

	var segments []Segment
	var texts []string
	for {
		seg, err := ctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: next segment: %v", meeting.ErrTranscribeFailed, err)
		}
		text := strings.TrimSpace(seg.Text)
		segments = append(segments, Segment{
			Start: seg.Start.Seconds(),
			End:   seg.End.Seconds(),
			Text:  text,
		})
		if text != "" {
			texts = append(texts, text)
		}
	}

	if len(segments) == 0 {
		return &Result{FullText: MsgNoSpeech}, nil
	}

	return &Result{
		Segments: segments,
		FullText: strings.TrimSpace(strings.Join(texts, " ")),
	}, nil
}
