package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Fikrifrds/meeting-notes/internal/meeting"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "meetings.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func strPtr(s string) *string { return &s }

func TestCreateAndGet(t *testing.T) {
	st := newTestStore(t)

	lang := "en"
	m, err := st.Create("Standup", &lang)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if m.ID == "" {
		t.Error("ID should be generated")
	}

	got, err := st.Get(m.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Standup" {
		t.Errorf("Title = %q, want %q", got.Title, "Standup")
	}
	if got.Language == nil || *got.Language != "en" {
		t.Errorf("Language = %v, want en", got.Language)
	}
	if got.Transcript != nil {
		t.Errorf("Transcript = %v, want nil", got.Transcript)
	}
}

func TestGetMissing(t *testing.T) {
	st := newTestStore(t)
	_, err := st.Get("nope")
	if !errors.Is(err, meeting.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	st := newTestStore(t)
	m, err := st.Create("Before", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	dur := int64(120)
	m.Title = "After"
	m.DurationSeconds = &dur
	m.Transcript = strPtr("hello world")
	m.AIProvider = strPtr("openai")
	if err := st.Update(m); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := st.Get(m.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "After" {
		t.Errorf("Title = %q, want %q", got.Title, "After")
	}
	if got.DurationSeconds == nil || *got.DurationSeconds != 120 {
		t.Errorf("DurationSeconds = %v, want 120", got.DurationSeconds)
	}
	if got.Transcript == nil || *got.Transcript != "hello world" {
		t.Errorf("Transcript = %v, want %q", got.Transcript, "hello world")
	}
}

func TestUpdateMissing(t *testing.T) {
	st := newTestStore(t)
	err := st.Update(&meeting.Meeting{ID: "ghost", Title: "x"})
	if !errors.Is(err, meeting.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestGetAll(t *testing.T) {
	st := newTestStore(t)
	for _, title := range []string{"one", "two", "three"} {
		if _, err := st.Create(title, nil); err != nil {
			t.Fatalf("Create(%q) error = %v", title, err)
		}
	}
	all, err := st.GetAll()
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len = %d, want 3", len(all))
	}
}

func TestSearch(t *testing.T) {
	st := newTestStore(t)

	m1, _ := st.Create("Planning session", nil)
	m2, _ := st.Create("Retro", nil)
	m2.Transcript = strPtr("we discussed the roadmap planning")
	if err := st.Update(m2); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, err := st.Create("Unrelated", nil); err != nil {
		t.Fatal(err)
	}

	got, err := st.Search("planning")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (title and transcript matches)", len(got))
	}
	found := map[string]bool{}
	for _, m := range got {
		found[m.ID] = true
	}
	if !found[m1.ID] || !found[m2.ID] {
		t.Errorf("Search missed expected meetings: %v", found)
	}
}

func TestDeleteCascadesAndUnlinksAudio(t *testing.T) {
	st := newTestStore(t)

	m, err := st.Create("Doomed", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	audioPath := filepath.Join(t.TempDir(), "recording.wav")
	if err := os.WriteFile(audioPath, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	m.AudioFilePath = &audioPath
	if err := st.Update(m); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if err := st.AddSegment(&meeting.Segment{MeetingID: m.ID, StartTime: 0, EndTime: 1, Text: "hi"}); err != nil {
		t.Fatalf("AddSegment() error = %v", err)
	}

	if err := st.Delete(m.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := st.Get(m.ID); !errors.Is(err, meeting.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	segs, err := st.GetSegments(m.ID)
	if err != nil {
		t.Fatalf("GetSegments() error = %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("segments survived cascade: %d", len(segs))
	}
	if _, err := os.Stat(audioPath); !os.IsNotExist(err) {
		t.Errorf("audio file should be unlinked, stat err = %v", err)
	}
}

func TestDeleteMissing(t *testing.T) {
	st := newTestStore(t)
	if err := st.Delete("ghost"); !errors.Is(err, meeting.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestSegmentsOrderedByStartTime(t *testing.T) {
	st := newTestStore(t)
	m, err := st.Create("Ordered", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for _, start := range []float64{10.0, 0.0, 5.0} {
		seg := &meeting.Segment{MeetingID: m.ID, StartTime: start, EndTime: start + 1, Text: "t"}
		if err := st.AddSegment(seg); err != nil {
			t.Fatalf("AddSegment(%g) error = %v", start, err)
		}
	}

	segs, err := st.GetSegments(m.ID)
	if err != nil {
		t.Fatalf("GetSegments() error = %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("len = %d, want 3", len(segs))
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].StartTime < segs[i-1].StartTime {
			t.Errorf("segments out of order: %g before %g", segs[i-1].StartTime, segs[i].StartTime)
		}
	}
}

func TestDeleteSegments(t *testing.T) {
	st := newTestStore(t)
	m, _ := st.Create("Retranscribed", nil)
	for i := 0; i < 3; i++ {
		if err := st.AddSegment(&meeting.Segment{MeetingID: m.ID, StartTime: float64(i), EndTime: float64(i) + 1, Text: "x"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := st.DeleteSegments(m.ID); err != nil {
		t.Fatalf("DeleteSegments() error = %v", err)
	}
	segs, _ := st.GetSegments(m.ID)
	if len(segs) != 0 {
		t.Errorf("len = %d, want 0", len(segs))
	}
}
