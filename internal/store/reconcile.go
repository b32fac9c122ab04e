package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Fikrifrds/meeting-notes/internal/meeting"
)

// legacyPattern matches timestamp-named recordings from older sessions,
// e.g. recording_20250804_233559.wav. Newer sessions embed the meeting
// id instead.
var legacyPattern = regexp.MustCompile(`^recording_(\d{8})_(\d{6})\.wav$`)

// maxReconcileSkew is the widest accepted gap between a meeting's
// creation time and a legacy file's encoded time.
const maxReconcileSkew = 1800 * time.Second

// ReconcileAudioPaths scans recordingsDir for recording_*.wav files and
// repairs meetings that lack an audio path. Id-named files match their
// meeting directly; legacy timestamp-named files match the meeting of
// the same local date whose creation time is nearest within 1800 s.
// Safe to run repeatedly: a second run updates nothing.
func (s *Store) ReconcileAudioPaths(recordingsDir string) (int, string, error) {
	entries, err := os.ReadDir(recordingsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, "recordings directory does not exist yet", nil
		}
		return 0, "", fmt.Errorf("%w: scanning %s: %v", meeting.ErrStorage, recordingsDir, err)
	}

	type legacyFile struct {
		path    string
		when    time.Time
		claimed bool
	}
	var legacy []legacyFile
	byID := map[string]string{}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "recording_") || !strings.HasSuffix(name, ".wav") {
			continue
		}
		full := filepath.Join(recordingsDir, name)

		if m := legacyPattern.FindStringSubmatch(name); m != nil {
			when, err := time.ParseInLocation("20060102_150405", m[1]+"_"+m[2], time.Local)
			if err == nil {
				legacy = append(legacy, legacyFile{path: full, when: when})
			}
			continue
		}

		id := strings.TrimSuffix(strings.TrimPrefix(name, "recording_"), ".wav")
		byID[id] = full
	}

	meetings, err := s.GetAll()
	if err != nil {
		return 0, "", err
	}

	updated := 0
	var report strings.Builder
	for i := range meetings {
		m := &meetings[i]
		if m.AudioFilePath != nil {
			continue
		}

		if path, ok := byID[m.ID]; ok {
			m.AudioFilePath = &path
			if err := s.Update(m); err != nil {
				return updated, report.String(), err
			}
			updated++
			fmt.Fprintf(&report, "meeting %s -> %s (id match)\n", m.ID, filepath.Base(path))
			continue
		}

		created := m.CreatedAt.In(time.Local)
		var best *legacyFile
		var bestDelta time.Duration
		for j := range legacy {
			f := &legacy[j]
			// Each legacy file repairs at most one meeting.
			if f.claimed {
				continue
			}
			if f.when.Year() != created.Year() || f.when.YearDay() != created.YearDay() {
				continue
			}
			delta := f.when.Sub(created)
			if delta < 0 {
				delta = -delta
			}
			if delta <= maxReconcileSkew && (best == nil || delta < bestDelta) {
				best = f
				bestDelta = delta
			}
		}
		if best != nil {
			best.claimed = true
			m.AudioFilePath = &best.path
			if err := s.Update(m); err != nil {
				return updated, report.String(), err
			}
			updated++
			fmt.Fprintf(&report, "meeting %s -> %s (nearest within %s)\n",
				m.ID, filepath.Base(best.path), bestDelta.Round(time.Second))
		}
	}

	if updated == 0 {
		report.WriteString("no meetings needed reconciliation\n")
	}
	s.logger.Info().Int("updated", updated).Msg("audio path reconciliation finished")
	return updated, report.String(), nil
}

// DebugAudioPaths reports each meeting's audio path and whether the
// file exists on disk.
func (s *Store) DebugAudioPaths() (string, error) {
	meetings, err := s.GetAll()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, m := range meetings {
		switch {
		case m.AudioFilePath == nil:
			fmt.Fprintf(&b, "%s  %q  audio: (none)\n", m.ID, m.Title)
		default:
			status := "ok"
			if _, err := os.Stat(*m.AudioFilePath); err != nil {
				status = "MISSING"
			}
			fmt.Fprintf(&b, "%s  %q  audio: %s [%s]\n", m.ID, m.Title, *m.AudioFilePath, status)
		}
	}
	if b.Len() == 0 {
		b.WriteString("no meetings recorded\n")
	}
	return b.String(), nil
}
