// Package export writes meeting records to text, JSON, and markdown
// files under the exports directory.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Fikrifrds/meeting-notes/internal/meeting"
)

// Options selects the output format and which sections to include.
type Options struct {
	Format            string `json:"format"`
	IncludeTranscript bool   `json:"include_transcript"`
	IncludeMinutes    bool   `json:"include_minutes"`
	IncludeSegments   bool   `json:"include_segments"`
}

// Exporter writes meeting exports into a fixed directory.
type Exporter struct {
	dir string
}

// NewExporter returns an exporter rooted at dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// Export writes m (and optionally its segments) to a new file named
// <sanitized_title>_<YYYYMMDD_HHMMSS>.<fmt> and returns the path.
func (e *Exporter) Export(m *meeting.Meeting, segments []meeting.Segment, opts Options) (string, error) {
	var content string
	switch opts.Format {
	case "txt":
		content = renderText(m, segments, opts)
	case "json":
		data, err := renderJSON(m, segments, opts)
		if err != nil {
			return "", err
		}
		content = data
	case "md":
		content = renderMarkdown(m, segments, opts)
	default:
		return "", fmt.Errorf("%w: %q", meeting.ErrUnsupportedFormat, opts.Format)
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating exports dir: %v", meeting.ErrIO, err)
	}

	name := fmt.Sprintf("%s_%s.%s", sanitizeTitle(m.Title), time.Now().Format("20060102_150405"), opts.Format)
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("%w: writing export: %v", meeting.ErrIO, err)
	}
	return path, nil
}

// sanitizeTitle keeps letters, digits, dashes, and underscores;
// everything else becomes an underscore.
func sanitizeTitle(title string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, title)
	if mapped == "" {
		return "meeting"
	}
	return mapped
}

func renderText(m *meeting.Meeting, segments []meeting.Segment, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Meeting: %s\n", m.Title)
	fmt.Fprintf(&b, "Created: %s\n", m.CreatedAt.Format(time.RFC3339))
	if m.DurationSeconds != nil {
		fmt.Fprintf(&b, "Duration: %ds\n", *m.DurationSeconds)
	}
	b.WriteString("\n")
	if opts.IncludeTranscript && m.Transcript != nil && *m.Transcript != "" {
		b.WriteString("=== Transcript ===\n\n")
		b.WriteString(*m.Transcript)
		b.WriteString("\n\n")
	}
	if opts.IncludeMinutes && m.MeetingMinutes != nil && *m.MeetingMinutes != "" {
		b.WriteString("=== Minutes ===\n\n")
		b.WriteString(*m.MeetingMinutes)
		b.WriteString("\n\n")
	}
	if opts.IncludeSegments {
		b.WriteString("=== Segments ===\n\n")
		for _, s := range segments {
			if s.Text == "" {
				continue
			}
			fmt.Fprintf(&b, "[%.2f - %.2f] %s\n", s.StartTime, s.EndTime, s.Text)
		}
	}
	return b.String()
}

type jsonExport struct {
	Meeting  *meeting.Meeting  `json:"meeting"`
	Segments []meeting.Segment `json:"segments,omitempty"`
}

func renderJSON(m *meeting.Meeting, segments []meeting.Segment, opts Options) (string, error) {
	out := jsonExport{Meeting: m}
	if opts.IncludeSegments {
		out.Segments = segments
	}
	if !opts.IncludeTranscript {
		clone := *m
		clone.Transcript = nil
		out.Meeting = &clone
	}
	if !opts.IncludeMinutes {
		clone := *out.Meeting
		clone.MeetingMinutes = nil
		out.Meeting = &clone
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: encoding json: %w", err)
	}
	return string(data) + "\n", nil
}

func renderMarkdown(m *meeting.Meeting, segments []meeting.Segment, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", m.Title)
	fmt.Fprintf(&b, "- Created: %s\n", m.CreatedAt.Format(time.RFC3339))
	if m.DurationSeconds != nil {
		fmt.Fprintf(&b, "- Duration: %ds\n", *m.DurationSeconds)
	}
	if m.Language != nil && *m.Language != "" {
		fmt.Fprintf(&b, "- Language: %s\n", *m.Language)
	}
	b.WriteString("\n")
	if opts.IncludeMinutes && m.MeetingMinutes != nil && *m.MeetingMinutes != "" {
		b.WriteString("## Minutes\n\n")
		b.WriteString(*m.MeetingMinutes)
		b.WriteString("\n\n")
	}
	if opts.IncludeTranscript && m.Transcript != nil && *m.Transcript != "" {
		b.WriteString("## Transcript\n\n")
		b.WriteString(*m.Transcript)
		b.WriteString("\n\n")
	}
	if opts.IncludeSegments {
		b.WriteString("## Segments\n\n")
		for _, s := range segments {
			if s.Text == "" {
				continue
			}
			fmt.Fprintf(&b, "- **%.2f-%.2f** %s\n", s.StartTime, s.EndTime, s.Text)
		}
	}
	return b.String()
}
