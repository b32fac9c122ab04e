// Package store persists meetings and transcript segments in a local
// SQLite database and repairs orphaned audio files.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/Fikrifrds/meeting-notes/internal/meeting"
)

const schema = `
CREATE TABLE IF NOT EXISTS meetings (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	duration_seconds INTEGER,
	audio_file_path TEXT,
	transcript TEXT,
	meeting_minutes TEXT,
	language TEXT,
	ai_provider TEXT
);

CREATE TABLE IF NOT EXISTS meeting_segments (
	id TEXT PRIMARY KEY,
	meeting_id TEXT NOT NULL,
	start_time REAL NOT NULL,
	end_time REAL NOT NULL,
	text TEXT NOT NULL,
	confidence REAL,
	FOREIGN KEY(meeting_id) REFERENCES meetings(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_meetings_created_at ON meetings(created_at);
CREATE INDEX IF NOT EXISTS idx_segments_meeting_id ON meeting_segments(meeting_id);
`

const meetingColumns = `id, title, created_at, updated_at, duration_seconds,
	audio_file_path, transcript, meeting_minutes, language, ai_provider`

// Store owns the database connection exclusively.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", meeting.ErrStorage, path, err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY between the session and command handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: initializing schema: %v", meeting.ErrStorage, err)
	}

	return &Store{db: db, logger: logger.With().Str("component", "store").Logger()}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create persists a new meeting with a generated id and local
// timestamps.
func (s *Store) Create(title string, language *string) (*meeting.Meeting, error) {
	now := time.Now()
	m := &meeting.Meeting{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Language:  language,
	}

	_, err := s.db.Exec(
		`INSERT INTO meetings (id, title, created_at, updated_at, language) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Title, now.Format(time.RFC3339), now.Format(time.RFC3339), m.Language,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: creating meeting: %v", meeting.ErrStorage, err)
	}
	return m, nil
}

// Update replaces the meeting's mutable fields and bumps updated_at.
func (s *Store) Update(m *meeting.Meeting) error {
	now := time.Now()
	res, err := s.db.Exec(
		`UPDATE meetings SET title = ?, updated_at = ?, duration_seconds = ?,
			audio_file_path = ?, transcript = ?, meeting_minutes = ?, language = ?, ai_provider = ?
		 WHERE id = ?`,
		m.Title, now.Format(time.RFC3339), m.DurationSeconds,
		m.AudioFilePath, m.Transcript, m.MeetingMinutes, m.Language, m.AIProvider,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating meeting %s: %v", meeting.ErrStorage, m.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: meeting %s", meeting.ErrNotFound, m.ID)
	}
	m.UpdatedAt = now
	return nil
}

// Get returns one meeting by id.
func (s *Store) Get(id string) (*meeting.Meeting, error) {
	row := s.db.QueryRow(`SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id)
	m, err := scanMeeting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: meeting %s", meeting.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading meeting %s: %v", meeting.ErrStorage, id, err)
	}
	return m, nil
}

// GetAll returns every meeting, newest first.
func (s *Store) GetAll() ([]meeting.Meeting, error) {
	rows, err := s.db.Query(`SELECT ` + meetingColumns + ` FROM meetings ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing meetings: %v", meeting.ErrStorage, err)
	}
	defer rows.Close()
	return collectMeetings(rows)
}

// Search matches needle as a substring of title, transcript, or
// minutes, newest first.
func (s *Store) Search(needle string) ([]meeting.Meeting, error) {
	pattern := "%" + needle + "%"
	rows, err := s.db.Query(
		`SELECT `+meetingColumns+` FROM meetings
		 WHERE title LIKE ? OR transcript LIKE ? OR meeting_minutes LIKE ?
		 ORDER BY created_at DESC`,
		pattern, pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: searching meetings: %v", meeting.ErrStorage, err)
	}
	defer rows.Close()
	return collectMeetings(rows)
}

// Delete removes the meeting, cascades to its segments, and unlinks the
// recorded audio file when one is present.
func (s *Store) Delete(id string) error {
	m, err := s.Get(id)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(`DELETE FROM meetings WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: deleting meeting %s: %v", meeting.ErrStorage, id, err)
	}

	if m.AudioFilePath != nil {
		if err := os.Remove(*m.AudioFilePath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", *m.AudioFilePath).Msg("could not unlink audio file")
		}
	}
	return nil
}

// AddSegment persists one transcript segment, generating an id when
// absent.
func (s *Store) AddSegment(seg *meeting.Segment) error {
	if seg.ID == "" {
		seg.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT INTO meeting_segments (id, meeting_id, start_time, end_time, text, confidence)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		seg.ID, seg.MeetingID, seg.StartTime, seg.EndTime, seg.Text, seg.Confidence,
	)
	if err != nil {
		return fmt.Errorf("%w: adding segment for %s: %v", meeting.ErrStorage, seg.MeetingID, err)
	}
	return nil
}

// GetSegments returns a meeting's segments ordered by start time.
func (s *Store) GetSegments(meetingID string) ([]meeting.Segment, error) {
	rows, err := s.db.Query(
		`SELECT id, meeting_id, start_time, end_time, text, confidence
		 FROM meeting_segments WHERE meeting_id = ? ORDER BY start_time`,
		meetingID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: reading segments for %s: %v", meeting.ErrStorage, meetingID, err)
	}
	defer rows.Close()

	var segments []meeting.Segment
	for rows.Next() {
		var seg meeting.Segment
		if err := rows.Scan(&seg.ID, &seg.MeetingID, &seg.StartTime, &seg.EndTime, &seg.Text, &seg.Confidence); err != nil {
			return nil, fmt.Errorf("%w: scanning segment: %v", meeting.ErrStorage, err)
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// DeleteSegments removes all segments of a meeting; re-transcription
// replaces the set wholesale.
func (s *Store) DeleteSegments(meetingID string) error {
	if _, err := s.db.Exec(`DELETE FROM meeting_segments WHERE meeting_id = ?`, meetingID); err != nil {
		return fmt.Errorf("%w: deleting segments for %s: %v", meeting.ErrStorage, meetingID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row rowScanner) (*meeting.Meeting, error) {
	var m meeting.Meeting
	var createdAt, updatedAt string
	if err := row.Scan(&m.ID, &m.Title, &createdAt, &updatedAt, &m.DurationSeconds,
		&m.AudioFilePath, &m.Transcript, &m.MeetingMinutes, &m.Language, &m.AIProvider); err != nil {
		return nil, err
	}

	var err error
	if m.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	if m.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at %q: %w", updatedAt, err)
	}
	return &m, nil
}

func collectMeetings(rows *sql.Rows) ([]meeting.Meeting, error) {
	var meetings []meeting.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning meeting: %v", meeting.ErrStorage, err)
		}
		meetings = append(meetings, *m)
	}
	return meetings, rows.Err()
}
