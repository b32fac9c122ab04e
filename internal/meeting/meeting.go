// Package meeting defines the domain types shared across the recorder:
// the meeting aggregate, its transcript segments, and the error taxonomy
// surfaced at the command boundary.
package meeting

import "time"

// Meeting represents one recording session and all artifacts derived
// from it. Segments relate to a meeting by id only.
type Meeting struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
	AudioFilePath   *string    `json:"audio_file_path,omitempty"`
	Transcript      *string    `json:"transcript,omitempty"`
	MeetingMinutes  *string    `json:"meeting_minutes,omitempty"`
	Language        *string    `json:"language,omitempty"`
	AIProvider      *string    `json:"ai_provider,omitempty"` // "openai" or "ollama"
}

// Segment is a recognizer-produced span of a meeting's audio.
// Segments of one meeting form a non-decreasing sequence by StartTime.
type Segment struct {
	ID         string   `json:"id"`
	MeetingID  string   `json:"meeting_id"`
	StartTime  float64  `json:"start_time"`
	EndTime    float64  `json:"end_time"`
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence,omitempty"`
}
