// Package session holds the state of one in-progress gesture recording and
// its TTL-bound store.
//
// A session is created by an operator request, mutated in place by the
// recording engine on every tick, and deleted once approved into a permanent
// gesture. Sessions that are never approved expire in the store.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KrystelLucin/go-loly/pkg/pose"
)

// Kind classifies what a recorded gesture expresses.
type Kind string

const (
	KindEmotional  Kind = "emotional"
	KindContextual Kind = "contextual"
)

// Valid reports whether k is a known gesture kind.
func (k Kind) Valid() bool {
	return k == KindEmotional || k == KindContextual
}

// Frame is one captured instant: a timestamped servo pose plus the annotated
// thumbnail used for the live stream and the preview video. The thumbnail is
// never persisted into the final gesture asset. Frames are immutable once
// appended.
type Frame struct {
	// Timestamp is seconds since recording start, strictly increasing
	// within a session.
	Timestamp float64 `json:"timestamp"`

	Pose pose.ServoPose `json:"pose"`

	// Thumbnail is a base64-encoded JPEG.
	Thumbnail string `json:"thumbnail"`
}

// Session is the unit of a live gesture recording.
//
// Exactly one of four lifecycle states holds at any time: not started,
// countdown active, recording active, finished.
type Session struct {
	ID             string     `json:"id"`
	Kind           Kind       `json:"kind"`
	Emotion        string     `json:"emotion,omitempty"`
	Keywords       []string   `json:"keywords"`
	TargetDuration float64    `json:"target_duration_seconds"`
	Frames         []Frame    `json:"frames"`
	Recording      bool       `json:"is_recording"`
	Finished       bool       `json:"is_finished"`
	Countdown      *int       `json:"countdown_remaining,omitempty"`
	RecordingStart *time.Time `json:"recording_started_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// New creates a fresh, not-yet-started session.
func New(kind Kind, emotion string, keywords []string, targetSeconds float64) (*Session, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid gesture kind %q", kind)
	}
	if targetSeconds <= 0 {
		return nil, fmt.Errorf("target duration must be positive, got %v", targetSeconds)
	}
	if keywords == nil {
		keywords = []string{}
	}
	return &Session{
		ID:             uuid.NewString(),
		Kind:           kind,
		Emotion:        emotion,
		Keywords:       keywords,
		TargetDuration: targetSeconds,
		Frames:         []Frame{},
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// AppendFrame adds a captured frame. It enforces the terminal-state and
// ordering invariants.
func (s *Session) AppendFrame(f Frame) error {
	if s.Finished {
		return ErrSessionFinished
	}
	if !s.Recording {
		return ErrNotRecording
	}
	if n := len(s.Frames); n > 0 && f.Timestamp <= s.Frames[n-1].Timestamp {
		return fmt.Errorf("frame timestamp %v not after previous %v",
			f.Timestamp, s.Frames[n-1].Timestamp)
	}
	s.Frames = append(s.Frames, f)
	return nil
}

// TimeLeft returns the remaining recording time in seconds, floored at zero.
// It returns false when the session is not actively recording.
func (s *Session) TimeLeft(now time.Time) (float64, bool) {
	if !s.Recording || s.Finished || s.RecordingStart == nil {
		return 0, false
	}
	left := s.TargetDuration - now.Sub(*s.RecordingStart).Seconds()
	if left < 0 {
		left = 0
	}
	return left, true
}
