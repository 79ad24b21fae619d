package capture

import (
	"encoding/base64"
	"sync"

	"github.com/KrystelLucin/go-loly/pkg/pose"
)

// ScriptedSource replays a fixed sequence of frames. It is intended for
// tests and for running the recording pipeline without camera hardware.
type ScriptedSource struct {
	mu     sync.Mutex
	frames []*Frame
	next   int
	loop   bool
	closed bool

	// Reads counts Read calls, including ones after the script ends.
	Reads int
	// Closed reports whether Close was called.
	Closed bool
}

// NewScriptedSource builds a source that yields the given frames in order.
// When loop is true the script repeats; otherwise reads past the end return
// landmark-less frames.
func NewScriptedSource(loop bool, frames ...*Frame) *ScriptedSource {
	return &ScriptedSource{frames: frames, loop: loop}
}

// ScriptedFrame is a convenience constructor for test frames.
func ScriptedFrame(lm pose.Landmarks) *Frame {
	return &Frame{
		Landmarks: lm,
		Thumbnail: []byte(base64.StdEncoding.EncodeToString([]byte("jpeg"))),
		Width:     640,
		Height:    480,
	}
}

// Read implements Source.
func (s *ScriptedSource) Read() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Reads++
	if s.closed {
		return nil, ErrCameraUnavailable
	}
	if s.next >= len(s.frames) {
		if s.loop && len(s.frames) > 0 {
			s.next = 0
		} else {
			return &Frame{Width: 640, Height: 480}, nil
		}
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

// Close implements Source.
func (s *ScriptedSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.Closed = true
	return nil
}
