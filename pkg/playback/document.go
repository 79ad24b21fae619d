// Package playback replays a story's choreography: motion frames over the
// serial actuator bus in lock-step with narrated audio on the speaker.
package playback

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultFrameDuration paces frames that carry no explicit duration.
const DefaultFrameDuration = 40 * time.Millisecond

// Channels holds one servo pair of a wing.
type Channels struct {
	Vertical   int `json:"vertical"`
	Horizontal int `json:"horizontal"`
}

// Head holds the three head servo channels.
type Head struct {
	Pitch int `json:"pitch"`
	Yaw   int `json:"yaw"`
	Roll  int `json:"roll"`
}

// MotionFrame is one actuator command plus how long to hold it.
type MotionFrame struct {
	Head     Head     `json:"head"`
	WingL    Channels `json:"wing_L"`
	WingR    Channels `json:"wing_R"`
	Duration float64  `json:"duration,omitempty"`
}

// Hold returns the frame's pacing duration, falling back to the default.
func (f MotionFrame) Hold() time.Duration {
	if f.Duration <= 0 {
		return DefaultFrameDuration
	}
	return time.Duration(f.Duration * float64(time.Second))
}

// NamedFrame pairs a frame with its position name inside a gesture.
type NamedFrame struct {
	Name  string
	Frame MotionFrame
}

// Gesture is an ordered list of named frames. Order is the insertion order
// of the upstream assembly, preserved through JSON decoding.
type Gesture struct {
	Frames []NamedFrame
}

// Segment groups the gestures of one narrated passage.
type Segment struct {
	AudioURL string    `json:"audio_url,omitempty"`
	Gestures []Gesture `json:"gestos"`
}

// Document is a story's full choreography: segments of gestures of frames.
// It is produced upstream; playback only reads it.
type Document []Segment

// ParseDocument decodes a motion-frame document.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse motion document: %w", err)
	}
	return doc, nil
}

// FrameCount returns the total number of motion frames in the document.
func (d Document) FrameCount() int {
	n := 0
	for _, seg := range d {
		for _, g := range seg.Gestures {
			n += len(g.Frames)
		}
	}
	return n
}

// UnmarshalJSON decodes a gesture while preserving the frame insertion
// order, which encoding/json's map decoding would destroy.
func (g *Gesture) UnmarshalJSON(data []byte) error {
	var raw struct {
		Frames json.RawMessage `json:"frames"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Frames) == 0 {
		g.Frames = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Frames))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("gesture frames: expected object, got %v", tok)
	}

	g.Frames = g.Frames[:0]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("gesture frames: expected key, got %v", tok)
		}
		var frame MotionFrame
		if err := dec.Decode(&frame); err != nil {
			return fmt.Errorf("gesture frame %q: %w", name, err)
		}
		g.Frames = append(g.Frames, NamedFrame{Name: name, Frame: frame})
	}
	return nil
}

// MarshalJSON re-encodes the frames as an ordered object.
func (g Gesture) MarshalJSON() ([]byte, error) {
	buf := []byte(`{"frames":{`)
	for i, nf := range g.Frames {
		if i > 0 {
			buf = append(buf, ',')
		}
		name, err := json.Marshal(nf.Name)
		if err != nil {
			return nil, err
		}
		frame, err := json.Marshal(nf.Frame)
		if err != nil {
			return nil, err
		}
		buf = append(buf, name...)
		buf = append(buf, ':')
		buf = append(buf, frame...)
	}
	buf = append(buf, '}', '}')
	return buf, nil
}
