package playback

import (
	"encoding/json"
	"testing"
	"time"
)

const sampleDocument = `[
  {
    "audio_url": "http://robot.local/blobs/segment0.wav",
    "gestos": [
      {
        "frames": {
          "alzado": {"head": {"pitch": 60, "yaw": 50, "roll": 50},
                     "wing_L": {"vertical": 90, "horizontal": 40},
                     "wing_R": {"vertical": 90, "horizontal": 60},
                     "duration": 0.08},
          "centro": {"head": {"pitch": 50, "yaw": 50, "roll": 50},
                     "wing_L": {"vertical": 50, "horizontal": 50},
                     "wing_R": {"vertical": 50, "horizontal": 50}},
          "abajo":  {"head": {"pitch": 35, "yaw": 50, "roll": 50},
                     "wing_L": {"vertical": 10, "horizontal": 50},
                     "wing_R": {"vertical": 10, "horizontal": 50},
                     "duration": 0.12}
        }
      }
    ]
  }
]`

func TestParseDocument_PreservesFrameOrder(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(doc) != 1 || len(doc[0].Gestures) != 1 {
		t.Fatalf("unexpected shape: %d segments", len(doc))
	}

	frames := doc[0].Gestures[0].Frames
	want := []string{"alzado", "centro", "abajo"}
	if len(frames) != len(want) {
		t.Fatalf("got %d frames, want %d", len(frames), len(want))
	}
	for i, name := range want {
		if frames[i].Name != name {
			t.Errorf("frame %d: got %q, want %q", i, frames[i].Name, name)
		}
	}

	if frames[0].Frame.Head.Pitch != 60 {
		t.Errorf("alzado pitch: got %d, want 60", frames[0].Frame.Head.Pitch)
	}
	if frames[2].Frame.WingL.Vertical != 10 {
		t.Errorf("abajo wing_L vertical: got %d, want 10", frames[2].Frame.WingL.Vertical)
	}
}

func TestGesture_MarshalRoundTrip(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	again, err := ParseDocument(data)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}

	orig := doc[0].Gestures[0].Frames
	back := again[0].Gestures[0].Frames
	if len(back) != len(orig) {
		t.Fatalf("round trip changed frame count: %d -> %d", len(orig), len(back))
	}
	for i := range orig {
		if back[i].Name != orig[i].Name {
			t.Errorf("frame %d name changed: %q -> %q", i, orig[i].Name, back[i].Name)
		}
		if back[i].Frame != orig[i].Frame {
			t.Errorf("frame %q changed: %+v -> %+v", orig[i].Name, orig[i].Frame, back[i].Frame)
		}
	}
}

func TestMotionFrame_Hold(t *testing.T) {
	cases := []struct {
		name     string
		duration float64
		want     time.Duration
	}{
		{"explicit", 0.08, 80 * time.Millisecond},
		{"missing", 0, DefaultFrameDuration},
		{"negative", -1, DefaultFrameDuration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := MotionFrame{Duration: tc.duration}
			if got := f.Hold(); got != tc.want {
				t.Errorf("Hold() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDocument_FrameCount(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if got := doc.FrameCount(); got != 3 {
		t.Errorf("FrameCount() = %d, want 3", got)
	}
	if got := (Document{}).FrameCount(); got != 0 {
		t.Errorf("empty FrameCount() = %d, want 0", got)
	}
}
