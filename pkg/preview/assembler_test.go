package preview

import (
	"errors"
	"testing"

	"github.com/KrystelLucin/go-loly/pkg/session"
)

func TestAssemble_EmptyInput(t *testing.T) {
	if _, err := Assemble(nil); !errors.Is(err, ErrNoFrames) {
		t.Errorf("nil frames: got %v, want ErrNoFrames", err)
	}
	if _, err := Assemble([]session.Frame{}); !errors.Is(err, ErrNoFrames) {
		t.Errorf("empty frames: got %v, want ErrNoFrames", err)
	}
}

func TestAssemble_BadThumbnail(t *testing.T) {
	frames := []session.Frame{{Timestamp: 0.1, Thumbnail: "not base64!"}}
	if _, err := Assemble(frames); err == nil {
		t.Error("expected error for undecodable thumbnail")
	}
}
