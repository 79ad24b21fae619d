// Package capture provides the camera capability for gesture recording:
// read one frame, get landmarks-or-none, release the handle.
package capture

import (
	"errors"

	"github.com/KrystelLucin/go-loly/pkg/pose"
)

// ErrCameraUnavailable is returned when the camera device cannot be opened.
// It is fatal for the whole recording attempt.
var ErrCameraUnavailable = errors.New("camera unavailable")

// Frame is one camera read. Landmarks is nil when detection found no usable
// body in the image; that is a normal outcome, not an error.
type Frame struct {
	Landmarks pose.Landmarks

	// Thumbnail is an annotated JPEG of the frame, sized for the live
	// stream and preview video.
	Thumbnail []byte

	Width  int
	Height int
}

// Source is the minimal camera capability consumed by the recording engine.
// Implementations are not safe for concurrent Read; camera access is
// exclusive per process.
type Source interface {
	// Read blocks for the next frame. A frame without landmarks is
	// returned with Landmarks == nil.
	Read() (*Frame, error)

	// Close releases the camera handle.
	Close() error
}
