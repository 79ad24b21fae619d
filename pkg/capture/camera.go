package capture

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/KrystelLucin/go-loly/internal/log"
)

// CameraConfig holds the device and thumbnail settings for a Camera.
type CameraConfig struct {
	Index       int
	ThumbWidth  int
	ThumbHeight int
}

// DefaultCameraConfig returns the settings used by the recording pipeline.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{Index: 0, ThumbWidth: 640, ThumbHeight: 480}
}

// Camera reads frames from a local video device and runs them through a
// landmark detector. One Camera owns its device exclusively.
type Camera struct {
	cap      *gocv.VideoCapture
	detector Detector
	cfg      CameraConfig
}

// OpenCamera opens the device and wires the detector. Open failure is fatal
// for the recording attempt and is surfaced here, before any countdown.
func OpenCamera(cfg CameraConfig, detector Detector) (*Camera, error) {
	cap, err := gocv.OpenVideoCapture(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrCameraUnavailable, cfg.Index, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("%w: device %d", ErrCameraUnavailable, cfg.Index)
	}
	return &Camera{cap: cap, detector: detector, cfg: cfg}, nil
}

// Read implements Source.
func (c *Camera) Read() (*Frame, error) {
	img := gocv.NewMat()
	defer img.Close()

	if ok := c.cap.Read(&img); !ok || img.Empty() {
		return nil, fmt.Errorf("camera read failed")
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Pt(c.cfg.ThumbWidth, c.cfg.ThumbHeight), 0, 0, gocv.InterpolationLinear)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, resized)
	if err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	defer buf.Close()
	thumb := make([]byte, buf.Len())
	copy(thumb, buf.GetBytes())

	frame := &Frame{
		Thumbnail: thumb,
		Width:     img.Cols(),
		Height:    img.Rows(),
	}

	lm, found, err := c.detector.Detect(thumb)
	if err != nil {
		// A failed detection on one frame is skippable; the recording
		// loop tolerates landmark-less frames.
		log.Warn("landmark detection failed", "error", err)
		return frame, nil
	}
	if found {
		frame.Landmarks = lm
	}
	return frame, nil
}

// Close implements Source.
func (c *Camera) Close() error {
	return c.cap.Close()
}
