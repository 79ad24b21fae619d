// Package preview assembles the captured frames of a recording into a video
// artifact for human review before a gesture is approved.
package preview

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"gocv.io/x/gocv"

	"github.com/KrystelLucin/go-loly/pkg/session"
)

// ErrNoFrames is returned when there is nothing to assemble.
var ErrNoFrames = errors.New("no frames to assemble")

// OutputFPS is the fixed frame rate of the preview container. The preview is
// illustrative; it does not reproduce the real capture cadence.
const OutputFPS = 30

// Assemble writes the frames into a temporary mp4 and returns its path.
//
// The caller owns the artifact: it must upload it wherever it belongs and
// delete the file afterwards. Assemble performs no upload and no cleanup of
// its own output.
func Assemble(frames []session.Frame) (string, error) {
	if len(frames) == 0 {
		return "", ErrNoFrames
	}

	first, err := decodeThumbnail(frames[0].Thumbnail)
	if err != nil {
		return "", fmt.Errorf("decode first frame: %w", err)
	}
	width, height := first.Cols(), first.Rows()
	first.Close()

	tmp, err := os.CreateTemp("", "gesture-preview-*.mp4")
	if err != nil {
		return "", fmt.Errorf("create temp video: %w", err)
	}
	path := tmp.Name()
	tmp.Close()

	writer, err := gocv.VideoWriterFile(path, "mp4v", OutputFPS, width, height, true)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("open video writer: %w", err)
	}
	defer writer.Close()

	green := color.RGBA{G: 255}
	for i, frame := range frames {
		img, err := decodeThumbnail(frame.Thumbnail)
		if err != nil {
			writer.Close()
			os.Remove(path)
			return "", fmt.Errorf("decode frame %d: %w", i, err)
		}

		label := fmt.Sprintf("%.2fs", frame.Timestamp)
		gocv.PutText(&img, label, image.Pt(10, 30), gocv.FontHersheySimplex, 1, green, 2)

		err = writer.Write(img)
		img.Close()
		if err != nil {
			writer.Close()
			os.Remove(path)
			return "", fmt.Errorf("write frame %d: %w", i, err)
		}
	}

	return path, nil
}

func decodeThumbnail(b64 string) (gocv.Mat, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("decode base64: %w", err)
	}
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("decode jpeg: %w", err)
	}
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, errors.New("empty image")
	}
	return img, nil
}
