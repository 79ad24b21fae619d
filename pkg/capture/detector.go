package capture

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/KrystelLucin/go-loly/internal/httpc"
	"github.com/KrystelLucin/go-loly/pkg/pose"
)

// Detector extracts named landmarks from a JPEG image. ok is false when no
// usable body was found.
type Detector interface {
	Detect(jpeg []byte) (lm pose.Landmarks, ok bool, err error)
}

// DetectorMode selects which landmark sets the detector reports.
type DetectorMode string

const (
	// ModePose reports body landmarks only.
	ModePose DetectorMode = "pose"

	// ModePoseFace additionally reports face mesh points, which sharpen
	// the mouth-corner roll channel.
	ModePoseFace DetectorMode = "pose_face"
)

// HTTPDetector talks to a pose-estimation sidecar: POST a JPEG, receive
// named landmarks. Landmark inference runs outside this process; the sidecar
// owns the model.
type HTTPDetector struct {
	url  string
	mode DetectorMode
}

// NewHTTPDetector builds a detector against the sidecar endpoint.
func NewHTTPDetector(endpoint string, mode DetectorMode) (*HTTPDetector, error) {
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("detector url: %w", err)
	}
	switch mode {
	case ModePose, ModePoseFace:
	default:
		return nil, fmt.Errorf("unknown detector mode %q", mode)
	}
	return &HTTPDetector{url: endpoint, mode: mode}, nil
}

type detectorResponse struct {
	Found     bool                  `json:"found"`
	Landmarks map[string][3]float64 `json:"landmarks"`
}

// Detect implements Detector.
func (d *HTTPDetector) Detect(jpeg []byte) (pose.Landmarks, bool, error) {
	resp, err := httpc.Post(d.url+"?mode="+string(d.mode), "image/jpeg", jpeg)
	if err != nil {
		return nil, false, fmt.Errorf("detector request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, false, fmt.Errorf("detector status %d: %s", resp.StatusCode, body)
	}

	var parsed detectorResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, false, fmt.Errorf("decode detector response: %w", err)
	}
	if !parsed.Found || len(parsed.Landmarks) == 0 {
		return nil, false, nil
	}

	lm := make(pose.Landmarks, len(parsed.Landmarks))
	for name, p := range parsed.Landmarks {
		lm[name] = pose.Vec3{X: p[0], Y: p[1], Z: p[2]}
	}
	return lm, true, nil
}
