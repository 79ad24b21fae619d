// Package gesture turns finished recording sessions into permanent gesture
// assets: status reporting, preview assembly, and approval.
package gesture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/KrystelLucin/go-loly/internal/log"
	"github.com/KrystelLucin/go-loly/pkg/pose"
	"github.com/KrystelLucin/go-loly/pkg/preview"
	"github.com/KrystelLucin/go-loly/pkg/session"
	"github.com/KrystelLucin/go-loly/pkg/storage"
)

// ErrNoFrames is returned when approval or preview is requested for a
// session that captured nothing.
var ErrNoFrames = errors.New("session has no captured frames")

// ErrNotFinished is returned when approval is requested before the
// recording has finished.
var ErrNotFinished = errors.New("session is not finished")

// PreviewTTL is how long a preview artifact stays downloadable.
const PreviewTTL = time.Hour

// Status is the session state reported to polling operators.
type Status struct {
	ID         string       `json:"id"`
	Kind       session.Kind `json:"kind"`
	Recording  bool         `json:"is_recording"`
	Finished   bool         `json:"is_finished"`
	Countdown  *int         `json:"countdown_remaining,omitempty"`
	FrameCount int          `json:"frame_count"`
	TimeLeft   *float64     `json:"time_left_seconds,omitempty"`
}

// AssetFrame is one entry of the persisted gesture asset. Thumbnails are
// deliberately absent: the asset is pure choreography.
type AssetFrame struct {
	Time  float64       `json:"time"`
	Head  pose.HeadPose `json:"head"`
	WingL pose.WingPose `json:"wing_L"`
	WingR pose.WingPose `json:"wing_R"`
}

// Service owns the gesture lifecycle around a session store and blob store.
type Service struct {
	store session.Store
	blobs storage.Blob

	// Injected for tests; defaults to the video assembler.
	assemble func([]session.Frame) (string, error)

	now func() time.Time
}

// NewService wires the gesture lifecycle over its stores.
func NewService(store session.Store, blobs storage.Blob) *Service {
	return &Service{
		store:    store,
		blobs:    blobs,
		assemble: preview.Assemble,
		now:      time.Now,
	}
}

// Create opens a fresh recording session.
func (s *Service) Create(ctx context.Context, kind session.Kind, emotion string, keywords []string, targetSeconds float64) (*session.Session, error) {
	sess, err := session.New(kind, emotion, keywords, targetSeconds)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	log.Info("session created", "session", sess.ID, "kind", sess.Kind, "duration", targetSeconds)
	return sess, nil
}

// Get returns the live status of a session.
func (s *Service) Get(ctx context.Context, id string) (*Status, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	st := &Status{
		ID:         sess.ID,
		Kind:       sess.Kind,
		Recording:  sess.Recording,
		Finished:   sess.Finished,
		Countdown:  sess.Countdown,
		FrameCount: len(sess.Frames),
	}
	if left, ok := sess.TimeLeft(s.now().UTC()); ok {
		st.TimeLeft = &left
	}
	return st, nil
}

// Delete discards a session without approving it.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Approve converts a finished session into a permanent gesture asset and
// deletes the session. The asset strips thumbnails and keeps only the
// timestamped choreography.
//
// A session that is not finished, or finished with zero frames, is left
// untouched.
func (s *Service) Approve(ctx context.Context, id, name string) (string, error) {
	if name == "" {
		return "", errors.New("gesture name required")
	}
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !sess.Finished {
		return "", ErrNotFinished
	}
	if len(sess.Frames) == 0 {
		return "", ErrNoFrames
	}

	asset := make([]AssetFrame, len(sess.Frames))
	for i, f := range sess.Frames {
		asset[i] = AssetFrame{
			Time:  f.Timestamp,
			Head:  f.Pose.Head,
			WingL: f.Pose.WingL,
			WingR: f.Pose.WingR,
		}
	}
	data, err := json.Marshal(asset)
	if err != nil {
		return "", fmt.Errorf("encode asset: %w", err)
	}

	url, err := s.blobs.Upload(name+".json", data)
	if err != nil {
		return "", fmt.Errorf("upload asset: %w", err)
	}

	// Only after the asset is durable is the session let go.
	if err := s.store.Delete(ctx, id); err != nil {
		log.Warn("approved session not deleted", "session", id, "error", err)
	}
	log.Info("gesture approved", "session", id, "name", name, "frames", len(asset))
	return url, nil
}

// Preview assembles the session's frames into a short-lived video and
// returns its URL. The local artifact is removed after upload; a failed
// removal is logged but never fails the preview.
func (s *Service) Preview(ctx context.Context, id string) (string, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if len(sess.Frames) == 0 {
		return "", ErrNoFrames
	}

	path, err := s.assemble(sess.Frames)
	if err != nil {
		return "", fmt.Errorf("assemble preview: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			log.Warn("preview artifact not removed", "path", path, "error", err)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read preview artifact: %w", err)
	}
	url, err := s.blobs.UploadTemporary("preview_"+id+".mp4", data, PreviewTTL)
	if err != nil {
		return "", fmt.Errorf("upload preview: %w", err)
	}
	return url, nil
}
