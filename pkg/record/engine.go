// Package record drives the gesture recording loop: countdown, per-frame
// capture and persistence, and the live event stream consumed by the
// operator UI.
package record

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"time"

	"github.com/KrystelLucin/go-loly/internal/log"
	"github.com/KrystelLucin/go-loly/pkg/capture"
	"github.com/KrystelLucin/go-loly/pkg/pose"
	"github.com/KrystelLucin/go-loly/pkg/session"
)

// DefaultCountdown is the number of one-second ticks before capture starts.
const DefaultCountdown = 3

// readRetryDelay paces retries after a failed camera read so a dead camera
// does not spin the loop for the rest of the recording window.
const readRetryDelay = 50 * time.Millisecond

// Engine runs gesture recordings. It is the single writer for a session
// while its recording is in progress.
type Engine struct {
	store  session.Store
	mapper pose.Mapper

	countdown int

	// Injected for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// Option configures an Engine.
type Option func(*Engine)

// WithCountdown overrides the number of countdown ticks.
func WithCountdown(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.countdown = n
		}
	}
}

// NewEngine creates a recording engine over the given store and mapper.
func NewEngine(store session.Store, mapper pose.Mapper, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		mapper:    mapper,
		countdown: DefaultCountdown,
		now:       time.Now,
		sleep:     time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stream validates the session and starts the recording loop, returning a
// single-consumer event sequence.
//
// The engine takes ownership of src and releases it when the loop ends, for
// any reason. If the consumer stops pulling events (context cancelled or
// connection gone), camera reads stop and the handle is released.
//
// Precondition failures — session absent or expired, already finished,
// already recording — are returned synchronously, before any countdown.
func (e *Engine) Stream(ctx context.Context, src capture.Source, sessionID string) (<-chan Event, error) {
	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		src.Close()
		return nil, err
	}
	if sess.Finished {
		src.Close()
		return nil, session.ErrSessionFinished
	}
	if sess.Recording {
		src.Close()
		return nil, session.ErrAlreadyRecording
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer src.Close()
		if err := e.run(ctx, src, sess, events); err != nil {
			log.Error("recording aborted", "session", sess.ID, "error", err)
		}
	}()
	return events, nil
}

// emit pushes one event, or reports false when the consumer is gone.
func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Engine) run(ctx context.Context, src capture.Source, sess *session.Session, events chan<- Event) error {
	// Countdown phase. Every tick is persisted so status polls see it.
	for i := e.countdown; i >= 1; i-- {
		n := i
		sess.Countdown = &n
		if err := e.store.Save(ctx, sess); err != nil {
			return fmt.Errorf("persist countdown: %w", err)
		}
		if !emit(ctx, events, Event{Type: EventCountdown, Countdown: n}) {
			return ctx.Err()
		}
		e.sleep(time.Second)
	}

	// Transition to recording: countdown cleared, frame list reset.
	start := e.now().UTC()
	sess.Countdown = nil
	sess.Recording = true
	sess.RecordingStart = &start
	sess.Frames = []session.Frame{}
	if err := e.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("persist recording start: %w", err)
	}

	for {
		elapsed := e.now().UTC().Sub(start).Seconds()
		if elapsed >= sess.TargetDuration {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		frame, err := src.Read()
		if err != nil {
			// A single bad frame is tolerated, never fatal.
			log.Warn("camera read skipped", "session", sess.ID, "error", err)
			e.sleep(readRetryDelay)
			continue
		}
		if frame.Landmarks == nil {
			continue
		}

		timestamp := e.now().UTC().Sub(start).Seconds()
		captured := session.Frame{
			Timestamp: timestamp,
			Pose:      e.mapper.Map(frame.Landmarks, frame.Width, frame.Height),
			Thumbnail: base64.StdEncoding.EncodeToString(frame.Thumbnail),
		}
		if err := sess.AppendFrame(captured); err != nil {
			log.Warn("frame dropped", "session", sess.ID, "error", err)
			continue
		}
		if err := e.store.Save(ctx, sess); err != nil {
			return fmt.Errorf("persist frame: %w", err)
		}

		timeLeft := math.Max(0, sess.TargetDuration-timestamp)
		ok := emit(ctx, events, Event{
			Type:     EventFrame,
			Image:    captured.Thumbnail,
			TimeLeft: math.Round(timeLeft*10) / 10,
		})
		if !ok {
			return ctx.Err()
		}
	}

	sess.Recording = false
	sess.Finished = true
	if err := e.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("persist finish: %w", err)
	}
	emit(ctx, events, Event{Type: EventFinished, Frames: len(sess.Frames)})
	return nil
}
