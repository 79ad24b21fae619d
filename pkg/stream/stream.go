// Package stream pushes story choreography to remote robot clients over
// their long-lived control connections.
package stream

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/KrystelLucin/go-loly/internal/log"
	"github.com/KrystelLucin/go-loly/pkg/playback"
)

// ErrNotConnected is returned when no robot client holds the given id.
var ErrNotConnected = errors.New("robot not connected")

// Transport is one remote robot's control connection. Push delivers a
// single text payload; Alive reports whether the peer is still there.
type Transport interface {
	Push(payload string) error
	Alive() bool
	Close() error
}

// Manager tracks connected robot clients by id and streams choreography
// to them. A reconnect under the same id replaces the previous transport.
type Manager struct {
	mu     sync.Mutex
	robots map[string]Transport

	// Injected for tests.
	sleep func(time.Duration)
}

// NewManager creates an empty connection registry.
func NewManager() *Manager {
	return &Manager{
		robots: make(map[string]Transport),
		sleep:  time.Sleep,
	}
}

// Connect registers a robot transport, displacing any previous connection
// with the same id.
func (m *Manager) Connect(id string, t Transport) {
	m.mu.Lock()
	prev := m.robots[id]
	m.robots[id] = t
	m.mu.Unlock()

	if prev != nil {
		prev.Close()
		log.Info("robot reconnected, previous transport dropped", "robot", id)
	} else {
		log.Info("robot connected", "robot", id)
	}
}

// Disconnect removes the robot's transport. It only removes the given
// transport, so a stale disconnect cannot evict a fresh reconnect.
func (m *Manager) Disconnect(id string, t Transport) {
	m.mu.Lock()
	if m.robots[id] == t {
		delete(m.robots, id)
	}
	m.mu.Unlock()
	log.Info("robot disconnected", "robot", id)
}

// IsConnected reports whether a live transport holds the id.
func (m *Manager) IsConnected(id string) bool {
	m.mu.Lock()
	t := m.robots[id]
	m.mu.Unlock()
	return t != nil && t.Alive()
}

func (m *Manager) transport(id string) (Transport, error) {
	m.mu.Lock()
	t := m.robots[id]
	m.mu.Unlock()
	if t == nil || !t.Alive() {
		return nil, ErrNotConnected
	}
	return t, nil
}

// Stream pushes the audio reference once, followed by every motion frame
// of every segment, paced by each frame's declared hold.
//
// Push failures on individual frames are logged and skipped; the stream
// keeps going so a transient hiccup does not truncate the story. If the
// robot disconnects mid-stream, the remainder is dropped silently.
func (m *Manager) Stream(id string, audioURL string, doc playback.Document) error {
	t, err := m.transport(id)
	if err != nil {
		return err
	}

	if audioURL != "" {
		payload := fmt.Sprintf("event: audio\ndata: %s\n\n", audioURL)
		if err := t.Push(payload); err != nil {
			return fmt.Errorf("push audio event: %w", err)
		}
	}

	for _, seg := range doc {
		for _, gesture := range seg.Gestures {
			for _, nf := range gesture.Frames {
				if !t.Alive() {
					log.Info("robot gone mid-stream, dropping remainder", "robot", id)
					return nil
				}
				hold := nf.Frame.Hold()
				payload := fmt.Sprintf("data: %s,%s\n\n",
					nf.Frame.TramaHex(),
					strconv.FormatFloat(hold.Seconds(), 'g', -1, 64))
				if err := t.Push(payload); err != nil {
					log.Warn("frame push failed, skipping", "robot", id, "frame", nf.Name, "error", err)
				}
				m.sleep(hold)
			}
		}
	}
	return nil
}
