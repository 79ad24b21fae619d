package stream

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/KrystelLucin/go-loly/pkg/playback"
)

// fakeTransport records pushed payloads and can be killed mid-stream.
type fakeTransport struct {
	mu       sync.Mutex
	payloads []string
	dead     bool
	failOn   map[int]bool // push index (0-based) -> error
	dieAfter int          // kill the transport after N pushes; 0 means never
	closed   bool
}

func (t *fakeTransport) Push(payload string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := len(t.payloads)
	t.payloads = append(t.payloads, payload)
	if t.dieAfter > 0 && i+1 >= t.dieAfter {
		t.dead = true
	}
	if t.failOn[i] {
		return errors.New("push rejected")
	}
	return nil
}

func (t *fakeTransport) Alive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.dead
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dead = true
	t.closed = true
	return nil
}

func newTestManager() *Manager {
	m := NewManager()
	m.sleep = func(time.Duration) {}
	return m
}

func docOfFrames(n int) playback.Document {
	g := playback.Gesture{}
	for i := 0; i < n; i++ {
		g.Frames = append(g.Frames, playback.NamedFrame{
			Name:  fmt.Sprintf("f%d", i),
			Frame: playback.MotionFrame{Head: playback.Head{Pitch: 40 + i, Yaw: 50, Roll: 50}},
		})
	}
	return playback.Document{{Gestures: []playback.Gesture{g}}}
}

func TestStream_PushGrammar(t *testing.T) {
	m := newTestManager()
	tr := &fakeTransport{}
	m.Connect("loly-1", tr)

	doc := docOfFrames(2)
	if err := m.Stream("loly-1", "http://host/blobs/seg0.wav", doc); err != nil {
		t.Fatalf("Stream: %v", err)
	}

	if len(tr.payloads) != 3 {
		t.Fatalf("got %d payloads, want 3", len(tr.payloads))
	}
	if tr.payloads[0] != "event: audio\ndata: http://host/blobs/seg0.wav\n\n" {
		t.Errorf("audio event malformed: %q", tr.payloads[0])
	}
	for i, p := range tr.payloads[1:] {
		wantHex := doc[0].Gestures[0].Frames[i].Frame.TramaHex()
		want := "data: " + wantHex + ",0.04\n\n"
		if p != want {
			t.Errorf("frame payload %d: got %q, want %q", i, p, want)
		}
	}
}

func TestStream_NotConnected(t *testing.T) {
	m := newTestManager()
	if err := m.Stream("ghost", "", docOfFrames(1)); !errors.Is(err, ErrNotConnected) {
		t.Errorf("got %v, want ErrNotConnected", err)
	}

	// A dead transport counts as not connected.
	tr := &fakeTransport{dead: true}
	m.Connect("loly-1", tr)
	if err := m.Stream("loly-1", "", docOfFrames(1)); !errors.Is(err, ErrNotConnected) {
		t.Errorf("dead transport: got %v, want ErrNotConnected", err)
	}
}

func TestStream_FramePushFailureSkipped(t *testing.T) {
	m := newTestManager()
	tr := &fakeTransport{failOn: map[int]bool{1: true}}
	m.Connect("loly-1", tr)

	if err := m.Stream("loly-1", "", docOfFrames(3)); err != nil {
		t.Fatalf("Stream should swallow per-frame failures, got %v", err)
	}
	if len(tr.payloads) != 3 {
		t.Errorf("got %d pushes, want all 3 attempted", len(tr.payloads))
	}
}

func TestStream_DisconnectMidStreamDropsSilently(t *testing.T) {
	m := newTestManager()
	tr := &fakeTransport{dieAfter: 2}
	m.Connect("loly-1", tr)

	if err := m.Stream("loly-1", "", docOfFrames(10)); err != nil {
		t.Fatalf("mid-stream disconnect must not error, got %v", err)
	}
	if len(tr.payloads) >= 10 {
		t.Errorf("stream did not stop after disconnect: %d pushes", len(tr.payloads))
	}
}

func TestConnect_ReplacesPreviousTransport(t *testing.T) {
	m := newTestManager()
	old := &fakeTransport{}
	m.Connect("loly-1", old)

	fresh := &fakeTransport{}
	m.Connect("loly-1", fresh)

	if !old.closed {
		t.Error("previous transport not closed on reconnect")
	}
	if !m.IsConnected("loly-1") {
		t.Error("fresh transport not registered")
	}

	// A stale disconnect from the old transport must not evict the new one.
	m.Disconnect("loly-1", old)
	if !m.IsConnected("loly-1") {
		t.Error("stale disconnect evicted fresh transport")
	}

	m.Disconnect("loly-1", fresh)
	if m.IsConnected("loly-1") {
		t.Error("robot still connected after disconnect")
	}
}

func TestStream_AudioEventFailureAborts(t *testing.T) {
	m := newTestManager()
	tr := &fakeTransport{failOn: map[int]bool{0: true}}
	m.Connect("loly-1", tr)

	if err := m.Stream("loly-1", "http://host/a.wav", docOfFrames(2)); err == nil {
		t.Fatal("expected error when the audio event cannot be delivered")
	}
	if len(tr.payloads) != 1 {
		t.Errorf("frames pushed after failed audio event: %d payloads", len(tr.payloads))
	}
}
