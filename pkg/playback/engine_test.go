package playback

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBus records every trama written and each pacing sleep taken between
// writes, so tests can check ordering and timing together.
type fakeBus struct {
	mu     sync.Mutex
	writes [][]byte
	failAt int // 1-based write index that errors; 0 means never
	closed bool
}

func (b *fakeBus) WriteFrame(trama []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAt > 0 && len(b.writes)+1 == b.failAt {
		return errors.New("bus gone")
	}
	cp := make([]byte, len(trama))
	copy(cp, trama)
	b.writes = append(b.writes, cp)
	return nil
}

func (b *fakeBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

type fakePlayer struct {
	mu     sync.Mutex
	played []string
	err    error
}

func (p *fakePlayer) Play(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, path)
	return p.err
}

func testDocument(durations ...float64) Document {
	gesture := Gesture{}
	for i, d := range durations {
		gesture.Frames = append(gesture.Frames, NamedFrame{
			Name: string(rune('a' + i)),
			Frame: MotionFrame{
				Head:     Head{Pitch: 50 + i, Yaw: 50, Roll: 50},
				Duration: d,
			},
		})
	}
	return Document{{AudioURL: "x", Gestures: []Gesture{gesture}}}
}

func newTestEngine(bus *fakeBus, player AudioPlayer) (*Engine, *[]time.Duration) {
	var slept []time.Duration
	var mu sync.Mutex
	e := NewEngine(func() (Bus, error) { return bus, nil }, player)
	e.sleep = func(d time.Duration) {
		mu.Lock()
		slept = append(slept, d)
		mu.Unlock()
	}
	return e, &slept
}

func TestExecute_StreamsFramesInOrderWithPacing(t *testing.T) {
	bus := &fakeBus{}
	player := &fakePlayer{}
	engine, slept := newTestEngine(bus, player)

	doc := testDocument(0.08, 0, 0.12)
	if err := engine.Execute("/tmp/story.wav", doc); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(bus.writes) != 3 {
		t.Fatalf("got %d writes, want 3", len(bus.writes))
	}
	for i, w := range bus.writes {
		want := doc[0].Gestures[0].Frames[i].Frame.Trama()
		if !bytes.Equal(w, want) {
			t.Errorf("write %d: got %v, want %v", i, w, want)
		}
	}

	wantSleeps := []time.Duration{
		80 * time.Millisecond,
		DefaultFrameDuration,
		120 * time.Millisecond,
	}
	if len(*slept) != len(wantSleeps) {
		t.Fatalf("got %d sleeps, want %d", len(*slept), len(wantSleeps))
	}
	for i, d := range wantSleeps {
		if (*slept)[i] != d {
			t.Errorf("sleep %d: got %v, want %v", i, (*slept)[i], d)
		}
	}

	if len(player.played) != 1 || player.played[0] != "/tmp/story.wav" {
		t.Errorf("audio played %v, want the story file once", player.played)
	}
	if !bus.closed {
		t.Error("bus not closed after playback")
	}
}

func TestExecute_AudioFailureDoesNotStopMotion(t *testing.T) {
	bus := &fakeBus{}
	player := &fakePlayer{err: errors.New("speaker unplugged")}
	engine, _ := newTestEngine(bus, player)

	err := engine.Execute("/tmp/story.wav", testDocument(0, 0))
	if err == nil {
		t.Fatal("expected combined error from audio channel")
	}
	if len(bus.writes) != 2 {
		t.Errorf("motion wrote %d frames, want 2 despite audio failure", len(bus.writes))
	}
}

func TestExecute_MotionFailureDoesNotStopAudio(t *testing.T) {
	bus := &fakeBus{failAt: 2}
	player := &fakePlayer{}
	engine, _ := newTestEngine(bus, player)

	err := engine.Execute("/tmp/story.wav", testDocument(0, 0, 0))
	if err == nil {
		t.Fatal("expected combined error from motion channel")
	}
	if len(player.played) != 1 {
		t.Errorf("audio played %d times, want 1 despite motion failure", len(player.played))
	}
	if !bus.closed {
		t.Error("bus not closed after motion failure")
	}
}

func TestExecute_EmptyDocumentSkipsBus(t *testing.T) {
	opened := false
	engine := NewEngine(func() (Bus, error) {
		opened = true
		return &fakeBus{}, nil
	}, &fakePlayer{})
	engine.sleep = func(time.Duration) {}

	if err := engine.Execute("", Document{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if opened {
		t.Error("bus opened for an empty document")
	}
}

func TestExecute_BusOpenFailure(t *testing.T) {
	player := &fakePlayer{}
	engine := NewEngine(func() (Bus, error) {
		return nil, errors.New("port busy")
	}, player)
	engine.sleep = func(time.Duration) {}

	err := engine.Execute("/tmp/story.wav", testDocument(0))
	if err == nil {
		t.Fatal("expected error when bus cannot open")
	}
	if len(player.played) != 1 {
		t.Errorf("audio played %d times, want 1 despite bus failure", len(player.played))
	}
}
