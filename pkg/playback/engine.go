package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/KrystelLucin/go-loly/internal/log"
)

// Engine replays a choreography over two independent channels: narrated
// audio on the speaker and motion tramas on the actuator bus.
//
// The channels are started back to back and run free; there is no
// mid-stream re-synchronization. The only alignment guarantee is the
// simultaneous start.
type Engine struct {
	openBus func() (Bus, error)
	player  AudioPlayer

	// Injected for tests.
	sleep func(time.Duration)
}

// NewEngine builds a playback engine. The bus is opened lazily at the start
// of each playback so the port is only held while a story runs.
func NewEngine(openBus func() (Bus, error), player AudioPlayer) *Engine {
	return &Engine{
		openBus: openBus,
		player:  player,
		sleep:   time.Sleep,
	}
}

// Execute plays the audio file and streams the document's frames, waiting
// for both channels to drain. A failure on one channel never interrupts the
// other; the combined error reports whatever went wrong.
func (e *Engine) Execute(audioPath string, doc Document) error {
	var wg sync.WaitGroup
	var audioErr, motionErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		if audioPath == "" {
			return
		}
		if err := e.player.Play(audioPath); err != nil {
			audioErr = fmt.Errorf("audio channel: %w", err)
			log.Error("audio playback failed", "path", audioPath, "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := e.streamMotion(doc); err != nil {
			motionErr = fmt.Errorf("motion channel: %w", err)
			log.Error("motion playback failed", "error", err)
		}
	}()
	wg.Wait()

	return errors.Join(audioErr, motionErr)
}

// streamMotion writes every frame of the document to the bus, holding each
// one for its declared duration.
func (e *Engine) streamMotion(doc Document) error {
	if doc.FrameCount() == 0 {
		return nil
	}
	bus, err := e.openBus()
	if err != nil {
		return err
	}
	defer bus.Close()

	for _, seg := range doc {
		for _, gesture := range seg.Gestures {
			for _, nf := range gesture.Frames {
				if err := bus.WriteFrame(nf.Frame.Trama()); err != nil {
					return fmt.Errorf("frame %q: %w", nf.Name, err)
				}
				e.sleep(nf.Frame.Hold())
			}
		}
	}
	return nil
}
