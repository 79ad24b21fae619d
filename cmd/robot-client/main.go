// robot-client runs on the robot body: it dials the control server, feeds
// pushed tramas to the local servo bus, and plays narration audio when the
// server announces it.
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/KrystelLucin/go-loly/internal/httpc"
	"github.com/KrystelLucin/go-loly/internal/log"
	"github.com/KrystelLucin/go-loly/pkg/playback"
)

func main() {
	var (
		server  = flag.String("server", "ws://localhost:8080", "control server base URL (ws:// or wss://)")
		robotID = flag.String("id", "loly", "robot id to register under")
		port    = flag.String("port", "/dev/ttyUSB0", "serial port of the actuator bus")
		baud    = flag.Int("baud", playback.DefaultBaudRate, "serial baud rate")
		player  = flag.String("player", "", "audio player command (default aplay)")
	)
	flag.Parse()
	log.Init(os.Getenv("LOLY_LOG_LEVEL"))

	bus, err := playback.OpenSerialBus(*port, *baud)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer bus.Close()

	url := strings.TrimRight(*server, "/") + "/ws/robot/" + *robotID
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: connect %s: %v\n", url, err)
		os.Exit(1)
	}
	defer conn.Close()
	log.Info("connected to control server", "url", url)

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		conn.Close()
	}()

	audio := playback.NewExecPlayer(*player)
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			log.Info("control connection closed", "error", err)
			return
		}
		handlePayload(string(payload), bus, audio)
	}
}

// handlePayload dispatches one pushed message: an audio announcement or a
// single paced motion frame.
func handlePayload(payload string, bus playback.Bus, audio playback.AudioPlayer) {
	payload = strings.TrimSuffix(payload, "\n\n")

	if strings.HasPrefix(payload, "event: audio\n") {
		url := strings.TrimPrefix(payload, "event: audio\n")
		url = strings.TrimPrefix(url, "data: ")
		go playRemoteAudio(audio, url)
		return
	}

	body, ok := strings.CutPrefix(payload, "data: ")
	if !ok {
		log.Warn("unrecognized payload", "payload", payload)
		return
	}
	hexTrama, durStr, ok := strings.Cut(body, ",")
	if !ok {
		log.Warn("malformed frame payload", "payload", payload)
		return
	}

	trama, err := playback.DecodeTrama(hexTrama)
	if err != nil {
		log.Warn("bad trama", "error", err)
		return
	}
	if err := bus.WriteFrame(trama); err != nil {
		log.Warn("servo write failed", "error", err)
		return
	}
	if secs, err := strconv.ParseFloat(durStr, 64); err == nil && secs > 0 {
		time.Sleep(time.Duration(secs * float64(time.Second)))
	}
}

// playRemoteAudio downloads the narration and plays it through the local
// speaker. Failures are logged; motion keeps running regardless.
func playRemoteAudio(audio playback.AudioPlayer, url string) {
	resp, err := httpc.Get(url)
	if err != nil {
		log.Error("audio download failed", "url", url, "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Error("audio download failed", "url", url, "status", resp.StatusCode)
		return
	}

	f, err := os.CreateTemp("", "loly-audio-*.wav")
	if err != nil {
		log.Error("audio staging failed", "error", err)
		return
	}
	defer os.Remove(f.Name())
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		log.Error("audio staging failed", "error", err)
		return
	}
	f.Close()

	if err := audio.Play(f.Name()); err != nil {
		log.Error("audio playback failed", "error", err)
	}
}
