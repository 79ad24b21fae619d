package web

import (
	"context"

	"github.com/gofiber/websocket/v2"

	"github.com/KrystelLucin/go-loly/internal/log"
	"github.com/KrystelLucin/go-loly/pkg/stream"
)

// handleRecordingWS runs one live recording over a websocket: the countdown,
// per-frame thumbnails, and the finished event, in order.
func (s *Server) handleRecordingWS(c *websocket.Conn) {
	defer c.Close()
	id := c.Params("id")

	src, err := s.openCamera()
	if err != nil {
		log.Error("camera unavailable", "session", id, "error", err)
		c.WriteJSON(map[string]string{"error": "camera unavailable"})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.recorder.Stream(ctx, src, id)
	if err != nil {
		c.WriteJSON(map[string]string{"error": err.Error()})
		return
	}

	for ev := range events {
		if err := c.WriteJSON(ev); err != nil {
			// Peer gone: stop the recording and drain the engine out.
			cancel()
			for range events {
			}
			return
		}
	}
}

// handleRobotWS keeps a remote robot's control channel registered for the
// lifetime of its connection.
func (s *Server) handleRobotWS(c *websocket.Conn) {
	id := c.Params("id")

	t := stream.NewWSTransport(c)
	s.streams.Connect(id, t)
	t.ReadPump()
	s.streams.Disconnect(id, t)
}
