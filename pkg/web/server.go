// Package web is the HTTP and websocket surface: session lifecycle for the
// operator UI, story playback, and the remote robot control channel.
package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/KrystelLucin/go-loly/internal/log"
	"github.com/KrystelLucin/go-loly/pkg/capture"
	"github.com/KrystelLucin/go-loly/pkg/gesture"
	"github.com/KrystelLucin/go-loly/pkg/record"
	"github.com/KrystelLucin/go-loly/pkg/story"
	"github.com/KrystelLucin/go-loly/pkg/stream"
)

// Server wires the domain services to their HTTP routes.
type Server struct {
	app *fiber.App

	gestures *gesture.Service
	recorder *record.Engine
	stories  *story.Service
	streams  *stream.Manager

	// openCamera acquires the capture source for one recording. Injected so
	// tests never need real hardware.
	openCamera func() (capture.Source, error)
}

// Options carries the server's collaborators.
type Options struct {
	Gestures   *gesture.Service
	Recorder   *record.Engine
	Stories    *story.Service
	Streams    *stream.Manager
	OpenCamera func() (capture.Source, error)

	// BlobDir, when set, is served under /blobs.
	BlobDir string
}

// NewServer builds the fiber app and its routes.
func NewServer(opts Options) *Server {
	s := &Server{
		gestures:   opts.Gestures,
		recorder:   opts.Recorder,
		stories:    opts.Stories,
		streams:    opts.Streams,
		openCamera: opts.OpenCamera,
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-loly",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	if opts.BlobDir != "" {
		app.Static("/blobs", opts.BlobDir)
	}

	api := app.Group("/api")
	api.Post("/sessions", s.handleCreateSession)
	api.Get("/sessions/:id", s.handleGetSession)
	api.Delete("/sessions/:id", s.handleDeleteSession)
	api.Post("/sessions/:id/approve", s.handleApproveSession)
	api.Post("/sessions/:id/preview", s.handlePreviewSession)

	api.Get("/stories", s.handleListStories)
	api.Post("/stories", s.handleCreateStory)
	api.Get("/stories/:id", s.handleGetStory)
	api.Post("/stories/:id/play", s.handlePlayStory)
	api.Post("/stories/:id/stream/:robot", s.handleStreamStory)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/sessions/:id", websocket.New(s.handleRecordingWS))
	app.Get("/ws/robot/:id", websocket.New(s.handleRobotWS))

	s.app = app
	return s
}

// Listen blocks serving on addr.
func (s *Server) Listen(addr string) error {
	log.Info("web server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
