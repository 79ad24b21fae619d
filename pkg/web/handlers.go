package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/KrystelLucin/go-loly/pkg/gesture"
	"github.com/KrystelLucin/go-loly/pkg/session"
	"github.com/KrystelLucin/go-loly/pkg/story"
	"github.com/KrystelLucin/go-loly/pkg/stream"
)

// CreateSessionRequest opens a new recording session.
type CreateSessionRequest struct {
	Kind     string   `json:"kind"`
	Emotion  string   `json:"emotion"`
	Keywords []string `json:"keywords"`
	Duration float64  `json:"target_duration_seconds"`
}

// ApproveRequest names the gesture a session becomes.
type ApproveRequest struct {
	Name string `json:"name"`
}

// StoryRequest creates or updates a story.
type StoryRequest struct {
	Title        string `json:"title"`
	Text         string `json:"text"`
	AudioURL     string `json:"audio_url"`
	MovementsURL string `json:"movements_url"`
	Emotion      string `json:"emotion"`
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	sess, err := s.gestures.Create(c.Context(), session.Kind(req.Kind), req.Emotion, req.Keywords, req.Duration)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(sess)
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	st, err := s.gestures.Get(c.Context(), c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(st)
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	if err := s.gestures.Delete(c.Context(), c.Params("id")); err != nil {
		return sessionError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleApproveSession(c *fiber.Ctx) error {
	var req ApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	url, err := s.gestures.Approve(c.Context(), c.Params("id"), req.Name)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(fiber.Map{"asset_url": url})
}

func (s *Server) handlePreviewSession(c *fiber.Ctx) error {
	url, err := s.gestures.Preview(c.Context(), c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(fiber.Map{"preview_url": url})
}

func (s *Server) handleListStories(c *fiber.Ctx) error {
	stories, err := s.stories.List(c.Context())
	if err != nil {
		return internalError(c, err)
	}
	if stories == nil {
		stories = []*story.Story{}
	}
	return c.JSON(stories)
}

func (s *Server) handleCreateStory(c *fiber.Ctx) error {
	var req StoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Title == "" || req.MovementsURL == "" {
		return badRequest(c, "title and movements_url required")
	}
	st := &story.Story{
		Title:        req.Title,
		Text:         req.Text,
		AudioURL:     req.AudioURL,
		MovementsURL: req.MovementsURL,
		Emotion:      req.Emotion,
	}
	if err := s.stories.Save(c.Context(), st); err != nil {
		return internalError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(st)
}

func (s *Server) handleGetStory(c *fiber.Ctx) error {
	st, err := s.stories.Get(c.Context(), c.Params("id"))
	if err != nil {
		return storyError(c, err)
	}
	return c.JSON(st)
}

func (s *Server) handlePlayStory(c *fiber.Ctx) error {
	if err := s.stories.Play(c.Context(), c.Params("id")); err != nil {
		return storyError(c, err)
	}
	return c.JSON(fiber.Map{"status": "playing"})
}

func (s *Server) handleStreamStory(c *fiber.Ctx) error {
	err := s.stories.StreamToRobot(c.Context(), c.Params("id"), c.Params("robot"))
	if err != nil {
		if errors.Is(err, stream.ErrNotConnected) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "robot not connected"})
		}
		return storyError(c, err)
	}
	return c.JSON(fiber.Map{"status": "streamed"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func internalError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

// sessionError maps session sentinels to HTTP statuses.
func sessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found or expired"})
	case errors.Is(err, session.ErrSessionFinished),
		errors.Is(err, session.ErrAlreadyRecording),
		errors.Is(err, gesture.ErrNotFinished),
		errors.Is(err, gesture.ErrNoFrames):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return internalError(c, err)
	}
}

func storyError(c *fiber.Ctx, err error) error {
	if errors.Is(err, story.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "story not found"})
	}
	return internalError(c, err)
}
