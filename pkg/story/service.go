package story

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/KrystelLucin/go-loly/internal/httpc"
	"github.com/KrystelLucin/go-loly/internal/log"
	"github.com/KrystelLucin/go-loly/pkg/playback"
	"github.com/KrystelLucin/go-loly/pkg/stream"
)

// Service executes stories against the local robot or a remote one.
type Service struct {
	repo    Repository
	engine  *playback.Engine
	streams *stream.Manager

	// Injected for tests; defaults to the shared HTTP client.
	fetch func(url string) ([]byte, error)
}

// NewService wires the story use cases.
func NewService(repo Repository, engine *playback.Engine, streams *stream.Manager) *Service {
	return &Service{
		repo:    repo,
		engine:  engine,
		streams: streams,
		fetch:   fetchURL,
	}
}

// Save persists a story through the repository.
func (s *Service) Save(ctx context.Context, st *Story) error {
	return s.repo.Save(ctx, st)
}

// Get fetches one story.
func (s *Service) Get(ctx context.Context, id string) (*Story, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all stories.
func (s *Service) List(ctx context.Context) ([]*Story, error) {
	return s.repo.List(ctx)
}

func fetchURL(url string) ([]byte, error) {
	resp, err := httpc.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Play performs the story on the locally attached robot. Assets are
// downloaded up front so a bad URL fails before anything moves; the
// performance itself runs in the background and Play returns immediately.
func (s *Service) Play(ctx context.Context, id string) error {
	audioPath, doc, err := s.stage(ctx, id)
	if err != nil {
		return err
	}
	go func() {
		if err := s.run(id, audioPath, doc); err != nil {
			log.Error("story playback incomplete", "story", id, "error", err)
		}
	}()
	return nil
}

// Perform is the blocking form of Play, used by the CLI.
func (s *Service) Perform(ctx context.Context, id string) error {
	audioPath, doc, err := s.stage(ctx, id)
	if err != nil {
		return err
	}
	return s.run(id, audioPath, doc)
}

// stage downloads the story's assets: the motion document parsed, the audio
// landed in a temp file the runner removes.
func (s *Service) stage(ctx context.Context, id string) (string, playback.Document, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", nil, err
	}

	doc, err := s.motionDocument(st)
	if err != nil {
		return "", nil, err
	}

	audioPath := ""
	if st.AudioURL != "" {
		audio, err := s.fetch(st.AudioURL)
		if err != nil {
			return "", nil, fmt.Errorf("story audio: %w", err)
		}
		f, err := os.CreateTemp("", "story-audio-*.wav")
		if err != nil {
			return "", nil, fmt.Errorf("stage audio: %w", err)
		}
		if _, err := f.Write(audio); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", nil, fmt.Errorf("stage audio: %w", err)
		}
		f.Close()
		audioPath = f.Name()
	}
	return audioPath, doc, nil
}

func (s *Service) run(id, audioPath string, doc playback.Document) error {
	defer func() {
		if audioPath != "" {
			os.Remove(audioPath)
		}
	}()
	if err := s.engine.Execute(audioPath, doc); err != nil {
		return err
	}
	log.Info("story played", "story", id, "frames", doc.FrameCount())
	return nil
}

// StreamToRobot pushes the story's choreography to a connected remote
// robot: the audio-start signal once, then every segment's motion frames.
func (s *Service) StreamToRobot(ctx context.Context, id, robotID string) error {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.streams.IsConnected(robotID) {
		return stream.ErrNotConnected
	}

	doc, err := s.motionDocument(st)
	if err != nil {
		return err
	}

	// Later segments reference the same narration track; announcing it
	// again would start overlapping playbacks on the robot.
	audioURL := st.AudioURL
	if len(doc) > 0 && doc[0].AudioURL != "" {
		audioURL = doc[0].AudioURL
	}
	if err := s.streams.Stream(robotID, audioURL, doc); err != nil {
		return err
	}
	log.Info("story streamed", "story", id, "robot", robotID, "segments", len(doc))
	return nil
}

func (s *Service) motionDocument(st *Story) (playback.Document, error) {
	raw, err := s.fetch(st.MovementsURL)
	if err != nil {
		return nil, fmt.Errorf("story movements: %w", err)
	}
	doc, err := playback.ParseDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("story movements: %w", err)
	}
	return doc, nil
}
