package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KrystelLucin/go-loly/internal/config"
	"github.com/KrystelLucin/go-loly/internal/log"
	"github.com/KrystelLucin/go-loly/pkg/capture"
	"github.com/KrystelLucin/go-loly/pkg/gesture"
	"github.com/KrystelLucin/go-loly/pkg/playback"
	"github.com/KrystelLucin/go-loly/pkg/pose"
	"github.com/KrystelLucin/go-loly/pkg/record"
	"github.com/KrystelLucin/go-loly/pkg/session"
	"github.com/KrystelLucin/go-loly/pkg/storage"
	"github.com/KrystelLucin/go-loly/pkg/story"
	"github.com/KrystelLucin/go-loly/pkg/stream"
	"github.com/KrystelLucin/go-loly/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the capture and playback service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func serve(cfg *config.Config) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	store, err := session.OpenRedisStore(cfg.Sessions.RedisURL,
		session.WithTTL(time.Duration(cfg.Sessions.TTLMinutes)*time.Minute))
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}

	blobs, err := storage.NewLocalStore(cfg.Storage.BlobDir, cfg.Server.PublicBaseURL+"/blobs")
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}
	defer blobs.Close()

	repo, err := story.NewSQLiteRepository(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("story repository: %w", err)
	}
	defer repo.Close()

	mapper, err := pose.NewMapper(pose.Profile(cfg.Pose.Profile))
	if err != nil {
		return err
	}

	detector, err := capture.NewHTTPDetector(cfg.Capture.DetectorURL,
		capture.DetectorMode(cfg.Capture.DetectorMode))
	if err != nil {
		return err
	}
	cameraCfg := capture.CameraConfig{
		Index:       cfg.Capture.CameraIndex,
		ThumbWidth:  cfg.Capture.ThumbWidth,
		ThumbHeight: cfg.Capture.ThumbHeight,
	}

	engine := playback.NewEngine(func() (playback.Bus, error) {
		return playback.OpenSerialBus(cfg.Robot.SerialPort, cfg.Robot.BaudRate)
	}, playback.NewExecPlayer(cfg.Robot.AudioPlayer))

	streams := stream.NewManager()

	srv := web.NewServer(web.Options{
		Gestures: gesture.NewService(store, blobs),
		Recorder: record.NewEngine(store, mapper, record.WithCountdown(cfg.Sessions.Countdown)),
		Stories:  story.NewService(repo, engine, streams),
		Streams:  streams,
		OpenCamera: func() (capture.Source, error) {
			return capture.OpenCamera(cameraCfg, detector)
		},
		BlobDir: cfg.Storage.BlobDir,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(cfg.Server.ListenAddr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
		return srv.Shutdown()
	}
}
