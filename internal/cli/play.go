package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KrystelLucin/go-loly/pkg/playback"
	"github.com/KrystelLucin/go-loly/pkg/story"
	"github.com/KrystelLucin/go-loly/pkg/stream"
)

var playCmd = &cobra.Command{
	Use:   "play <story-id>",
	Short: "Perform a story on the locally attached robot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		repo, err := story.NewSQLiteRepository(cfg.Storage.DatabasePath)
		if err != nil {
			return fmt.Errorf("story repository: %w", err)
		}
		defer repo.Close()

		engine := playback.NewEngine(func() (playback.Bus, error) {
			return playback.OpenSerialBus(cfg.Robot.SerialPort, cfg.Robot.BaudRate)
		}, playback.NewExecPlayer(cfg.Robot.AudioPlayer))

		svc := story.NewService(repo, engine, stream.NewManager())
		return svc.Perform(cmd.Context(), args[0])
	},
}
