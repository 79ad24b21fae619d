// Package cli implements the loly command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/KrystelLucin/go-loly/internal/config"
	"github.com/KrystelLucin/go-loly/internal/log"
)

var configPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "loly",
	Short: "Storytelling robot service",
	Long:  "Gesture capture, pose mapping, and synchronized story playback for the Loly animatronic.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file path (default: ~/.config/go-loly/config.toml)")
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(playCmd)
}

// loadConfig loads configuration and initializes logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log.Init(cfg.LogLevel)
	return cfg, nil
}
