// Package config loads the go-loly service configuration from a TOML file
// with environment variable overrides for deployment-specific values.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains HTTP server settings.
type Server struct {
	ListenAddr string `toml:"listen_addr"`
	// PublicBaseURL is the externally reachable base URL used when building
	// asset links handed to clients and to the robot.
	PublicBaseURL string `toml:"public_base_url"`
}

// Sessions contains gesture session store settings.
type Sessions struct {
	RedisURL   string  `toml:"redis_url"`
	TTLMinutes int     `toml:"ttl_minutes"`
	Countdown  int     `toml:"countdown_seconds"`
	DefaultDur float64 `toml:"default_duration_seconds"`
}

// Capture contains camera and pose detector settings.
type Capture struct {
	CameraIndex int    `toml:"camera_index"`
	DetectorURL string `toml:"detector_url"`
	// DetectorMode selects the landmark capability: "pose" or "pose_face".
	DetectorMode string `toml:"detector_mode"`
	ThumbWidth   int    `toml:"thumb_width"`
	ThumbHeight  int    `toml:"thumb_height"`
}

// Robot contains actuator bus and audio output settings.
type Robot struct {
	SerialPort string `toml:"serial_port"`
	BaudRate   int    `toml:"baud_rate"`
	// AudioPlayer is the external command used for blocking WAV playback.
	AudioPlayer string `toml:"audio_player"`
}

// Storage contains blob and story repository settings.
type Storage struct {
	BlobDir      string `toml:"blob_dir"`
	DatabasePath string `toml:"database_path"`
}

// Pose contains pose mapping settings.
type Pose struct {
	// Profile selects the calibration profile: "table" or "torso".
	Profile string `toml:"profile"`
}

// Config is the root configuration for all go-loly commands.
type Config struct {
	LogLevel string   `toml:"log_level"`
	Server   Server   `toml:"server"`
	Sessions Sessions `toml:"sessions"`
	Capture  Capture  `toml:"capture"`
	Robot    Robot    `toml:"robot"`
	Storage  Storage  `toml:"storage"`
	Pose     Pose     `toml:"pose"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Server: Server{
			ListenAddr:    ":8080",
			PublicBaseURL: "http://localhost:8080",
		},
		Sessions: Sessions{
			RedisURL:   "redis://localhost:6379/0",
			TTLMinutes: 30,
			Countdown:  3,
			DefaultDur: 5.0,
		},
		Capture: Capture{
			CameraIndex:  0,
			DetectorURL:  "http://localhost:9090/landmarks",
			DetectorMode: "pose",
			ThumbWidth:   640,
			ThumbHeight:  480,
		},
		Robot: Robot{
			SerialPort:  "/dev/ttyUSB0",
			BaudRate:    1000000,
			AudioPlayer: "aplay",
		},
		Storage: Storage{
			BlobDir:      "./data/blobs",
			DatabasePath: "./data/loly.db",
		},
		Pose: Pose{Profile: "table"},
	}
}

// DefaultConfigPath returns the conventional config location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", "go-loly", "config.toml"), nil
}

// Load parses and validates a configuration file. A missing file is not an
// error; defaults plus environment overrides apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Fall through with defaults.
	default:
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv applies environment variable overrides for values that commonly
// differ per deployment.
func (c *Config) applyEnv() {
	if v := os.Getenv("LOLY_REDIS_URL"); v != "" {
		c.Sessions.RedisURL = v
	}
	if v := os.Getenv("LOLY_SERIAL_PORT"); v != "" {
		c.Robot.SerialPort = v
	}
	if v := os.Getenv("LOLY_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("LOLY_DETECTOR_URL"); v != "" {
		c.Capture.DetectorURL = v
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Sessions.TTLMinutes <= 0 {
		return fmt.Errorf("sessions.ttl_minutes must be positive, got %d", c.Sessions.TTLMinutes)
	}
	if c.Sessions.Countdown <= 0 {
		return fmt.Errorf("sessions.countdown_seconds must be positive, got %d", c.Sessions.Countdown)
	}
	if c.Sessions.DefaultDur <= 0 {
		return fmt.Errorf("sessions.default_duration_seconds must be positive, got %v", c.Sessions.DefaultDur)
	}
	if c.Robot.BaudRate <= 0 {
		return fmt.Errorf("robot.baud_rate must be positive, got %d", c.Robot.BaudRate)
	}
	switch c.Pose.Profile {
	case "table", "torso":
	default:
		return fmt.Errorf("pose.profile must be \"table\" or \"torso\", got %q", c.Pose.Profile)
	}
	switch c.Capture.DetectorMode {
	case "pose", "pose_face":
	default:
		return fmt.Errorf("capture.detector_mode must be \"pose\" or \"pose_face\", got %q", c.Capture.DetectorMode)
	}
	return nil
}

// EnsureDirectories creates the directories the service writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Storage.BlobDir, filepath.Dir(c.Storage.DatabasePath)}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the annotated sample configuration to path.
func WriteSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}
