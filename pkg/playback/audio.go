package playback

import (
	"fmt"
	"os/exec"
)

// DefaultAudioCommand plays a WAV file synchronously on the speaker.
const DefaultAudioCommand = "aplay"

// AudioPlayer plays one audio file and blocks until it ends.
type AudioPlayer interface {
	Play(path string) error
}

// ExecPlayer shells out to a system audio player.
type ExecPlayer struct {
	Command string
	Args    []string
}

// NewExecPlayer builds a player around the given command, or the default
// when command is empty.
func NewExecPlayer(command string, args ...string) *ExecPlayer {
	if command == "" {
		command = DefaultAudioCommand
	}
	return &ExecPlayer{Command: command, Args: args}
}

func (p *ExecPlayer) Play(path string) error {
	args := append(append([]string{}, p.Args...), path)
	cmd := exec.Command(p.Command, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s %s: %w (%s)", p.Command, path, err, out)
	}
	return nil
}
