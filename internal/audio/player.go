package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/abhisek/parley/internal/logging"
)

// CommandPlayer plays audio by piping it to an external player process.
type CommandPlayer struct {
	cmd    command
	logger logging.Logger

	mu      sync.Mutex
	current *exec.Cmd
	stopped bool
}

// NewPlayer returns a player for the configured command, or the first
// player found on PATH.
func NewPlayer(command string, logger logging.Logger) (*CommandPlayer, error) {
	c, err := detect(command, playerCandidates)
	if err != nil {
		return nil, fmt.Errorf("audio player: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &CommandPlayer{cmd: c, logger: logger}, nil
}

// Play starts the clip, stopping any clip already playing, and blocks until
// it finishes, Stop is called or ctx ends.
func (p *CommandPlayer) Play(ctx context.Context, audio []byte) error {
	p.Stop()

	var file string
	if p.cmd.usesFile() {
		f, err := os.CreateTemp("", "parley-*.mp3")
		if err != nil {
			return fmt.Errorf("create clip file: %w", err)
		}
		file = f.Name()
		defer os.Remove(file)
		if _, err := f.Write(audio); err != nil {
			f.Close()
			return fmt.Errorf("write clip file: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close clip file: %w", err)
		}
	}

	cmd := exec.CommandContext(ctx, p.cmd.name, p.cmd.argv(file)...)
	if file == "" {
		cmd.Stdin = bytes.NewReader(audio)
	}

	p.mu.Lock()
	if err := cmd.Start(); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("start %s: %w", p.cmd.name, err)
	}
	p.current = cmd
	p.stopped = false
	p.mu.Unlock()

	err := cmd.Wait()

	p.mu.Lock()
	stopped := p.stopped
	if p.current == cmd {
		p.current = nil
	}
	p.mu.Unlock()

	if stopped || ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("%s: %w", p.cmd.name, err)
	}
	return nil
}

// Stop kills the clip that is playing, if any.
func (p *CommandPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.current.Process == nil {
		return
	}
	p.stopped = true
	if err := p.current.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.logger.Warn("stop player", "error", err)
	}
	p.current = nil
}

// NullPlayer discards audio. It is used when sound is muted or no player
// is installed.
type NullPlayer struct{}

func (NullPlayer) Play(context.Context, []byte) error { return nil }
func (NullPlayer) Stop()                              {}
