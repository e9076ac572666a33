package audio

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/abhisek/parley/internal/logging"
)

// ErrNotRecording is returned by Stop when no recording is open.
var ErrNotRecording = errors.New("not recording")

// Recorder captures microphone audio into a WAV file through an external
// recording command. Only one recording is open at a time.
type Recorder struct {
	cmd    command
	logger logging.Logger

	mu      sync.Mutex
	current *recording
}

type recording struct {
	cmd  *exec.Cmd
	file string
	done chan error
}

// NewRecorder returns a recorder for the configured command, or the first
// recorder found on PATH. The command must contain "{file}".
func NewRecorder(command string, logger logging.Logger) (*Recorder, error) {
	c, err := detect(command, recorderCandidates)
	if err != nil {
		return nil, fmt.Errorf("audio recorder: %w", err)
	}
	if !c.usesFile() {
		return nil, fmt.Errorf("audio recorder: command %q has no %s placeholder", c.name, filePlaceholder)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Recorder{cmd: c, logger: logger}, nil
}

// Start opens a new recording, discarding any recording still open.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		r.logger.Debug("discarding open recording", "file", r.current.file)
		r.release(r.current)
		r.current = nil
	}

	f, err := os.CreateTemp("", "parley-rec-*.wav")
	if err != nil {
		return fmt.Errorf("create recording file: %w", err)
	}
	f.Close()

	cmd := exec.Command(r.cmd.name, r.cmd.argv(f.Name())...)
	if err := cmd.Start(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("start %s: %w", r.cmd.name, err)
	}

	rec := &recording{cmd: cmd, file: f.Name(), done: make(chan error, 1)}
	go func() { rec.done <- cmd.Wait() }()
	r.current = rec
	return nil
}

// Recording reports whether a recording is open.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil
}

// Stop ends the open recording and returns the captured audio.
func (r *Recorder) Stop() ([]byte, error) {
	r.mu.Lock()
	rec := r.current
	r.current = nil
	r.mu.Unlock()

	if rec == nil {
		return nil, ErrNotRecording
	}
	defer os.Remove(rec.file)

	// Interrupt lets the recorder finalize the WAV header.
	if err := rec.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		r.logger.Warn("interrupt recorder", "error", err)
	}
	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		rec.cmd.Process.Kill()
		<-rec.done
	}

	data, err := os.ReadFile(rec.file)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return data, nil
}

// Cancel discards the open recording, if any.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.release(r.current)
		r.current = nil
	}
}

func (r *Recorder) release(rec *recording) {
	rec.cmd.Process.Kill()
	<-rec.done
	os.Remove(rec.file)
}
