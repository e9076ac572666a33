package audio

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestParseCommand(t *testing.T) {
	c, err := parseCommand("afplay -v 0.5 {file}")
	if err != nil {
		t.Fatal(err)
	}
	if c.name != "afplay" || !c.usesFile() {
		t.Fatalf("unexpected command: %+v", c)
	}
	if got := c.argv("/tmp/x.mp3"); got[2] != "/tmp/x.mp3" {
		t.Fatalf("argv = %v", got)
	}
	if _, err := parseCommand("   "); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestDetectConfiguredMissing(t *testing.T) {
	if _, err := detect("definitely-not-a-player-binary", playerCandidates); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestPlayerStdin(t *testing.T) {
	requireTool(t, "cat")
	p, err := NewPlayer("cat", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Play(context.Background(), []byte("clip")); err != nil {
		t.Fatalf("play: %v", err)
	}
}

func TestPlayerStopInterruptsClip(t *testing.T) {
	requireTool(t, "sleep")
	p, err := NewPlayer("sleep 10", nil)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- p.Play(context.Background(), nil) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		p.mu.Lock()
		started := p.current != nil
		p.mu.Unlock()
		if started || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	p.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stopped clip should not report an error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Play did not return after Stop")
	}
}

func TestRecorderCapturesFile(t *testing.T) {
	requireTool(t, "cp")
	src := filepath.Join(t.TempDir(), "src.wav")
	if err := os.WriteFile(src, []byte("RIFF-fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewRecorder("cp "+src+" {file}", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording, got %v", err)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	// A second Start replaces the first recording.
	if err := r.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if !r.Recording() {
		t.Fatal("expected open recording")
	}

	data, err := r.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if string(data) != "RIFF-fake" {
		t.Fatalf("data = %q", data)
	}
	if r.Recording() {
		t.Fatal("recording still open after Stop")
	}
}

func TestRecorderRequiresFilePlaceholder(t *testing.T) {
	requireTool(t, "cat")
	if _, err := NewRecorder("cat", nil); err == nil {
		t.Fatal("expected error without {file}")
	}
}

func TestNullPlayer(t *testing.T) {
	var p NullPlayer
	if err := p.Play(context.Background(), []byte("x")); err != nil {
		t.Fatal(err)
	}
	p.Stop()
}
