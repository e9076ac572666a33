// Package audio plays and records sound through external command-line
// tools (ffplay, mpv, arecord, sox...). Both devices are single-owner:
// starting a new clip or recording stops and releases the previous one.
package audio

import (
	"fmt"
	"os/exec"
	"strings"
)

// Config selects the player and recorder commands. Each is a command line
// where "{file}" is replaced by a temporary file path; a player command
// without "{file}" receives the audio on stdin. Empty values auto-detect.
type Config struct {
	Player   string `yaml:"player"`
	Recorder string `yaml:"recorder"`
	Mute     bool   `yaml:"mute"`
}

const filePlaceholder = "{file}"

var playerCandidates = []string{
	"ffplay -nodisp -autoexit -loglevel quiet -",
	"mpv --no-video --really-quiet -",
	"mpg123 -q -",
	"afplay {file}",
}

var recorderCandidates = []string{
	"arecord -q -f S16_LE -r 16000 -c 1 -t wav {file}",
	"rec -q -r 16000 -c 1 {file}",
	"sox -q -d -r 16000 -c 1 {file}",
}

// command is a parsed command template.
type command struct {
	name string
	args []string
}

func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, fmt.Errorf("empty command")
	}
	return command{name: fields[0], args: fields[1:]}, nil
}

// usesFile reports whether the template takes a file path.
func (c command) usesFile() bool {
	for _, a := range c.args {
		if strings.Contains(a, filePlaceholder) {
			return true
		}
	}
	return false
}

// argv returns the arguments with the file placeholder substituted.
func (c command) argv(file string) []string {
	out := make([]string, len(c.args))
	for i, a := range c.args {
		out[i] = strings.ReplaceAll(a, filePlaceholder, file)
	}
	return out
}

// detect returns the configured command, or the first candidate whose
// binary is on PATH.
func detect(configured string, candidates []string) (command, error) {
	if configured != "" {
		c, err := parseCommand(configured)
		if err != nil {
			return command{}, err
		}
		if _, err := exec.LookPath(c.name); err != nil {
			return command{}, fmt.Errorf("%s not found: %w", c.name, err)
		}
		return c, nil
	}
	for _, line := range candidates {
		c, _ := parseCommand(line)
		if _, err := exec.LookPath(c.name); err == nil {
			return c, nil
		}
	}
	names := make([]string, len(candidates))
	for i, line := range candidates {
		names[i] = strings.Fields(line)[0]
	}
	return command{}, fmt.Errorf("no supported tool found (tried %s)", strings.Join(names, ", "))
}
