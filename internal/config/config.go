// Package config loads parley's layered configuration: built-in defaults,
// then a YAML file, then a .env file, then the environment. CLI flags are
// applied last by the cmd package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/parley/internal/audio"
	"github.com/abhisek/parley/internal/llm"
	"github.com/abhisek/parley/internal/speech"
)

// Backend modes.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Language modes for practice.
const (
	LangEnglish    = "en"
	LangPortuguese = "pt"
	LangBilingual  = "bilingual"
)

// Config is the full application configuration.
type Config struct {
	LLM      llm.Config     `yaml:"llm"`
	Speech   speech.Config  `yaml:"speech"`
	Audio    audio.Config   `yaml:"audio"`
	Backend  BackendConfig  `yaml:"backend"`
	Practice PracticeConfig `yaml:"practice"`
	Log      LogConfig      `yaml:"log"`

	// DBPath overrides the SQLite location. Empty uses store.DefaultDBPath.
	DBPath string `yaml:"db_path"`
}

// BackendConfig selects where collaborator calls go. "local" runs them
// in-process against the configured LLM and speech providers; "remote"
// sends them to a JSON-over-HTTP server.
type BackendConfig struct {
	Mode    string        `yaml:"mode"`
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// PracticeConfig holds session defaults.
type PracticeConfig struct {
	Lesson        string `yaml:"lesson"`
	Scenario      string `yaml:"scenario"`
	Language      string `yaml:"language"`
	QuestionsFile string `yaml:"questions_file"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM:    llm.DefaultConfig(),
		Speech: speech.DefaultConfig(),
		Backend: BackendConfig{
			Mode:    BackendLocal,
			Timeout: 60 * time.Second,
		},
		Practice: PracticeConfig{
			Lesson:   "coffee-shop-order",
			Scenario: "coffee-shop",
			Language: LangEnglish,
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultPath resolves the config file location:
// 1. $XDG_CONFIG_HOME/parley/config.yaml
// 2. ~/.config/parley/config.yaml
func DefaultPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "parley", "config.yaml"), nil
}

// Load builds the configuration. An explicit path must exist; the default
// path is optional. A .env file in the working directory is loaded into
// the process environment without overriding variables already set.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	cfg = ApplyEnv(cfg)
	return cfg, cfg.Validate()
}

// ApplyEnv overrides cfg from the environment. Provider keys follow the
// llm and speech packages; generic keys (GEMINI_API_KEY, OPENAI_API_KEY...)
// are probed only when no PARLEY_ provider key was configured.
func ApplyEnv(cfg Config) Config {
	cfg.LLM = llm.ApplyEnv(cfg.LLM)
	if cfg.LLM.Validate() != nil {
		if discovered, ok := llm.DiscoverConfig(cfg.LLM); ok {
			cfg.LLM = discovered
		}
	}
	cfg.Speech = speech.ApplyEnv(cfg.Speech)

	if v := os.Getenv("PARLEY_BACKEND_URL"); v != "" {
		cfg.Backend.URL = v
		cfg.Backend.Mode = BackendRemote
	}
	if v := os.Getenv("PARLEY_BACKEND_TOKEN"); v != "" {
		cfg.Backend.Token = v
	}
	if v := os.Getenv("PARLEY_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PARLEY_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("PARLEY_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PARLEY_LANGUAGE"); v != "" {
		cfg.Practice.Language = v
	}
	return cfg
}

// Validate checks settings that would otherwise fail late. Missing
// provider keys are not an error here: the app degrades to text-only or
// reports the missing key when the capability is first used.
func (c Config) Validate() error {
	switch c.Backend.Mode {
	case BackendLocal:
	case BackendRemote:
		if c.Backend.URL == "" {
			return fmt.Errorf("backend.url is required in remote mode")
		}
	default:
		return fmt.Errorf("unknown backend mode %q", c.Backend.Mode)
	}

	switch strings.ToLower(c.Practice.Language) {
	case LangEnglish, LangPortuguese, LangBilingual:
	default:
		return fmt.Errorf("unknown practice language %q (want en, pt or bilingual)", c.Practice.Language)
	}

	if c.Speech.ChunkLimit <= 0 || c.Speech.ChunkLimit > speech.MaxSynthesisRunes {
		return fmt.Errorf("speech.chunk_limit must be between 1 and %d", speech.MaxSynthesisRunes)
	}
	return nil
}
