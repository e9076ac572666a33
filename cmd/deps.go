package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/abhisek/parley/internal/audio"
	"github.com/abhisek/parley/internal/catalog"
	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/collab/local"
	"github.com/abhisek/parley/internal/collab/remote"
	"github.com/abhisek/parley/internal/config"
	"github.com/abhisek/parley/internal/llm"
	"github.com/abhisek/parley/internal/logging"
	"github.com/abhisek/parley/internal/playback"
	"github.com/abhisek/parley/internal/questionbank"
	"github.com/abhisek/parley/internal/speech"
	"github.com/abhisek/parley/internal/store"
)

// deps holds everything a practice session needs.
type deps struct {
	backend     collab.Backend
	backendName string
	ready       bool // false when nothing can drive a conversation

	catalog   *catalog.Catalog
	questions *questionbank.Bank
	player    playback.Player // nil when muted or no player was found
	recorder  *audio.Recorder // nil without a recorder command
}

// openLogger opens the log file from cfg. The TUI owns the terminal, so
// logs never go to stderr.
func openLogger(cfg config.Config) (logging.Logger, io.Closer, error) {
	path := cfg.Log.File
	if path == "" {
		p, err := logging.DefaultLogPath()
		if err != nil {
			return nil, nil, err
		}
		path = p
	}
	return logging.NewFile(path, cfg.Log.Level)
}

// buildDeps wires the collaborators described by cfg. Missing providers
// degrade features instead of failing: warnings go to w.
func buildDeps(ctx context.Context, cfg config.Config, st *store.Store, logger logging.Logger, w io.Writer) (*deps, error) {
	cat, err := catalog.Load(version)
	if err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}
	for _, id := range cat.Skipped {
		logger.Info("lesson needs a newer version", "lesson", id, "version", version)
	}

	questions, err := loadQuestions(cfg)
	if err != nil {
		return nil, err
	}

	d := &deps{catalog: cat, questions: questions}

	switch cfg.Backend.Mode {
	case config.BackendRemote:
		client, err := remote.New(cfg.Backend.URL, cfg.Backend.Token, cfg.Backend.Timeout, logger)
		if err != nil {
			return nil, fmt.Errorf("remote backend: %w", err)
		}
		d.backend = client
		d.backendName = "remote"
		d.ready = true

	default:
		var events llm.EventSink
		if st != nil {
			events = st.EventRepo()
		}
		ready := true
		provider, err := newProvider(ctx, cfg.LLM, events, logger)
		if err != nil {
			fmt.Fprintln(w, "LLM provider not configured:", err)
			fmt.Fprintln(w, "Conversations will be unavailable.")
			logger.Warn("llm provider unavailable", "error", err)
			provider, ready = llm.Unconfigured(err), false
		}

		opts := local.Options{Provider: provider, Catalog: cat, Logger: logger}
		if stt, err := speech.NewTranscriber(cfg.Speech, logger); err == nil {
			opts.Transcriber = stt
		} else {
			logSpeech(logger, "transcription", err)
		}
		if tts, err := speech.NewSynthesizer(cfg.Speech, logger); err == nil {
			opts.Synthesizer = tts
		} else {
			logSpeech(logger, "synthesis", err)
		}

		d.backend = local.New(opts)
		d.ready = ready
		d.backendName = "offline"
		if ready {
			d.backendName = provider.ModelID()
		}
	}

	if !cfg.Audio.Mute {
		if p, err := audio.NewPlayer(cfg.Audio.Player, logger); err == nil {
			d.player = p
		} else {
			logger.Warn("audio playback disabled", "error", err)
		}
	}
	if r, err := audio.NewRecorder(cfg.Audio.Recorder, logger); err == nil {
		d.recorder = r
	} else {
		logger.Warn("voice input disabled", "error", err)
	}

	return d, nil
}

// newProvider validates the LLM settings, falling back to keys found in
// the environment, before building the provider.
func newProvider(ctx context.Context, cfg llm.Config, events llm.EventSink, logger logging.Logger) (llm.Provider, error) {
	resolved, err := llm.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	return llm.NewProvider(ctx, resolved, events, logger)
}

func logSpeech(logger logging.Logger, what string, err error) {
	if errors.Is(err, speech.ErrNotConfigured) {
		logger.Info(what+" not configured", "error", err)
		return
	}
	logger.Warn(what+" disabled", "error", err)
}

// loadQuestions builds the free-conversation question bank, from the
// configured file when set.
func loadQuestions(cfg config.Config) (*questionbank.Bank, error) {
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	if cfg.Practice.QuestionsFile == "" {
		return questionbank.Default(rng)
	}
	qs, err := questionbank.LoadFile(cfg.Practice.QuestionsFile)
	if err != nil {
		return nil, err
	}
	return questionbank.New(qs, rng)
}
