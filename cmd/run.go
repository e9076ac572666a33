package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/parley/internal/app"
	"github.com/abhisek/parley/internal/session"
)

// runApp loads configuration, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logFile, err := openLogger(cfg)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	d, err := buildDeps(ctx, cfg, st, logger, os.Stderr)
	if err != nil {
		return err
	}
	logger.Info("starting", "version", version, "backend", d.backendName, "ready", d.ready)

	return app.Run(app.Options{
		Session: session.Options{
			Backend:    d.backend,
			Catalog:    d.catalog,
			Questions:  d.questions,
			Store:      st,
			Player:     d.player,
			Mute:       cfg.Audio.Mute,
			Language:   cfg.Practice.Language,
			Speed:      cfg.Speech.Speed,
			Voice:      cfg.Speech.OpenAITTS.Voice,
			ChunkLimit: cfg.Speech.ChunkLimit,
			Logger:     logger,
		},
		Catalog:     d.catalog,
		Store:       st,
		Recorder:    d.recorder,
		BackendName: d.backendName,
		Ready:       d.ready,
		Logger:      logger,
	})
}
