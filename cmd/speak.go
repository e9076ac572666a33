package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/playback"
)

var speakCmd = &cobra.Command{
	Use:   "speak <text>",
	Short: "Say a phrase aloud with the configured voice",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		d, err := buildDeps(ctx, cfg, nil, logger, io.Discard)
		if err != nil {
			return err
		}
		if d.player == nil {
			return errors.New("no audio player available (install ffplay or mpv, or set audio.player)")
		}

		lang, _ := cmd.Flags().GetString("lang")
		if lang == "" {
			lang = cfg.Practice.Language
		}
		voice := &phraseVoice{
			synth: d.backend,
			req:   collab.SpeechRequest{Lang: lang, Speed: cfg.Speech.Speed, Voice: cfg.Speech.OpenAITTS.Voice},
		}

		seq := playback.New(voice, d.player, cfg.Speech.ChunkLimit, logger)
		res, err := seq.Speak(ctx, strings.Join(args, " "), nil)
		if err != nil {
			return err
		}
		if res.Played == 0 {
			if voice.err != nil {
				return fmt.Errorf("nothing was played: %w", voice.err)
			}
			return errors.New("nothing was played")
		}
		if res.Failed > 0 || res.Silent > 0 {
			fmt.Fprintf(os.Stderr, "%d of %d chunks could not be played\n", res.Failed+res.Silent, res.Chunks)
		}
		return nil
	},
}

// phraseVoice synthesizes chunks through the backend with fixed settings.
type phraseVoice struct {
	synth collab.Synthesizer
	req   collab.SpeechRequest
	err   error // last synthesis failure
}

func (v *phraseVoice) Synthesize(ctx context.Context, chunk string) ([]byte, error) {
	req := v.req
	req.Text = chunk
	audio, err := v.synth.Synthesize(ctx, req)
	if errors.Is(err, collab.ErrNoAudio) {
		return nil, nil
	}
	if err != nil {
		v.err = err
	}
	return audio, err
}

func init() {
	speakCmd.Flags().String("lang", "", "Voice language: en, pt or bilingual (default from config)")
}
