package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/parley/internal/collab"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file>",
	Short: "Transcribe a recorded audio file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}

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

		lang, _ := cmd.Flags().GetString("lang")
		t, err := d.backend.Transcribe(ctx, data, lang)
		if errors.Is(err, collab.ErrRetryRequested) {
			return errors.New("no speech detected")
		}
		if err != nil {
			return err
		}

		fmt.Println(t.Text)
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			fmt.Fprintf(os.Stderr, "confidence: %.2f\n", t.Confidence)
		}
		return nil
	},
}

func init() {
	transcribeCmd.Flags().String("lang", "en", "Language hint for the recording")
	transcribeCmd.Flags().BoolP("verbose", "v", false, "Print the transcription confidence")
}
