package speech

import (
	"fmt"

	"github.com/abhisek/parley/internal/logging"
)

// NewTranscriber builds the transcription chain from cfg, skipping
// providers without credentials.
func NewTranscriber(cfg Config, logger logging.Logger) (*TranscriberChain, error) {
	var providers []NamedTranscriber
	for _, name := range cfg.STT {
		var (
			t   Transcriber
			err error
		)
		switch name {
		case "whisper":
			if cfg.Groq.APIKey == "" {
				continue
			}
			t, err = NewWhisperTranscriber(cfg.Groq)
		case "deepgram":
			if cfg.Deepgram.APIKey == "" {
				continue
			}
			t, err = NewDeepgramTranscriber(cfg.Deepgram)
		default:
			return nil, fmt.Errorf("unknown transcription provider %q", name)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		providers = append(providers, NamedTranscriber{Name: name, Transcriber: t})
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("transcription: %w (set GROQ_API_KEY or DEEPGRAM_API_KEY)", ErrNotConfigured)
	}
	return NewTranscriberChain(logger, providers...), nil
}

// NewSynthesizer builds the synthesis chain from cfg, skipping providers
// without an endpoint or key. The disk cache is enabled unless CacheDir
// is "off".
func NewSynthesizer(cfg Config, logger logging.Logger) (*SynthesizerChain, error) {
	var providers []NamedSynthesizer
	for _, name := range cfg.TTS {
		var (
			s   Synthesizer
			err error
		)
		switch name {
		case "openai":
			if cfg.OpenAITTS.BaseURL == "" {
				continue
			}
			s, err = NewOpenAISynthesizer(cfg.OpenAITTS)
		case "google":
			if cfg.Google.APIKey == "" {
				continue
			}
			s, err = NewGoogleSynthesizer(cfg.Google)
		default:
			return nil, fmt.Errorf("unknown synthesis provider %q", name)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		providers = append(providers, NamedSynthesizer{Name: name, Synthesizer: s})
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("synthesis: %w (set PARLEY_TTS_URL or GOOGLE_API_KEY)", ErrNotConfigured)
	}

	var cache *DiskCache
	if cfg.CacheDir != "off" {
		dir := cfg.CacheDir
		if dir == "" {
			d, err := DefaultCacheDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		c, err := NewDiskCache(dir)
		if err != nil {
			return nil, err
		}
		cache = c
	}
	return NewSynthesizerChain(cache, logger, providers...), nil
}
