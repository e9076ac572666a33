package speech

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/abhisek/parley/internal/logging"
)

// NamedTranscriber pairs a provider with its name for logging.
type NamedTranscriber struct {
	Name string
	Transcriber
}

// TranscriberChain tries transcribers in order. A provider that hears no
// speech, or fails, hands over to the next.
type TranscriberChain struct {
	providers []NamedTranscriber
	logger    logging.Logger
}

// NewTranscriberChain builds a chain; providers must not be empty.
func NewTranscriberChain(logger logging.Logger, providers ...NamedTranscriber) *TranscriberChain {
	if logger == nil {
		logger = logging.Nop()
	}
	return &TranscriberChain{providers: providers, logger: logger}
}

func (c *TranscriberChain) Transcribe(ctx context.Context, audio []byte, lang string) (Transcript, error) {
	if len(audio) == 0 {
		return Transcript{}, ErrNoSpeech
	}

	var lastErr error
	for _, p := range c.providers {
		t, err := p.Transcribe(ctx, audio, lang)
		if err == nil && t.Text != "" {
			c.logger.Debug("transcribed", "provider", p.Name, "chars", len(t.Text), "confidence", t.Confidence)
			return t, nil
		}
		if ctx.Err() != nil {
			return Transcript{}, ctx.Err()
		}
		if err != nil && !errors.Is(err, ErrNoSpeech) {
			c.logger.Warn("transcription failed", "provider", p.Name, "error", err)
			lastErr = err
		}
	}

	// A provider that heard nothing is a retry, not an outage.
	if lastErr == nil || len(c.providers) == 0 {
		return Transcript{}, ErrNoSpeech
	}
	return Transcript{}, lastErr
}

// NamedSynthesizer pairs a provider with its name for logging.
type NamedSynthesizer struct {
	Name string
	Synthesizer
}

// SynthesizerChain cleans and validates text, serves cached clips, and
// otherwise tries providers in order, caching the first success.
type SynthesizerChain struct {
	providers []NamedSynthesizer
	cache     *DiskCache // may be nil
	logger    logging.Logger
}

// NewSynthesizerChain builds a chain. cache may be nil.
func NewSynthesizerChain(cache *DiskCache, logger logging.Logger, providers ...NamedSynthesizer) *SynthesizerChain {
	if logger == nil {
		logger = logging.Nop()
	}
	return &SynthesizerChain{providers: providers, cache: cache, logger: logger}
}

func (c *SynthesizerChain) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	req.Text = CleanText(req.Text)
	if req.Text == "" {
		return nil, nil
	}
	if n := utf8.RuneCountInString(req.Text); n > MaxSynthesisRunes {
		return nil, fmt.Errorf("%w: %d characters", ErrTooLong, n)
	}

	key := CacheKey(req)
	if c.cache != nil {
		if audio, ok := c.cache.Get(key); ok {
			c.logger.Debug("tts cache hit", "key", key)
			return audio, nil
		}
	}

	var errs []error
	for _, p := range c.providers {
		audio, err := p.Synthesize(ctx, req)
		if err == nil && len(audio) > 0 {
			if c.cache != nil {
				if err := c.cache.Put(key, audio); err != nil {
					c.logger.Warn("tts cache write failed", "error", err)
				}
			}
			return audio, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == nil {
			err = fmt.Errorf("empty audio")
		}
		c.logger.Warn("synthesis failed", "provider", p.Name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name, err))
	}
	if len(errs) == 0 {
		return nil, ErrNotConfigured
	}
	return nil, errors.Join(errs...)
}
