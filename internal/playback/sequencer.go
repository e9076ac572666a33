// Package playback speaks text aloud chunk by chunk: each chunk is
// synthesized and played to completion before the next one is requested.
package playback

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/abhisek/parley/internal/logging"
	"github.com/abhisek/parley/internal/textchunk"
)

// Synthesizer turns one chunk of text into encoded audio. An empty result
// means no audio is available for the chunk.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Player plays encoded audio. Play blocks until the clip finishes or Stop is
// called. Starting a new clip stops the previous one.
type Player interface {
	Play(ctx context.Context, audio []byte) error
	Stop()
}

// Result summarizes one Speak call.
type Result struct {
	Chunks  int  // chunks the text was split into
	Played  int  // chunks played to completion
	Failed  int  // chunks whose synthesis or playback failed
	Silent  int  // chunks that produced no audio
	Skipped bool // the sequence was cancelled by Skip
}

// Sequencer plays utterances one at a time.
type Sequencer struct {
	synth  Synthesizer
	player Player
	limit  int
	logger logging.Logger

	mu        sync.Mutex // held for the duration of one utterance
	cancelled atomic.Bool
	speaking  atomic.Bool
}

// New creates a Sequencer. limit is the chunk size handed to the chunker;
// zero selects textchunk.DefaultLimit.
func New(synth Synthesizer, player Player, limit int, logger logging.Logger) *Sequencer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Sequencer{synth: synth, player: player, limit: limit, logger: logger}
}

// Speak synthesizes and plays text. Chunks are strictly sequential: the next
// synthesis request is only issued after the previous clip has finished.
// A failing chunk is logged and skipped. release, when non-nil, runs exactly
// once when the utterance completes or is cancelled.
//
// The returned error is non-nil only when ctx ends.
func (s *Sequencer) Speak(ctx context.Context, text string, release func()) (Result, error) {
	done := func() {}
	if release != nil {
		done = sync.OnceFunc(release)
	}
	defer done()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelled.Store(false)
	s.speaking.Store(true)
	defer s.speaking.Store(false)

	chunks := textchunk.Split(text, s.limit)
	res := Result{Chunks: len(chunks)}

	for i, chunk := range chunks {
		if s.cancelled.Load() {
			res.Skipped = true
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		audio, err := s.synth.Synthesize(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			s.logger.Warn("chunk synthesis failed", "chunk", i, "error", err)
			res.Failed++
			continue
		}
		// An in-flight request cannot be aborted; its result is dropped.
		if s.cancelled.Load() {
			res.Skipped = true
			break
		}
		if len(audio) == 0 {
			s.logger.Debug("no audio for chunk", "chunk", i)
			res.Silent++
			continue
		}

		if err := s.player.Play(ctx, audio); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			if s.cancelled.Load() {
				res.Skipped = true
				break
			}
			s.logger.Warn("chunk playback failed", "chunk", i, "error", err)
			res.Failed++
			continue
		}
		if s.cancelled.Load() {
			// Play returned because Skip stopped it.
			res.Skipped = true
			break
		}
		res.Played++
	}

	return res, nil
}

// Skip abandons the remaining chunks of the current utterance and stops the
// clip that is playing. It is a no-op when nothing is being spoken.
func (s *Sequencer) Skip() {
	if !s.speaking.Load() {
		return
	}
	s.cancelled.Store(true)
	s.player.Stop()
}

// Speaking reports whether an utterance is in progress.
func (s *Sequencer) Speaking() bool {
	return s.speaking.Load()
}
