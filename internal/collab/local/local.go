// Package local implements collab.Backend in-process: the configured LLM
// provider drives chat, free conversation and reports, the speech chains
// handle audio and lessons run straight from the catalog.
package local

import (
	"context"
	"errors"

	"github.com/abhisek/parley/internal/catalog"
	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/llm"
	"github.com/abhisek/parley/internal/logging"
	"github.com/abhisek/parley/internal/report"
	"github.com/abhisek/parley/internal/speech"
	"github.com/abhisek/parley/internal/tutor"
)

// Options wires the backend. Transcriber and Synthesizer may be nil when
// no speech provider is configured.
type Options struct {
	Provider    llm.Provider
	Catalog     *catalog.Catalog
	Transcriber speech.Transcriber
	Synthesizer speech.Synthesizer
	Logger      logging.Logger
}

// Backend is the in-process collaborator.
type Backend struct {
	tutor   *tutor.Tutor
	reports *report.Generator
	lessons *LessonEngine
	stt     speech.Transcriber
	tts     speech.Synthesizer
	logger  logging.Logger
}

var _ collab.Backend = (*Backend)(nil)

// New creates a Backend.
func New(opts Options) *Backend {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Backend{
		tutor:   tutor.New(opts.Provider, opts.Catalog, logger),
		reports: report.NewGenerator(opts.Provider, opts.Catalog, logger),
		lessons: NewLessonEngine(opts.Catalog),
		stt:     opts.Transcriber,
		tts:     opts.Synthesizer,
		logger:  logger,
	}
}

// Transcribe implements collab.Transcriber.
func (b *Backend) Transcribe(ctx context.Context, audio []byte, lang string) (collab.Transcript, error) {
	if b.stt == nil {
		return collab.Transcript{}, collab.Unavailable(collab.CapTranscribe, speech.ErrNotConfigured)
	}
	if len(audio) == 0 {
		return collab.Transcript{}, collab.ErrRetryRequested
	}
	t, err := b.stt.Transcribe(ctx, audio, lang)
	if errors.Is(err, speech.ErrNoSpeech) {
		return collab.Transcript{}, collab.ErrRetryRequested
	}
	if err != nil {
		return collab.Transcript{}, collab.Unavailable(collab.CapTranscribe, err)
	}
	if t.Text == "" {
		return collab.Transcript{}, collab.ErrRetryRequested
	}
	b.logger.Debug("transcribed", "provider", t.Provider, "confidence", t.Confidence)
	return collab.Transcript{Text: t.Text, Confidence: t.Confidence}, nil
}

// Chat implements collab.ChatPartner.
func (b *Backend) Chat(ctx context.Context, req collab.ChatRequest) (collab.ChatReply, error) {
	reply, err := b.tutor.Chat(ctx, req)
	return reply, collab.Unavailable(collab.CapChat, err)
}

// Suggest implements collab.ChatPartner.
func (b *Backend) Suggest(ctx context.Context, aiMessage, scenario, lang string) ([]collab.Suggestion, error) {
	s, err := b.tutor.Suggest(ctx, aiMessage, scenario, lang)
	return s, collab.Unavailable(collab.CapSuggest, err)
}

// FreeTalk implements collab.FreeTalker.
func (b *Backend) FreeTalk(ctx context.Context, req collab.FreeRequest) (string, error) {
	text, err := b.tutor.FreeTalk(ctx, req)
	return text, collab.Unavailable(collab.CapFreeTalk, err)
}

// Lesson implements collab.LessonGuide.
func (b *Backend) Lesson(ctx context.Context, req collab.LessonRequest) (collab.LessonReply, error) {
	reply, err := b.lessons.Lesson(ctx, req)
	return reply, collab.Unavailable(collab.CapLesson, err)
}

// Synthesize implements collab.Synthesizer. Without a configured
// synthesizer every request yields ErrNoAudio.
func (b *Backend) Synthesize(ctx context.Context, req collab.SpeechRequest) ([]byte, error) {
	if b.tts == nil {
		return nil, collab.ErrNoAudio
	}
	audio, err := b.tts.Synthesize(ctx, speech.Request{
		Text:  req.Text,
		Lang:  req.Lang,
		Speed: req.Speed,
		Voice: req.Voice,
	})
	if err != nil {
		return nil, collab.Unavailable(collab.CapSpeech, err)
	}
	if len(audio) == 0 {
		return nil, collab.ErrNoAudio
	}
	return audio, nil
}

// Report implements collab.Reporter.
func (b *Backend) Report(ctx context.Context, req collab.ReportRequest) (collab.Report, error) {
	r, err := b.reports.Report(ctx, req)
	if errors.Is(err, report.ErrEmptyConversation) {
		return r, err
	}
	return r, collab.Unavailable(collab.CapReport, err)
}
