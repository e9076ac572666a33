package session

import (
	"context"
	"errors"
	"strings"

	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/convlog"
)

// host performs partner turns for the state machines: log the line, then
// speak it to the end.
type host struct {
	c *Controller
	s *Context
}

func (h *host) say(ctx context.Context, text, translation string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	h.c.log(ctx, h.s, convlog.SenderAI, text, translation)
	return h.c.speak(ctx, text)
}

type freeHost struct{ *host }

func (f freeHost) Say(ctx context.Context, text string) error {
	return f.say(ctx, text, "")
}

func (f freeHost) ShowPicker(ctx context.Context, preview string) error {
	f.c.saveQuestions(ctx)
	f.c.notify(Event{Kind: EventPicker, Text: preview})
	return nil
}

type lessonHost struct{ *host }

func (l lessonHost) Say(ctx context.Context, text, translation string) error {
	return l.say(ctx, text, translation)
}

// speak plays text and returns when playback finished or was skipped.
// Missing audio is not an error.
func (c *Controller) speak(ctx context.Context, text string) error {
	if c.seq == nil {
		return nil
	}
	c.notify(Event{Kind: EventSpeaking, On: true})
	res, err := c.seq.Speak(ctx, text, func() {
		c.notify(Event{Kind: EventSpeaking, On: false})
	})
	if err != nil {
		return err
	}
	if res.Chunks > 0 && res.Played == 0 && !res.Skipped {
		f := Classify(collab.ErrNoAudio)
		c.notify(Event{Kind: EventStatus, Text: f.Message, Failure: f})
	}
	return nil
}

// voice adapts the collaborator's synthesizer to the playback sequencer.
type voice struct {
	backend collab.Synthesizer
	opts    Options
}

func (v *voice) Synthesize(ctx context.Context, chunk string) ([]byte, error) {
	lang := v.opts.Language
	switch {
	case strings.Contains(chunk, "[EN]"):
		lang = "bilingual"
	case lang == "bilingual":
		lang = "pt"
	}
	audio, err := v.backend.Synthesize(ctx, collab.SpeechRequest{
		Text:  chunk,
		Lang:  lang,
		Speed: v.opts.Speed,
		Voice: v.opts.Voice,
	})
	if errors.Is(err, collab.ErrNoAudio) {
		return nil, nil
	}
	return audio, err
}
