// Package session owns a practice session: it serializes turns, routes
// learner input to the active mode's state machine, logs and speaks every
// partner line, and maps failures onto user-facing statuses.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/parley/internal/catalog"
	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/convlog"
	"github.com/abhisek/parley/internal/freeconv"
	"github.com/abhisek/parley/internal/lesson"
	"github.com/abhisek/parley/internal/logging"
	"github.com/abhisek/parley/internal/playback"
	"github.com/abhisek/parley/internal/questionbank"
	"github.com/abhisek/parley/internal/store"
	"github.com/abhisek/parley/internal/tutor"
)

// Mode is a practice mode.
type Mode string

const (
	ModeFree   Mode = "free"
	ModeLesson Mode = "lesson"
	ModeChat   Mode = "chat"
)

// Options configures a Controller.
type Options struct {
	Backend   collab.Backend
	Catalog   *catalog.Catalog
	Questions *questionbank.Bank

	// Store may be nil; the session then lives in memory only.
	Store *store.Store

	// Player nil or Mute disables speech.
	Player playback.Player
	Mute   bool

	Language   string // en, pt or bilingual
	Speed      float64
	Voice      string
	ChunkLimit int

	Notify func(Event)
	Logger logging.Logger
}

// Context is the state of the running session.
type Context struct {
	ID        string
	Mode      Mode
	Topic     string
	StartedAt time.Time

	Log    *convlog.Log
	Free   *freeconv.Machine
	Lesson *lesson.Machine
}

// Controller runs one session at a time.
type Controller struct {
	opts   Options
	logger logging.Logger
	seq    *playback.Sequencer
	notify func(Event)

	turn sync.Mutex // held for the duration of one turn

	mu  sync.Mutex
	cur *Context
}

// New creates a Controller.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.Speed == 0 {
		opts.Speed = 1.0
	}
	c := &Controller{opts: opts, logger: logger, notify: opts.Notify}
	if c.notify == nil {
		c.notify = func(Event) {}
	}
	if !opts.Mute && opts.Player != nil && opts.Backend != nil {
		c.seq = playback.New(&voice{backend: opts.Backend, opts: opts}, opts.Player, opts.ChunkLimit, logger)
	}
	return c
}

// Current returns the running session, or nil.
func (c *Controller) Current() *Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// run executes fn as one turn. A second turn started while one is running
// fails with ErrBusy.
func (c *Controller) run(ctx context.Context, name string, fn func(ctx context.Context, s *Context) error) error {
	if !c.turn.TryLock() {
		f := Classify(ErrBusy)
		c.notify(Event{Kind: EventStatus, Text: f.Message, Failure: f})
		return f
	}
	defer c.turn.Unlock()

	s := c.Current()
	if s == nil && name != "start" {
		f := Classify(ErrNoSession)
		c.notify(Event{Kind: EventStatus, Text: f.Message, Failure: f})
		return f
	}

	c.notify(Event{Kind: EventBusy, On: true})
	defer c.notify(Event{Kind: EventBusy, On: false})

	err := fn(ctx, s)
	f := Classify(err)
	if f == nil {
		return err
	}
	lg := c.logger.With("op", name)
	if s != nil {
		lg = lg.With("session", s.ID)
	}
	lg.Warn("turn failed", "kind", f.Kind, "error", f.Err)
	c.notify(Event{Kind: EventStatus, Text: f.Message, Failure: f})
	return f
}

// Start begins a session in mode. topic is the lesson id for lessons, the
// scenario id for chat and ignored for free conversation. A running
// session is closed first.
func (c *Controller) Start(ctx context.Context, mode Mode, topic string) error {
	if cur := c.Current(); cur != nil {
		if err := c.Close(ctx); err != nil {
			return err
		}
	}
	return c.run(ctx, "start", func(ctx context.Context, _ *Context) error {
		s := &Context{ID: uuid.NewString(), Mode: mode, Topic: topic, StartedAt: time.Now()}
		if mode == ModeFree {
			s.Topic = "free-conversation"
		}

		var repo store.SessionRepo
		if c.opts.Store != nil {
			repo = c.opts.Store.SessionRepo()
			err := repo.CreateSession(ctx, store.Session{ID: s.ID, Mode: string(mode), Topic: s.Topic, StartedAt: s.StartedAt})
			if err != nil {
				return fmt.Errorf("create session: %w", err)
			}
		}
		s.Log = convlog.New(s.ID, repo, c.logger)
		h := &host{c: c, s: s}

		var err error
		switch mode {
		case ModeFree:
			if c.opts.Questions == nil {
				return fmt.Errorf("no question bank configured")
			}
			c.loadQuestions(ctx)
			s.Free = freeconv.New(c.opts.Backend, c.opts.Questions, freeHost{h})
			c.setCurrent(s)
			err = s.Free.Start(ctx)
		case ModeLesson:
			s.Lesson = lesson.New(c.opts.Backend, lessonHost{h})
			c.setCurrent(s)
			err = s.Lesson.Start(ctx, topic)
		case ModeChat:
			c.setCurrent(s)
			err = c.openChat(ctx, s, h)
		default:
			return fmt.Errorf("unknown mode %q", mode)
		}
		c.logger.Info("session started", "session", s.ID, "mode", mode, "topic", s.Topic)
		return err
	})
}

func (c *Controller) setCurrent(s *Context) {
	c.mu.Lock()
	c.cur = s
	c.mu.Unlock()
}

func (c *Controller) openChat(ctx context.Context, s *Context, h *host) error {
	opening := collab.Suggestion{EN: "Hi! What would you like to talk about?", PT: "Oi! Sobre o que você quer conversar?"}
	if c.opts.Catalog != nil {
		if sc, ok := c.opts.Catalog.Scenario(s.Topic); ok && sc.Opening.EN != "" {
			opening = collab.Suggestion{EN: sc.Opening.EN, PT: sc.Opening.PT}
		}
	}
	if err := h.say(ctx, opening.EN, opening.PT); err != nil {
		return err
	}
	c.suggest(ctx, s, opening.EN)
	return nil
}

// suggest fetches replies the learner could give. Failures are logged only.
func (c *Controller) suggest(ctx context.Context, s *Context, aiMessage string) {
	list, err := c.opts.Backend.Suggest(ctx, aiMessage, s.Topic, c.opts.Language)
	if err != nil {
		c.logger.Debug("suggestions unavailable", "session", s.ID, "error", err)
		return
	}
	c.notify(Event{Kind: EventSuggestions, Suggestions: list})
}

// Submit handles typed or transcribed learner text.
func (c *Controller) Submit(ctx context.Context, text string) error {
	return c.run(ctx, "submit", func(ctx context.Context, s *Context) error {
		return c.submit(ctx, s, text)
	})
}

// SubmitAudio transcribes a recording and submits the text.
func (c *Controller) SubmitAudio(ctx context.Context, audio []byte) error {
	return c.run(ctx, "submit_audio", func(ctx context.Context, s *Context) error {
		if err := c.accepting(s); err != nil {
			return err
		}
		lang := "en"
		if c.opts.Language == "pt" {
			lang = "pt"
		}
		t, err := c.opts.Backend.Transcribe(ctx, audio, lang)
		if err != nil {
			return err
		}
		c.logger.Debug("transcribed", "session", s.ID, "confidence", t.Confidence)
		return c.submit(ctx, s, t.Text)
	})
}

// accepting rejects input the current step cannot take, before anything is
// logged or sent.
func (c *Controller) accepting(s *Context) error {
	switch s.Mode {
	case ModeFree:
		if !s.Free.State().AwaitsText() {
			return freeconv.ErrUnexpectedInput
		}
	case ModeLesson:
		st := s.Lesson.State()
		switch {
		case !st.Started:
			return lesson.ErrNotStarted
		case st.Finished:
			return lesson.ErrFinished
		case st.NextAction != collab.LessonEvaluate:
			return lesson.ErrOptionRequired
		}
	}
	return nil
}

func (c *Controller) submit(ctx context.Context, s *Context, text string) error {
	text = strings.TrimSpace(text)
	if err := c.accepting(s); err != nil {
		return err
	}
	if text == "" {
		return collab.ErrRetryRequested
	}

	history := s.Log.Tail(tutor.HistoryLines)
	c.log(ctx, s, convlog.SenderUser, text, "")

	switch s.Mode {
	case ModeFree:
		return s.Free.Submit(ctx, text)
	case ModeLesson:
		ready, err := s.Lesson.Submit(ctx, text)
		if err != nil {
			return err
		}
		if ready {
			c.publishOptions(s)
		}
		return nil
	case ModeChat:
		return c.chat(ctx, s, text, history)
	}
	return fmt.Errorf("unknown mode %q", s.Mode)
}

func (c *Controller) chat(ctx context.Context, s *Context, text string, history []collab.Line) error {
	reply, err := c.opts.Backend.Chat(ctx, collab.ChatRequest{
		Text:     text,
		Scenario: s.Topic,
		Language: c.opts.Language,
		Mode:     "learning",
		History:  history,
	})
	if err != nil {
		return err
	}
	h := &host{c: c, s: s}
	if err := h.say(ctx, reply.Text, reply.Translation); err != nil {
		return err
	}
	if len(reply.SuggestedWords) > 0 {
		c.notify(Event{Kind: EventSuggestions, Words: reply.SuggestedWords})
	}
	if reply.MustRetry && reply.RetryPrompt != "" {
		c.notify(Event{Kind: EventStatus, Text: reply.RetryPrompt})
		return nil
	}
	c.suggest(ctx, s, reply.Text)
	return nil
}

// ConfirmQuestion takes the previewed discussion question.
func (c *Controller) ConfirmQuestion(ctx context.Context) error {
	return c.run(ctx, "confirm_question", func(ctx context.Context, s *Context) error {
		if s.Free == nil {
			return freeconv.ErrUnexpectedInput
		}
		_, err := s.Free.ConfirmQuestion(ctx)
		c.saveQuestions(ctx)
		return err
	})
}

// RefreshQuestion offers another discussion question.
func (c *Controller) RefreshQuestion(ctx context.Context) error {
	return c.run(ctx, "refresh_question", func(ctx context.Context, s *Context) error {
		if s.Free == nil {
			return freeconv.ErrUnexpectedInput
		}
		_, err := s.Free.RefreshQuestion(ctx)
		return err
	})
}

// BeginLesson is the explicit start action after the lesson welcome. It
// also resumes a lesson whose start or options fetch failed earlier.
func (c *Controller) BeginLesson(ctx context.Context) error {
	return c.run(ctx, "begin_lesson", func(ctx context.Context, s *Context) error {
		if s.Lesson == nil {
			return lesson.ErrNotStarted
		}
		st := s.Lesson.State()
		if !st.Started {
			if err := s.Lesson.Start(ctx, s.Topic); err != nil {
				return err
			}
		} else if st.Begun && !st.AwaitsOptions() {
			return nil
		}
		if err := s.Lesson.Begin(ctx); err != nil {
			return err
		}
		c.publishOptions(s)
		return nil
	})
}

// SelectOption picks option index (zero-based) of the current layer.
func (c *Controller) SelectOption(ctx context.Context, index int) error {
	return c.run(ctx, "select_option", func(ctx context.Context, s *Context) error {
		if s.Lesson == nil {
			return lesson.ErrNotStarted
		}
		if err := s.Lesson.SelectOption(ctx, index); err != nil {
			return err
		}
		c.log(ctx, s, convlog.SenderUser, s.Lesson.State().Selected.EN, "")
		return nil
	})
}

func (c *Controller) publishOptions(s *Context) {
	st := s.Lesson.State()
	if st.Finished {
		c.notify(Event{Kind: EventFinished})
		return
	}
	c.notify(Event{Kind: EventOptions, Text: st.LayerTitle, Options: st.Options, Step: st.Layer, Steps: st.TotalLayers})
}

// Skip stops the partner's speech. It works while a turn is running.
func (c *Controller) Skip() {
	if c.seq != nil {
		c.seq.Skip()
	}
}

// Speaking reports whether the partner is talking.
func (c *Controller) Speaking() bool {
	return c.seq != nil && c.seq.Speaking()
}

// Close ends the running session.
func (c *Controller) Close(ctx context.Context) error {
	c.Skip()
	c.turn.Lock()
	defer c.turn.Unlock()

	c.mu.Lock()
	s := c.cur
	c.cur = nil
	c.mu.Unlock()
	if s == nil {
		return nil
	}
	if s.Free != nil {
		c.saveQuestions(ctx)
	}
	if c.opts.Store != nil {
		if err := c.opts.Store.SessionRepo().EndSession(ctx, s.ID, time.Now()); err != nil {
			return fmt.Errorf("end session: %w", err)
		}
	}
	c.logger.Info("session closed", "session", s.ID, "turns", s.Log.Len())
	return nil
}

func (c *Controller) log(ctx context.Context, s *Context, sender, text, translation string) {
	e, err := s.Log.Append(ctx, sender, text, translation)
	if err != nil && e.ID == "" {
		c.logger.Error("log turn", "session", s.ID, "error", err)
		return
	}
	c.notify(Event{Kind: EventTurn, Entry: e})
}

func (c *Controller) loadQuestions(ctx context.Context) {
	if c.opts.Store == nil {
		return
	}
	if err := questionbank.Load(ctx, c.opts.Questions, c.opts.Store.StateRepo()); err != nil {
		c.logger.Warn("question bank not restored", "error", err)
	}
}

func (c *Controller) saveQuestions(ctx context.Context) {
	if c.opts.Store == nil || c.opts.Questions == nil {
		return
	}
	if err := questionbank.Save(ctx, c.opts.Questions, c.opts.Store.StateRepo()); err != nil {
		c.logger.Warn("question bank not saved", "error", err)
	}
}
