// Package conversation is the practice screen. It forwards learner input
// to a session.Controller and renders the session events it emits.
package conversation

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/convlog"
	"github.com/abhisek/parley/internal/logging"
	"github.com/abhisek/parley/internal/router"
	"github.com/abhisek/parley/internal/screen"
	reportscreen "github.com/abhisek/parley/internal/screens/report"
	"github.com/abhisek/parley/internal/session"
	"github.com/abhisek/parley/internal/ui/components"
	"github.com/abhisek/parley/internal/ui/layout"
)

// Recorder captures learner speech. *audio.Recorder satisfies it.
type Recorder interface {
	Start() error
	Stop() ([]byte, error)
	Cancel()
	Recording() bool
}

// Controller is the part of *session.Controller the screen drives.
type Controller interface {
	Start(ctx context.Context, mode session.Mode, topic string) error
	Submit(ctx context.Context, text string) error
	SubmitAudio(ctx context.Context, audio []byte) error
	ConfirmQuestion(ctx context.Context) error
	RefreshQuestion(ctx context.Context) error
	BeginLesson(ctx context.Context) error
	SelectOption(ctx context.Context, index int) error
	Report(ctx context.Context) (collab.Report, error)
	Skip()
	Close(ctx context.Context) error
}

var _ Controller = (*session.Controller)(nil)

// ConversationScreen implements screen.Screen for a running session.
type ConversationScreen struct {
	ctrl     Controller
	recorder Recorder
	logger   logging.Logger
	mode     session.Mode
	topic    string
	title    string

	started   bool
	busy      bool
	speaking  bool
	recording bool
	welcome   bool // lesson waits for the learner to begin
	finished  bool

	entries     []convlog.Entry
	status      string
	failure     *session.Failure
	picker      string
	options     components.ChoiceList
	hasOptions  bool
	step, steps int
	suggestions []collab.Suggestion
	words       []string

	translations bool
	confirmQuit  bool
	input        components.TextInput
}

var _ screen.Screen = (*ConversationScreen)(nil)
var _ screen.KeyHintProvider = (*ConversationScreen)(nil)
var _ screen.EscapeHandler = (*ConversationScreen)(nil)
var _ screen.HeaderProvider = (*ConversationScreen)(nil)

// New creates a screen that starts a session in mode on Init. topic is the
// lesson or scenario id; title is shown above the transcript. recorder may
// be nil when no microphone is available.
func New(ctrl Controller, mode session.Mode, topic, title string, recorder Recorder, logger logging.Logger) *ConversationScreen {
	if logger == nil {
		logger = logging.Nop()
	}
	return &ConversationScreen{
		ctrl:         ctrl,
		recorder:     recorder,
		logger:       logger,
		mode:         mode,
		topic:        topic,
		title:        title,
		translations: true,
		input:        components.NewTextInput("Type your reply, or press Ctrl+R to speak...", 500),
	}
}

func (s *ConversationScreen) Init() tea.Cmd {
	s.busy = true
	return tea.Batch(
		s.call("start", func(ctx context.Context) error {
			return s.ctrl.Start(ctx, s.mode, s.topic)
		}),
		s.input.Init(),
	)
}

func (s *ConversationScreen) Title() string {
	return s.title
}

// HandlesEscape keeps Esc for the quit confirmation.
func (s *ConversationScreen) HandlesEscape() bool {
	return true
}

func (s *ConversationScreen) HeaderStatus() (string, string) {
	status := ""
	switch {
	case s.recording:
		status = "● rec"
	case s.speaking:
		status = "♪ speaking"
	case s.busy:
		status = "… thinking"
	}
	return modeLabel(s.mode), status
}

func (s *ConversationScreen) KeyHints() []layout.KeyHint {
	if s.confirmQuit {
		return []layout.KeyHint{
			{Key: "Y", Description: "End session"},
			{Key: "N", Description: "Keep going"},
		}
	}
	hints := []layout.KeyHint{{Key: "Enter", Description: "Send"}}
	switch {
	case s.picker != "":
		hints = []layout.KeyHint{
			{Key: "Enter", Description: "Use question"},
			{Key: "Ctrl+N", Description: "Another"},
		}
	case s.welcome:
		hints = []layout.KeyHint{{Key: "Enter", Description: "Begin"}}
	case s.hasOptions:
		hints = []layout.KeyHint{{Key: "1-9", Description: "Choose"}}
	}
	if s.recorder != nil {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+R", Description: "Speak"})
	}
	return append(hints,
		layout.KeyHint{Key: "Ctrl+S", Description: "Skip audio"},
		layout.KeyHint{Key: "Ctrl+E", Description: "Report"},
		layout.KeyHint{Key: "Esc", Description: "Quit"},
	)
}

func (s *ConversationScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case session.Event:
		s.handleEvent(msg)
		return s, nil

	case turnDoneMsg:
		return s.handleTurnDone(msg)

	case recordedMsg:
		return s.handleRecorded(msg)

	case reportReadyMsg:
		return s.handleReport(msg)

	case closedMsg:
		if msg.Err != nil {
			s.logger.Warn("close session", "error", msg.Err)
		}
		return s, func() tea.Msg { return router.PopScreenMsg{} }

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *ConversationScreen) handleEvent(e session.Event) {
	switch e.Kind {
	case session.EventTurn:
		s.entries = append(s.entries, e.Entry)
		if e.Entry.Sender == convlog.SenderUser {
			s.suggestions = nil
			s.words = nil
		}
	case session.EventStatus:
		s.status = e.Text
		s.failure = e.Failure
	case session.EventBusy:
		s.busy = e.On
	case session.EventSpeaking:
		s.speaking = e.On
	case session.EventPicker:
		s.picker = e.Text
	case session.EventOptions:
		choices := make([]components.Choice, len(e.Options))
		for i, o := range e.Options {
			choices[i] = components.Choice{Label: o.EN, Hint: o.PT}
		}
		s.options = components.NewChoiceList(e.Text, choices)
		s.hasOptions = len(choices) > 0
		s.step, s.steps = e.Step, e.Steps
	case session.EventSuggestions:
		if len(e.Suggestions) > 0 {
			s.suggestions = e.Suggestions
		}
		if len(e.Words) > 0 {
			s.words = e.Words
		}
	case session.EventFinished:
		s.finished = true
		s.hasOptions = false
		s.step = s.steps
		s.status = "Lesson complete! Press Ctrl+E for your report."
		s.failure = nil
	}
}

func (s *ConversationScreen) handleTurnDone(msg turnDoneMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if f := session.Classify(msg.Err); f != nil {
		s.logger.Debug("turn failed", "op", msg.Op, "error", msg.Err)
		s.status = f.Message
		s.failure = f
		if msg.Op == "select" {
			s.options.Reset()
		}
		if msg.Op == "start" && s.mode == session.ModeLesson {
			s.welcome = true
		}
		return s, nil
	}

	switch msg.Op {
	case "start":
		s.started = true
		s.welcome = s.mode == session.ModeLesson
	case "begin":
		s.welcome = false
	case "confirm":
		s.picker = ""
	case "select":
		s.hasOptions = false
	}
	if s.failure == nil || s.failure.Kind != session.FailNoAudio {
		s.status = ""
		s.failure = nil
	}
	return s, nil
}

func (s *ConversationScreen) handleRecorded(msg recordedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.status = "Recording failed: " + msg.Err.Error()
		s.failure = &session.Failure{Kind: session.FailRetry, Message: s.status, Err: msg.Err}
		return s, nil
	}
	s.busy = true
	audio := msg.Audio
	return s, s.call("audio", func(ctx context.Context) error {
		return s.ctrl.SubmitAudio(ctx, audio)
	})
}

func (s *ConversationScreen) handleReport(msg reportReadyMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if f := session.Classify(msg.Err); f != nil {
		s.status = f.Message
		s.failure = f
		return s, nil
	}
	ctrl, title, r := s.ctrl, s.title, msg.Report
	return s, func() tea.Msg {
		if err := ctrl.Close(context.Background()); err != nil {
			s.logger.Warn("close session", "error", err)
		}
		return router.ReplaceScreenMsg{Screen: reportscreen.New(r, title)}
	}
}

func (s *ConversationScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			return s, s.closeCmd()
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	switch key {
	case "esc":
		s.confirmQuit = true
		return s, nil
	case "ctrl+s":
		s.ctrl.Skip()
		return s, nil
	case "ctrl+r":
		return s.toggleRecording()
	case "ctrl+t":
		s.translations = !s.translations
		return s, nil
	case "ctrl+e":
		s.busy = true
		return s, s.reportCmd()
	case "ctrl+n":
		if s.picker != "" {
			return s, s.call("refresh", s.ctrl.RefreshQuestion)
		}
		return s, nil
	case "enter":
		text := strings.TrimSpace(s.input.Value())
		if text != "" {
			s.input.Reset()
			s.busy = true
			return s, s.call("submit", func(ctx context.Context) error {
				return s.ctrl.Submit(ctx, text)
			})
		}
		switch {
		case s.picker != "":
			return s, s.call("confirm", s.ctrl.ConfirmQuestion)
		case s.welcome:
			return s, s.call("begin", s.ctrl.BeginLesson)
		case s.hasOptions:
			return s.choose(msg)
		case s.mode == session.ModeLesson && s.failure != nil && !s.finished:
			return s, s.call("begin", s.ctrl.BeginLesson)
		}
		return s, nil
	}

	if s.hasOptions && s.input.Value() == "" && isChoiceKey(key) {
		return s.choose(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *ConversationScreen) choose(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	s.options, _ = s.options.Update(msg)
	if !s.options.Submitted {
		return s, nil
	}
	index := s.options.ChosenIndex
	return s, s.call("select", func(ctx context.Context) error {
		return s.ctrl.SelectOption(ctx, index)
	})
}

func (s *ConversationScreen) toggleRecording() (screen.Screen, tea.Cmd) {
	if s.recorder == nil {
		s.status = "No microphone recorder found. Type your reply instead."
		s.failure = &session.Failure{Kind: session.FailNoAudio, Message: s.status}
		return s, nil
	}
	if s.recording {
		s.recording = false
		rec := s.recorder
		return s, func() tea.Msg {
			audio, err := rec.Stop()
			return recordedMsg{Audio: audio, Err: err}
		}
	}
	s.ctrl.Skip()
	if err := s.recorder.Start(); err != nil {
		s.status = "Could not start recording: " + err.Error()
		s.failure = &session.Failure{Kind: session.FailTransient, Message: s.status, Err: err}
		return s, nil
	}
	s.recording = true
	s.status = "Listening... press Ctrl+R again when you're done."
	s.failure = nil
	return s, nil
}

func (s *ConversationScreen) call(op string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return turnDoneMsg{Op: op, Err: fn(context.Background())}
	}
}

func (s *ConversationScreen) reportCmd() tea.Cmd {
	ctrl := s.ctrl
	return func() tea.Msg {
		r, err := ctrl.Report(context.Background())
		return reportReadyMsg{Report: r, Err: err}
	}
}

func (s *ConversationScreen) closeCmd() tea.Cmd {
	ctrl, rec, recording := s.ctrl, s.recorder, s.recording
	s.recording = false
	return func() tea.Msg {
		if recording && rec != nil {
			rec.Cancel()
		}
		return closedMsg{Err: ctrl.Close(context.Background())}
	}
}

func isChoiceKey(key string) bool {
	if key == "up" || key == "down" {
		return true
	}
	return len(key) == 1 && key[0] >= '1' && key[0] <= '9'
}

func modeLabel(m session.Mode) string {
	switch m {
	case session.ModeFree:
		return "Free conversation"
	case session.ModeLesson:
		return "Lesson"
	case session.ModeChat:
		return "Scenario chat"
	}
	return string(m)
}
