// Package lesson drives a structured lesson: the learner picks a phrase
// from each layer's options, says it, and moves on once the guide accepts
// the attempt. Layers listed as composite build one cumulative sentence.
package lesson

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/abhisek/parley/internal/collab"
)

var (
	// ErrNotStarted is returned before Start succeeded.
	ErrNotStarted = errors.New("no lesson is running")

	// ErrOptionRequired rejects speech while an option must be clicked.
	ErrOptionRequired = errors.New("choose one of the options first")

	// ErrFinished is returned once the conclusion was reached.
	ErrFinished = errors.New("the lesson is finished")

	// ErrAlreadyBegun rejects Begin once the lesson is under way.
	ErrAlreadyBegun = errors.New("lesson already begun")
)

// Host plays guide lines. Say must not return before playback finished.
type Host interface {
	Say(ctx context.Context, text, translation string) error
}

// State is a snapshot of the lesson progress.
type State struct {
	Lesson      string
	Title       string
	Started     bool
	Begun       bool
	Finished    bool
	Layer       int
	TotalLayers int
	NextAction  collab.LessonAction

	LayerTitle  string
	Options     []collab.Option
	Selected    *collab.Option
	SkipToLayer int

	Template        string
	CompositeLayers []int
	Slots           map[string]string
	Composite       string

	Attempts int
}

// AwaitsOptions reports whether the options of the current layer still
// have to be fetched, e.g. after the fetch failed.
func (s State) AwaitsOptions() bool {
	return s.Begun && !s.Finished && s.NextAction == collab.LessonShowOptions
}

// IsCompositeLayer reports whether layer feeds the composite phrase.
func (s State) IsCompositeLayer(layer int) bool {
	return s.Template != "" && slices.Contains(s.CompositeLayers, layer)
}

// Machine is the structured-lesson state machine. Calls must be
// serialized by the caller.
type Machine struct {
	guide collab.LessonGuide
	host  Host
	st    State
}

// New creates a Machine.
func New(guide collab.LessonGuide, host Host) *Machine {
	return &Machine{guide: guide, host: host}
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	s := m.st
	s.Options = slices.Clone(m.st.Options)
	s.Slots = maps.Clone(m.st.Slots)
	s.CompositeLayers = slices.Clone(m.st.CompositeLayers)
	if m.st.Selected != nil {
		sel := *m.st.Selected
		s.Selected = &sel
	}
	return s
}

// Start fetches the lesson metadata and plays the welcome. The lesson
// then waits for Begin.
func (m *Machine) Start(ctx context.Context, lessonID string) error {
	reply, err := m.guide.Lesson(ctx, collab.LessonRequest{Lesson: lessonID, Action: collab.LessonStart})
	if err != nil {
		return err
	}
	m.st = State{
		Lesson:          lessonID,
		Title:           reply.Title,
		Started:         true,
		TotalLayers:     reply.TotalLayers,
		NextAction:      collab.LessonStart,
		Template:        reply.CompositeTemplate,
		CompositeLayers: reply.CompositeLayers,
		Slots:           map[string]string{},
	}
	return m.host.Say(ctx, reply.Text, reply.Translation)
}

// Begin is the explicit "start lesson" action after the welcome. Called
// again while the options of a layer are missing, it retries the fetch.
func (m *Machine) Begin(ctx context.Context) error {
	if err := m.check(); err != nil {
		return err
	}
	if m.st.Begun && !m.st.AwaitsOptions() {
		return ErrAlreadyBegun
	}
	m.st.Begun = true
	m.st.NextAction = collab.LessonShowOptions
	return m.ShowOptions(ctx)
}

func (m *Machine) check() error {
	switch {
	case !m.st.Started:
		return ErrNotStarted
	case m.st.Finished:
		return ErrFinished
	}
	return nil
}

// ShowOptions fetches the options of the current layer. When the guide
// answers with the conclusion the closing line plays and the lesson ends.
func (m *Machine) ShowOptions(ctx context.Context) error {
	if err := m.check(); err != nil {
		return err
	}
	m.st.LayerTitle = ""
	m.st.Options = nil
	m.st.Selected = nil
	reply, err := m.guide.Lesson(ctx, collab.LessonRequest{
		Lesson: m.st.Lesson,
		Action: collab.LessonShowOptions,
		Layer:  m.st.Layer,
	})
	if err != nil {
		return err
	}

	if reply.Type == "conclusion" {
		m.st.Finished = true
		m.st.NextAction = collab.LessonFinished
		m.st.Options = nil
		m.st.Selected = nil
		return m.host.Say(ctx, reply.Text, reply.Translation)
	}

	m.st.LayerTitle = reply.LayerTitle
	m.st.Options = reply.Options
	m.st.Selected = nil
	m.st.SkipToLayer = 0
	m.st.Attempts = 0
	m.st.NextAction = collab.LessonSelect
	if reply.TotalLayers > 0 {
		m.st.TotalLayers = reply.TotalLayers
	}
	return m.host.Say(ctx, reply.Text, reply.Translation)
}

// SelectOption picks option index of the current layer and plays the
// practice prompt. Picking again before a successful attempt replaces
// the choice.
func (m *Machine) SelectOption(ctx context.Context, index int) error {
	if err := m.check(); err != nil {
		return err
	}
	if m.st.NextAction != collab.LessonSelect && m.st.NextAction != collab.LessonEvaluate {
		return fmt.Errorf("no options to choose from")
	}
	if index < 0 || index >= len(m.st.Options) {
		return fmt.Errorf("option %d out of range", index+1)
	}
	opt := m.st.Options[index]

	reply, err := m.guide.Lesson(ctx, collab.LessonRequest{
		Lesson: m.st.Lesson,
		Action: collab.LessonSelect,
		Layer:  m.st.Layer,
		Option: &index,
	})
	if err != nil {
		return err
	}

	if m.st.IsCompositeLayer(m.st.Layer) {
		for k, v := range opt.Slots {
			m.st.Slots[k] = v
		}
		m.st.Composite = Compose(m.st.Template, m.st.Slots)
	}

	sel := opt
	if reply.Selected != nil && reply.Selected.EN != "" {
		sel = *reply.Selected
	}
	m.st.Selected = &sel
	m.st.SkipToLayer = sel.SkipToLayer
	if reply.SkipToLayer > 0 {
		m.st.SkipToLayer = reply.SkipToLayer
	}
	m.st.NextAction = reply.NextAction
	if m.st.NextAction == "" {
		m.st.NextAction = collab.LessonEvaluate
	}
	return m.host.Say(ctx, reply.Text, reply.Translation)
}

// Submit evaluates a practice attempt. The feedback line plays to the end
// before the lesson moves on; an attempt that is not ready keeps the
// layer for another try. It reports whether the attempt was accepted.
func (m *Machine) Submit(ctx context.Context, text string) (bool, error) {
	if err := m.check(); err != nil {
		return false, err
	}
	if m.st.NextAction != collab.LessonEvaluate || m.st.Selected == nil {
		return false, ErrOptionRequired
	}

	req := collab.LessonRequest{
		Lesson:         m.st.Lesson,
		Action:         collab.LessonEvaluate,
		Layer:          m.st.Layer,
		Text:           strings.TrimSpace(text),
		SelectedPhrase: m.st.Selected,
		SkipToLayer:    m.st.SkipToLayer,
	}
	if m.st.IsCompositeLayer(m.st.Layer) {
		req.CompositePhrase = m.st.Composite
	}
	reply, err := m.guide.Lesson(ctx, req)
	if err != nil {
		return false, err
	}

	m.st.Attempts++
	m.st.Layer = reply.NextLayer
	if reply.ReadyForNext {
		m.st.NextAction = collab.LessonShowOptions
		m.st.Options = nil
		m.st.Selected = nil
	}
	if err := m.host.Say(ctx, reply.Text, reply.Translation); err != nil {
		return reply.ReadyForNext, err
	}
	if !reply.ReadyForNext {
		return false, nil
	}
	return true, m.ShowOptions(ctx)
}
