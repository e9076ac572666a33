// Package freeconv drives the free-conversation cycle: a warm-up
// question, a picked discussion question, a generated follow-up, the
// partner's opinion and an open floor for the learner's own questions.
package freeconv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/parley/internal/collab"
)

// State is a step of the free-conversation cycle.
type State int

const (
	StateIdle                     State = iota // Not started
	StateIntroAskHowAreYou                     // Partner greets the learner
	StateIntroStudentAnswer                    // Waiting for the greeting reply
	StateShowQuestionPicker                    // Waiting for a question to be confirmed
	StateAiReadsMainQuestion                   // Partner reads the chosen question
	StateStudentAnswersMain                    // Waiting for the main answer
	StateAiAsksFollowup                        // Partner generates a follow-up
	StateStudentAnswersFollowup                // Waiting for the follow-up answer
	StateAiOpinionResponse                     // Partner shares an opinion
	StateAiAskAdditionalQuestions              // Partner offers the floor
	StateStudentAdditionalIntent               // Waiting to hear if the learner has a question
	StateStudentAsksQuestion                   // Waiting for the learner's question
	StateAiAnswersStudentQuestion              // Partner answers it
)

var stateNames = map[State]string{
	StateIdle:                     "idle",
	StateIntroAskHowAreYou:        "intro_ask_how_are_you",
	StateIntroStudentAnswer:       "intro_student_answer",
	StateShowQuestionPicker:       "show_question_picker",
	StateAiReadsMainQuestion:      "ai_reads_main_question",
	StateStudentAnswersMain:       "student_answers_main",
	StateAiAsksFollowup:           "ai_asks_followup",
	StateStudentAnswersFollowup:   "student_answers_followup",
	StateAiOpinionResponse:        "ai_opinion_response",
	StateAiAskAdditionalQuestions: "ai_ask_additional_questions",
	StateStudentAdditionalIntent:  "student_additional_intent",
	StateStudentAsksQuestion:      "student_asks_question",
	StateAiAnswersStudentQuestion: "ai_answers_student_question",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// AwaitsText reports whether the learner is expected to speak or type.
func (s State) AwaitsText() bool {
	switch s {
	case StateIntroStudentAnswer, StateStudentAnswersMain, StateStudentAnswersFollowup,
		StateStudentAdditionalIntent, StateStudentAsksQuestion:
		return true
	}
	return false
}

// Scripted partner lines.
const (
	IntroLine      = "Hi! It's great to talk with you. How are you today?"
	PickerLine     = "Nice! Now pick a question you'd like to talk about."
	FloorLine      = "Do you have any questions for me?"
	GoAheadLine    = "Sure, go ahead! What would you like to ask?"
	MoreLine       = "Do you have any other questions?"
	NextTopicLine  = "Okay! Let's choose another question."
	emptyInputLine = "I didn't hear anything. Could you say that again?"
)

// ErrUnexpectedInput is returned when an action does not fit the current
// state. The state is left unchanged.
var ErrUnexpectedInput = errors.New("that action isn't available right now")

// Host performs partner turns. Say must log text and finish playing it
// before returning.
type Host interface {
	Say(ctx context.Context, text string) error
	ShowPicker(ctx context.Context, preview string) error
}

// Questions supplies discussion questions.
type Questions interface {
	Preview() string
	Refresh() string
	Confirm() string
}

// Context is the accumulated question-and-answer context of one cycle.
type Context struct {
	MainQuestion     string
	StudentAnswer    string
	FollowupQuestion string
	FollowupAnswer   string
	StudentQuestion  string
}

// Machine is the free-conversation state machine. It is not safe for
// concurrent use; the session controller serializes calls.
type Machine struct {
	talker    collab.FreeTalker
	questions Questions
	host      Host

	state State
	qa    Context
}

// New creates a Machine.
func New(talker collab.FreeTalker, questions Questions, host Host) *Machine {
	return &Machine{talker: talker, questions: questions, host: host}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Context returns the current question-and-answer context.
func (m *Machine) Context() Context { return m.qa }

// Start greets the learner. It can only run once.
func (m *Machine) Start(ctx context.Context) error {
	if m.state != StateIdle {
		return ErrUnexpectedInput
	}
	m.state = StateIntroAskHowAreYou
	if err := m.host.Say(ctx, IntroLine); err != nil {
		m.state = StateIdle
		return err
	}
	m.state = StateIntroStudentAnswer
	return nil
}

// Submit handles a learner utterance. On a collaborator failure the
// machine returns to the state it was in so the learner can try again.
func (m *Machine) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if !m.state.AwaitsText() {
		return ErrUnexpectedInput
	}
	if text == "" {
		return m.host.Say(ctx, emptyInputLine)
	}

	prev, saved := m.state, m.qa
	err := m.advance(ctx, text)
	if err != nil {
		m.state, m.qa = prev, saved
	}
	return err
}

func (m *Machine) advance(ctx context.Context, text string) error {
	switch m.state {
	case StateIntroStudentAnswer:
		return m.toPicker(ctx, PickerLine)

	case StateStudentAnswersMain:
		m.qa.StudentAnswer = text
		m.state = StateAiAsksFollowup
		q, err := m.talker.FreeTalk(ctx, m.request(collab.ActionFollowup))
		if err != nil {
			return err
		}
		m.qa.FollowupQuestion = q
		if err := m.host.Say(ctx, q); err != nil {
			return err
		}
		m.state = StateStudentAnswersFollowup
		return nil

	case StateStudentAnswersFollowup:
		m.qa.FollowupAnswer = text
		m.state = StateAiOpinionResponse
		opinion, err := m.talker.FreeTalk(ctx, m.request(collab.ActionOpinion))
		if err != nil {
			return err
		}
		if err := m.host.Say(ctx, opinion); err != nil {
			return err
		}
		return m.offerFloor(ctx, FloorLine)

	case StateStudentAdditionalIntent:
		if IsNegativeResponse(text) {
			return m.toPicker(ctx, NextTopicLine)
		}
		if isAffirmativeOnly(text) {
			if err := m.host.Say(ctx, GoAheadLine); err != nil {
				return err
			}
			m.state = StateStudentAsksQuestion
			return nil
		}
		return m.answer(ctx, text)

	case StateStudentAsksQuestion:
		return m.answer(ctx, text)
	}
	return ErrUnexpectedInput
}

func (m *Machine) answer(ctx context.Context, question string) error {
	m.qa.StudentQuestion = question
	m.state = StateAiAnswersStudentQuestion
	reply, err := m.talker.FreeTalk(ctx, m.request(collab.ActionAnswer))
	if err != nil {
		return err
	}
	if err := m.host.Say(ctx, reply); err != nil {
		return err
	}
	return m.offerFloor(ctx, MoreLine)
}

func (m *Machine) offerFloor(ctx context.Context, line string) error {
	m.state = StateAiAskAdditionalQuestions
	if err := m.host.Say(ctx, line); err != nil {
		return err
	}
	m.state = StateStudentAdditionalIntent
	return nil
}

func (m *Machine) toPicker(ctx context.Context, line string) error {
	if err := m.host.Say(ctx, line); err != nil {
		return err
	}
	m.state = StateShowQuestionPicker
	return m.host.ShowPicker(ctx, m.questions.Preview())
}

func (m *Machine) request(action collab.FreeAction) collab.FreeRequest {
	return collab.FreeRequest{
		Action:           action,
		MainQuestion:     m.qa.MainQuestion,
		StudentAnswer:    m.qa.StudentAnswer,
		FollowupQuestion: m.qa.FollowupQuestion,
		FollowupAnswer:   m.qa.FollowupAnswer,
		StudentQuestion:  m.qa.StudentQuestion,
	}
}

// Preview returns the question currently offered in the picker.
func (m *Machine) Preview() (string, error) {
	if m.state != StateShowQuestionPicker {
		return "", ErrUnexpectedInput
	}
	return m.questions.Preview(), nil
}

// RefreshQuestion offers a different question.
func (m *Machine) RefreshQuestion(ctx context.Context) (string, error) {
	if m.state != StateShowQuestionPicker {
		return "", ErrUnexpectedInput
	}
	q := m.questions.Refresh()
	return q, m.host.ShowPicker(ctx, q)
}

// ConfirmQuestion takes the previewed question and reads it out.
func (m *Machine) ConfirmQuestion(ctx context.Context) (string, error) {
	if m.state != StateShowQuestionPicker {
		return "", ErrUnexpectedInput
	}
	q := m.questions.Confirm()
	m.qa = Context{MainQuestion: q}
	m.state = StateAiReadsMainQuestion
	if err := m.host.Say(ctx, q); err != nil {
		// The question is spent; keep it and let the learner answer.
		m.state = StateStudentAnswersMain
		return q, err
	}
	m.state = StateStudentAnswersMain
	return q, nil
}
