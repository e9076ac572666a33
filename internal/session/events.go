package session

import (
	"context"
	"errors"

	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/convlog"
	"github.com/abhisek/parley/internal/freeconv"
	"github.com/abhisek/parley/internal/lesson"
	"github.com/abhisek/parley/internal/report"
)

// EventKind identifies what changed.
type EventKind int

const (
	EventTurn        EventKind = iota // A line was added to the conversation
	EventStatus                       // Short-lived status message
	EventBusy                         // A turn started or finished
	EventSpeaking                     // Playback started or finished
	EventPicker                       // A discussion question is offered
	EventOptions                      // Lesson options changed
	EventSuggestions                  // Suggested replies or words for the learner
	EventFinished                     // The lesson reached its conclusion
)

// Event is sent to the Notify callback. Only the fields relevant to Kind
// are set.
type Event struct {
	Kind EventKind

	Entry       convlog.Entry
	Text        string
	On          bool
	Options     []collab.Option
	Suggestions []collab.Suggestion
	Words       []string
	Failure     *Failure

	// Lesson progress for EventOptions: the zero-based layer and the count.
	Step, Steps int
}

// FailureKind classifies turn failures. None of them ends the session.
type FailureKind int

const (
	FailTransient      FailureKind = iota // Collaborator failed; try again
	FailRetry                             // Speech was not understood
	FailNoAudio                           // Nothing to play; text only
	FailStateViolation                    // Input does not fit the current step
	FailBusy                              // Another turn is running
)

// Failure is a classified turn error with a message for the learner.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// ErrBusy is returned while another turn is in progress. Input is refused,
// never queued.
var ErrBusy = errors.New("please wait, still working on the last turn")

// ErrNoSession is returned when no session was started.
var ErrNoSession = errors.New("no practice session is running")

// Classify maps err onto the failure taxonomy. It returns nil for nil and
// for context cancellation.
func Classify(err error) *Failure {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	switch {
	case errors.Is(err, ErrBusy):
		return &Failure{Kind: FailBusy, Message: ErrBusy.Error(), Err: err}
	case errors.Is(err, collab.ErrRetryRequested):
		return &Failure{Kind: FailRetry, Message: "I didn't catch that. Please say it again.", Err: err}
	case errors.Is(err, collab.ErrNoAudio):
		return &Failure{Kind: FailNoAudio, Message: "Audio isn't available, continuing with text.", Err: err}
	case errors.Is(err, lesson.ErrOptionRequired):
		return &Failure{Kind: FailStateViolation, Message: "Please choose one of the options first.", Err: err}
	case errors.Is(err, lesson.ErrFinished):
		return &Failure{Kind: FailStateViolation, Message: "This lesson is finished. Start a new one or get your report.", Err: err}
	case errors.Is(err, lesson.ErrNotStarted), errors.Is(err, ErrNoSession):
		return &Failure{Kind: FailStateViolation, Message: "Start a practice session first.", Err: err}
	case errors.Is(err, report.ErrEmptyConversation):
		return &Failure{Kind: FailStateViolation, Message: "Say something first, then ask for your report.", Err: err}
	case errors.Is(err, freeconv.ErrUnexpectedInput):
		return &Failure{Kind: FailStateViolation, Message: "Pick a question first, or wait for your turn.", Err: err}
	}

	var ue *collab.UnavailableError
	if errors.As(err, &ue) {
		return &Failure{Kind: FailTransient, Message: "The " + ue.Capability + " service is having trouble. Please try again.", Err: err}
	}
	return &Failure{Kind: FailTransient, Message: "Something went wrong. Please try again.", Err: err}
}
