// Package collab defines the capabilities parley needs from its backend:
// transcription, scenario chat, free-conversation text, lesson steps,
// speech synthesis and reports. Implementations live in collab/local
// (in-process) and collab/remote (JSON over HTTP). Every payload passes
// through the Normalize functions in this package so callers see one
// stable shape regardless of which backend answered.
package collab

import (
	"context"
	"errors"
	"fmt"
)

// Capability names used in UnavailableError and logs.
const (
	CapTranscribe = "transcribe"
	CapChat       = "chat"
	CapSuggest    = "suggestions"
	CapFreeTalk   = "free-conversation"
	CapLesson     = "lesson"
	CapSpeech     = "speech"
	CapReport     = "report"
)

var (
	// ErrRetryRequested means the transcription was empty or unreliable.
	// The learner should simply say it again.
	ErrRetryRequested = errors.New("didn't catch that, please try again")

	// ErrNoAudio means synthesis returned nothing usable. The turn goes on
	// text-only.
	ErrNoAudio = errors.New("no audio available")
)

// UnavailableError is a transient collaborator failure.
type UnavailableError struct {
	Capability string
	Err        error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Capability, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Unavailable wraps err as an UnavailableError for capability. Sentinel
// errors of this package, context errors and existing UnavailableErrors
// pass through unchanged.
func Unavailable(capability string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UnavailableError
	switch {
	case errors.Is(err, ErrRetryRequested), errors.Is(err, ErrNoAudio),
		errors.Is(err, context.Canceled), errors.As(err, &ue):
		return err
	}
	return &UnavailableError{Capability: capability, Err: err}
}

// Line is one entry of the conversation as sent to a collaborator.
type Line struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Transcript is a normalized transcription result.
type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Transcriber turns recorded speech into text. It returns
// ErrRetryRequested when nothing reliable was heard.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, lang string) (Transcript, error)
}

// ChatRequest is one scenario-chat turn.
type ChatRequest struct {
	Text     string `json:"text"`
	Scenario string `json:"context"`
	Language string `json:"lessonLang"`
	Mode     string `json:"practiceMode"`
	History  []Line `json:"history,omitempty"`
}

// ChatReply is the partner's answer.
type ChatReply struct {
	Text           string   `json:"text"`
	Translation    string   `json:"translation,omitempty"`
	SuggestedWords []string `json:"suggested_words,omitempty"`
	RetryPrompt    string   `json:"retry_prompt,omitempty"`
	MustRetry      bool     `json:"must_retry,omitempty"`
}

// Suggestion is a reply the learner could give, with its translation.
type Suggestion struct {
	EN string `json:"en"`
	PT string `json:"pt"`
}

// ChatPartner plays the scenario role.
type ChatPartner interface {
	Chat(ctx context.Context, req ChatRequest) (ChatReply, error)
	Suggest(ctx context.Context, aiMessage, scenario, lang string) ([]Suggestion, error)
}

// FreeAction selects the generated free-conversation turn.
type FreeAction string

const (
	ActionFollowup FreeAction = "followup"
	ActionOpinion  FreeAction = "opinion"
	ActionAnswer   FreeAction = "answer"
)

// FreeRequest carries the accumulated question-and-answer context.
type FreeRequest struct {
	Action           FreeAction `json:"action"`
	MainQuestion     string     `json:"main_question"`
	StudentAnswer    string     `json:"student_answer"`
	FollowupQuestion string     `json:"followup_question,omitempty"`
	FollowupAnswer   string     `json:"followup_answer,omitempty"`
	StudentQuestion  string     `json:"student_question,omitempty"`
}

// FreeTalker generates the dynamic free-conversation turns.
type FreeTalker interface {
	FreeTalk(ctx context.Context, req FreeRequest) (string, error)
}

// LessonAction is a structured-lesson step. The same tags are used for
// the next required action.
type LessonAction string

const (
	LessonStart       LessonAction = "start"
	LessonShowOptions LessonAction = "show_options"
	LessonSelect      LessonAction = "select_option"
	LessonEvaluate    LessonAction = "evaluate_practice"
	LessonConclusion  LessonAction = "conclusion"
	LessonFinished    LessonAction = "finished"
)

// Option is a choosable phrase within a lesson layer.
type Option struct {
	EN          string            `json:"en"`
	PT          string            `json:"pt,omitempty"`
	SkipToLayer int               `json:"skip_to_layer,omitempty"`
	Slots       map[string]string `json:"slots,omitempty"`
}

// LessonRequest asks the guide for the next lesson content.
type LessonRequest struct {
	Lesson          string       `json:"context"`
	Action          LessonAction `json:"action"`
	Layer           int          `json:"layer"`
	Option          *int         `json:"option,omitempty"`
	Text            string       `json:"text,omitempty"`
	SelectedPhrase  *Option      `json:"selected_phrase,omitempty"`
	CompositePhrase string       `json:"composite_phrase,omitempty"`
	SkipToLayer     int          `json:"skip_to_layer,omitempty"`
}

// LessonReply is the normalized lesson response. Type is one of welcome,
// options, practice, feedback or conclusion.
type LessonReply struct {
	Type        string
	Text        string
	Translation string

	Title             string
	TotalLayers       int
	CompositeTemplate string
	CompositeLayers   []int

	LayerTitle string
	Options    []Option

	Selected    *Option
	SkipToLayer int

	Layer        int
	NextLayer    int
	ReadyForNext bool
	NextAction   LessonAction
}

// LessonGuide runs the structured-lesson steps.
type LessonGuide interface {
	Lesson(ctx context.Context, req LessonRequest) (LessonReply, error)
}

// SpeechRequest asks for one synthesized chunk.
type SpeechRequest struct {
	Text  string  `json:"text"`
	Lang  string  `json:"lang"`
	Speed float64 `json:"speed"`
	Voice string  `json:"voice,omitempty"`
}

// Synthesizer turns text into audio. It returns ErrNoAudio when the
// result is empty.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
}

// ReportRequest carries the finished conversation.
type ReportRequest struct {
	Lines    []Line `json:"conversation"`
	Scenario string `json:"context"`
	Mode     string `json:"mode,omitempty"`
}

// Correction is one corrected learner sentence.
type Correction struct {
	Original    string `json:"original"`
	Corrected   string `json:"corrected"`
	Assessment  string `json:"assessment,omitempty"`
	Comment     string `json:"comment,omitempty"`
	Tag         string `json:"tag,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// PhraseAnalysis rates how natural one learner phrase sounds.
type PhraseAnalysis struct {
	Phrase      string `json:"phrase"`
	Naturalness int    `json:"naturalness"`
	Level       string `json:"level,omitempty"`
	Natural     string `json:"natural,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// Report is the end-of-session feedback. When the generator could not
// produce structured output only Feedback is set.
type Report struct {
	Title          string           `json:"title,omitempty"`
	Emoji          string           `json:"emoji,omitempty"`
	Tone           string           `json:"tone,omitempty"`
	Corrections    []Correction     `json:"corrections,omitempty"`
	PhraseAnalysis []PhraseAnalysis `json:"phrase_analysis,omitempty"`
	Praise         []string         `json:"praise,omitempty"`
	Tips           []string         `json:"tips,omitempty"`
	PracticePhrase string           `json:"practice_phrase,omitempty"`
	Feedback       string           `json:"feedback,omitempty"`
}

// Structured reports whether r carries more than free-form feedback.
func (r Report) Structured() bool {
	return r.Title != "" || len(r.Corrections) > 0 || len(r.PhraseAnalysis) > 0 ||
		len(r.Praise) > 0 || len(r.Tips) > 0
}

// Reporter produces the end-of-session report.
type Reporter interface {
	Report(ctx context.Context, req ReportRequest) (Report, error)
}

// Backend is the full collaborator surface.
type Backend interface {
	Transcriber
	ChatPartner
	FreeTalker
	LessonGuide
	Synthesizer
	Reporter
}
