package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"

	"github.com/abhisek/parley/internal/catalog"
	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/collab/local"
	"github.com/abhisek/parley/internal/convlog"
	"github.com/abhisek/parley/internal/freeconv"
	"github.com/abhisek/parley/internal/llm"
	"github.com/abhisek/parley/internal/questionbank"
	"github.com/abhisek/parley/internal/report"
	"github.com/abhisek/parley/internal/speech"
	"github.com/abhisek/parley/internal/store"
)

type fakeTTS struct{}

func (fakeTTS) Synthesize(_ context.Context, req speech.Request) ([]byte, error) {
	return []byte("mp3:" + req.Text), nil
}

type fakePlayer struct {
	mu     sync.Mutex
	played []string
}

func (p *fakePlayer) Play(_ context.Context, audio []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, string(audio))
	return nil
}

func (p *fakePlayer) Stop() {}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

type fixture struct {
	ctrl   *Controller
	mock   *llm.MockProvider
	store  *store.Store
	player *fakePlayer
	events *recorder
}

func newFixture(t *testing.T, responses ...llm.MockResponse) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cat, err := catalog.Load("dev")
	if err != nil {
		t.Fatal(err)
	}
	bank, err := questionbank.New([]string{"Where do you like to travel?", "What is your favorite food?"}, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatal(err)
	}

	mock := llm.NewMockProvider(responses...)
	f := &fixture{mock: mock, store: st, player: &fakePlayer{}, events: &recorder{}}
	f.ctrl = New(Options{
		Backend:   local.New(local.Options{Provider: mock, Catalog: cat, Synthesizer: fakeTTS{}}),
		Catalog:   cat,
		Questions: bank,
		Store:     st,
		Player:    f.player,
		Notify:    f.events.notify,
	})
	return f
}

func (f *fixture) lastAI(t *testing.T) string {
	t.Helper()
	return f.ctrl.Current().Log.LastAI()
}

func TestFreeConversationCycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		llm.MockText("Why do you like it"),
		llm.MockText("traveling opens your mind."),
	)

	if err := f.ctrl.Start(ctx, ModeFree, ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if f.lastAI(t) != freeconv.IntroLine {
		t.Fatalf("intro = %q", f.lastAI(t))
	}
	if len(f.player.played) != 1 {
		t.Fatalf("intro not played: %v", f.player.played)
	}

	if err := f.ctrl.Submit(ctx, "I'm great, thanks"); err != nil {
		t.Fatalf("intro answer: %v", err)
	}
	if f.events.count(EventPicker) != 1 {
		t.Fatal("picker not shown")
	}

	if err := f.ctrl.ConfirmQuestion(ctx); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	question := f.lastAI(t)
	if question != "Where do you like to travel?" && question != "What is your favorite food?" {
		t.Fatalf("main question = %q", question)
	}

	if err := f.ctrl.Submit(ctx, "I like the beach"); err != nil {
		t.Fatalf("main answer: %v", err)
	}
	if got := f.lastAI(t); got != "Why do you like it?" {
		t.Fatalf("follow-up = %q", got)
	}

	if err := f.ctrl.Submit(ctx, "Because it is relaxing"); err != nil {
		t.Fatalf("follow-up answer: %v", err)
	}
	if got := f.lastAI(t); got != freeconv.FloorLine {
		t.Fatalf("floor = %q", got)
	}

	if err := f.ctrl.Submit(ctx, "no"); err != nil {
		t.Fatalf("negative: %v", err)
	}
	if f.ctrl.Current().Free.State() != freeconv.StateShowQuestionPicker {
		t.Fatalf("state = %s", f.ctrl.Current().Free.State())
	}
	if f.events.count(EventPicker) != 2 {
		t.Fatal("picker not shown again")
	}

	id := f.ctrl.Current().ID
	turns, err := f.store.SessionRepo().Turns(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != f.ctrl.Current().Log.Len() {
		t.Errorf("backup has %d turns, log has %d", len(turns), f.ctrl.Current().Log.Len())
	}
	if _, err := f.store.StateRepo().GetState(ctx, questionbank.StateKey); err != nil {
		t.Errorf("question bank not persisted: %v", err)
	}

	if err := f.ctrl.Close(ctx); err != nil {
		t.Fatal(err)
	}
	sess, err := f.store.SessionRepo().GetSession(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if sess.EndedAt.IsZero() {
		t.Error("session not ended")
	}
}

func TestBusyTurnIsRefused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.ctrl.Start(ctx, ModeFree, ""); err != nil {
		t.Fatal(err)
	}

	f.ctrl.turn.Lock()
	err := f.ctrl.Submit(ctx, "hello")
	f.ctrl.turn.Unlock()

	var fail *Failure
	if !errors.As(err, &fail) || fail.Kind != FailBusy {
		t.Fatalf("got %v, want busy", err)
	}
	if f.ctrl.Current().Free.State() != freeconv.StateIntroStudentAnswer {
		t.Errorf("state changed while busy")
	}
}

func TestLessonRejectsSpeechWhileChoosing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.ctrl.Start(ctx, ModeLesson, "coffee-shop-order"); err != nil {
		t.Fatal(err)
	}
	if err := f.ctrl.BeginLesson(ctx); err != nil {
		t.Fatal(err)
	}
	if f.events.count(EventOptions) != 1 {
		t.Fatal("options not published")
	}

	before := f.ctrl.Current().Log.Len()
	err := f.ctrl.Submit(ctx, "hello")
	var fail *Failure
	if !errors.As(err, &fail) || fail.Kind != FailStateViolation {
		t.Fatalf("got %v, want state violation", err)
	}
	if f.ctrl.Current().Log.Len() != before {
		t.Error("rejected input was logged")
	}

	if err := f.ctrl.SelectOption(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := f.ctrl.Submit(ctx, "Good morning"); err != nil {
		t.Fatal(err)
	}
	st := f.ctrl.Current().Lesson.State()
	if st.Layer != 1 || st.NextAction != collab.LessonSelect {
		t.Fatalf("lesson state = layer %d next %s", st.Layer, st.NextAction)
	}
	if f.events.count(EventOptions) != 2 {
		t.Error("next layer options not published")
	}
}

func TestChatAndReport(t *testing.T) {
	ctx := context.Background()
	suggestions := llm.MockJSON(map[string]any{"suggestions": []map[string]string{
		{"en": "A latte, please.", "pt": "Um latte, por favor."},
	}})
	f := newFixture(t,
		suggestions,
		llm.MockJSON(map[string]any{
			"text": "Sure! What size?", "translation": "Claro! Qual tamanho?",
			"suggested_words": []string{"small", "large"}, "retry_prompt": "", "must_retry": false,
		}),
		suggestions,
		llm.MockJSON(map[string]any{"title": "Nice order", "emoji": "☕", "tone": "positive",
			"corrections": []any{}, "phrase_analysis": []any{}, "praise": []string{"Polite"},
			"tips": []string{"Say please"}, "practice_phrase": "A large latte, please."}),
	)

	if err := f.ctrl.Start(ctx, ModeChat, "coffee-shop"); err != nil {
		t.Fatal(err)
	}
	if got := f.lastAI(t); got != "Hi! What can I get for you today?" {
		t.Fatalf("opening = %q", got)
	}
	if err := f.ctrl.Submit(ctx, "A latte, please"); err != nil {
		t.Fatal(err)
	}
	entries := f.ctrl.Current().Log.Entries()
	last := entries[len(entries)-1]
	if last.Text != "Sure! What size?" || last.Translation != "Claro! Qual tamanho?" {
		t.Fatalf("reply = %+v", last)
	}
	if f.events.count(EventSuggestions) != 3 {
		t.Errorf("suggestion events = %d", f.events.count(EventSuggestions))
	}

	rep, err := f.ctrl.Report(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Title != "Nice order" {
		t.Errorf("report = %+v", rep)
	}
	stored, err := f.store.ReportRepo().ListReports(ctx, 10)
	if err != nil || len(stored) != 1 {
		t.Fatalf("stored reports = %v, %v", stored, err)
	}
	if stored[0].SessionID != f.ctrl.Current().ID {
		t.Errorf("report session = %q", stored[0].SessionID)
	}
}

func TestReportForStoredSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	repo := f.store.SessionRepo()
	if err := repo.CreateSession(ctx, store.Session{ID: "old", Mode: "chat", Topic: "hotel"}); err != nil {
		t.Fatal(err)
	}
	l := convlog.New("old", repo, nil)
	l.Append(ctx, convlog.SenderAI, "Welcome!", "")
	l.Append(ctx, convlog.SenderUser, "I have a reservation", "")

	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrInvalidResponse{Content: []byte("Good job overall.")}})
	backend := local.New(local.Options{Provider: mock})
	rep, rec, err := ReportFor(ctx, backend, f.store, "old")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Feedback == "" || rec == nil || rec.SessionID != "old" {
		t.Fatalf("report = %+v rec = %+v", rep, rec)
	}
	if got := mock.LastCall(); got.Messages[0].Content == "" {
		t.Error("transcript not sent")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want FailureKind
	}{
		{collab.ErrRetryRequested, FailRetry},
		{collab.ErrNoAudio, FailNoAudio},
		{freeconv.ErrUnexpectedInput, FailStateViolation},
		{&collab.UnavailableError{Capability: collab.CapChat, Err: errors.New("x")}, FailTransient},
		{ErrBusy, FailBusy},
		{fmt.Errorf("report: %w", report.ErrEmptyConversation), FailStateViolation},
		{errors.New("other"), FailTransient},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got == nil || got.Kind != tt.want {
			t.Errorf("Classify(%v) = %+v, want kind %d", tt.err, got, tt.want)
		}
	}
	if Classify(nil) != nil || Classify(context.Canceled) != nil {
		t.Error("nil and cancellation should not classify")
	}
}

func TestNoSession(t *testing.T) {
	f := newFixture(t)
	err := f.ctrl.Submit(context.Background(), "hello")
	var fail *Failure
	if !errors.As(err, &fail) || fail.Kind != FailStateViolation {
		t.Fatalf("got %v", err)
	}
}

// flakyLessons fails the first lesson request for one action.
type flakyLessons struct {
	collab.Backend
	failOn collab.LessonAction
	failed bool
}

func (b *flakyLessons) Lesson(ctx context.Context, req collab.LessonRequest) (collab.LessonReply, error) {
	if req.Action == b.failOn && !b.failed {
		b.failed = true
		return collab.LessonReply{}, &collab.UnavailableError{Capability: collab.CapLesson, Err: errors.New("timeout")}
	}
	return b.Backend.Lesson(ctx, req)
}

func TestLessonRecoversFromFailedStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	flaky := &flakyLessons{Backend: f.ctrl.opts.Backend, failOn: collab.LessonStart}
	f.ctrl.opts.Backend = flaky

	if err := f.ctrl.Start(ctx, ModeLesson, "coffee-shop-order"); err == nil {
		t.Fatal("expected start error")
	}
	if err := f.ctrl.BeginLesson(ctx); err != nil {
		t.Fatalf("begin after failed start: %v", err)
	}
	st := f.ctrl.Current().Lesson.State()
	if !st.Started || st.NextAction != collab.LessonSelect {
		t.Fatalf("lesson state = %+v", st)
	}
	if f.events.count(EventOptions) != 1 {
		t.Error("options not published")
	}
}

func TestLessonRecoversFromFailedOptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	flaky := &flakyLessons{Backend: f.ctrl.opts.Backend}
	f.ctrl.opts.Backend = flaky

	if err := f.ctrl.Start(ctx, ModeLesson, "coffee-shop-order"); err != nil {
		t.Fatal(err)
	}
	if err := f.ctrl.BeginLesson(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.ctrl.SelectOption(ctx, 1); err != nil {
		t.Fatal(err)
	}
	flaky.failOn = collab.LessonShowOptions
	if err := f.ctrl.Submit(ctx, "Good morning"); err == nil {
		t.Fatal("expected options fetch error")
	}
	if !f.ctrl.Current().Lesson.State().AwaitsOptions() {
		t.Fatal("lesson should wait for options")
	}

	if err := f.ctrl.BeginLesson(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	st := f.ctrl.Current().Lesson.State()
	if st.Layer != 1 || st.NextAction != collab.LessonSelect || len(st.Options) == 0 {
		t.Fatalf("lesson state = layer %d next %s", st.Layer, st.NextAction)
	}
	if err := f.ctrl.SelectOption(ctx, 0); err != nil {
		t.Fatalf("select after resume: %v", err)
	}
	// Nothing pending: begin is a no-op.
	if err := f.ctrl.BeginLesson(ctx); err != nil {
		t.Fatal(err)
	}
}
