package local

import (
	"context"
	"errors"
	"testing"

	"github.com/abhisek/parley/internal/catalog"
	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/llm"
	"github.com/abhisek/parley/internal/speech"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		user   string
		target string
		want   Outcome
	}{
		{"exact", "Good morning!", "Good morning!", OutcomeSuccess},
		{"contains target", "I'd like a large coffee please", "I'd like a large coffee", OutcomeSuccess},
		{"smart quotes", "I’d like a", "I'd like a", OutcomeSuccess},
		{"typo", "good mornin", "Good morning!", OutcomeSuccess},
		{"attempted", "I want tea now", "Can I get a large latte", OutcomeRetry},
		{"off topic", "banana", "Good morning!", OutcomeRedirect},
		{"silence", "", "Good morning!", OutcomeRedirect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.user, tt.target)
			if got.Outcome != tt.want {
				t.Errorf("Score(%q, %q) = %+v, want %s", tt.user, tt.target, got, tt.want)
			}
		})
	}
}

func TestNormalizeAttempt(t *testing.T) {
	if got := normalizeAttempt("  I’d LIKE,  a \"latte\"! "); got != "i d like a latte" {
		t.Errorf("normalizeAttempt = %q", got)
	}
}

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load("dev")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

func TestLessonEngineWalk(t *testing.T) {
	ctx := context.Background()
	e := NewLessonEngine(loadCatalog(t))

	start, err := e.Lesson(ctx, collab.LessonRequest{Lesson: "coffee-shop-order", Action: collab.LessonStart})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if start.Type != "welcome" || start.NextAction != collab.LessonShowOptions {
		t.Fatalf("start = %+v", start)
	}
	if start.TotalLayers != 5 || start.CompositeTemplate == "" || len(start.CompositeLayers) != 4 {
		t.Fatalf("start missing lesson info: %+v", start)
	}

	opts, err := e.Lesson(ctx, collab.LessonRequest{Lesson: "coffee-shop-order", Action: collab.LessonShowOptions})
	if err != nil {
		t.Fatalf("show options: %v", err)
	}
	if opts.Type != "options" || len(opts.Options) != 3 || opts.NextAction != collab.LessonSelect {
		t.Fatalf("options = %+v", opts)
	}

	one := 1
	practice, err := e.Lesson(ctx, collab.LessonRequest{
		Lesson: "coffee-shop-order", Action: collab.LessonSelect, Option: &one,
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if practice.Selected == nil || practice.Selected.EN != "Good morning!" {
		t.Fatalf("selected = %+v", practice.Selected)
	}
	if practice.NextAction != collab.LessonEvaluate {
		t.Errorf("next action = %s", practice.NextAction)
	}

	fb, err := e.Lesson(ctx, collab.LessonRequest{
		Lesson: "coffee-shop-order", Action: collab.LessonEvaluate,
		Text: "good morning", SelectedPhrase: practice.Selected,
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !fb.ReadyForNext || fb.NextLayer != 1 || fb.NextAction != collab.LessonShowOptions {
		t.Fatalf("feedback = %+v", fb)
	}
	if fb.Text != "Perfect greeting! Let's order." {
		t.Errorf("feedback text = %q", fb.Text)
	}

	miss, err := e.Lesson(ctx, collab.LessonRequest{
		Lesson: "coffee-shop-order", Action: collab.LessonEvaluate,
		Text: "banana", SelectedPhrase: practice.Selected,
	})
	if err != nil {
		t.Fatalf("evaluate miss: %v", err)
	}
	if miss.ReadyForNext || miss.NextLayer != 0 {
		t.Fatalf("miss should stay on layer: %+v", miss)
	}
}

func TestLessonEngineCompositeTarget(t *testing.T) {
	e := NewLessonEngine(loadCatalog(t))
	fb, err := e.Lesson(context.Background(), collab.LessonRequest{
		Lesson: "coffee-shop-order", Action: collab.LessonEvaluate, Layer: 2,
		Text:            "I'd like a large",
		SelectedPhrase:  &collab.Option{EN: "large"},
		CompositePhrase: "I'd like a large",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !fb.ReadyForNext || fb.NextLayer != 3 {
		t.Fatalf("feedback = %+v", fb)
	}
}

func TestLessonEngineSkipAndConclusion(t *testing.T) {
	ctx := context.Background()
	e := NewLessonEngine(loadCatalog(t))

	fb, err := e.Lesson(ctx, collab.LessonRequest{
		Lesson: "hotel-check-in", Action: collab.LessonEvaluate,
		Text:           "No, I don't have a reservation.",
		SelectedPhrase: &collab.Option{EN: "No, I don't have a reservation."},
		SkipToLayer:    3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if fb.NextLayer != 2 {
		t.Fatalf("skip to layer 3 should give index 2, got %d", fb.NextLayer)
	}

	end, err := e.Lesson(ctx, collab.LessonRequest{Lesson: "hotel-check-in", Action: collab.LessonShowOptions, Layer: 99})
	if err != nil {
		t.Fatal(err)
	}
	if end.Type != "conclusion" || end.NextAction != collab.LessonFinished {
		t.Fatalf("end = %+v", end)
	}
}

func TestLessonEngineErrors(t *testing.T) {
	ctx := context.Background()
	e := NewLessonEngine(loadCatalog(t))
	if _, err := e.Lesson(ctx, collab.LessonRequest{Lesson: "nope", Action: collab.LessonStart}); err == nil {
		t.Error("unknown lesson should fail")
	}
	if _, err := e.Lesson(ctx, collab.LessonRequest{Lesson: "coffee-shop-order", Action: collab.LessonSelect, Layer: 9}); err == nil {
		t.Error("invalid layer should fail")
	}
	if _, err := e.Lesson(ctx, collab.LessonRequest{Lesson: "coffee-shop-order", Action: "dance"}); err == nil {
		t.Error("unknown action should fail")
	}
}

type fakeSTT struct {
	t   speech.Transcript
	err error
}

func (f fakeSTT) Transcribe(context.Context, []byte, string) (speech.Transcript, error) {
	return f.t, f.err
}

type fakeTTS struct {
	audio []byte
	err   error
}

func (f fakeTTS) Synthesize(context.Context, speech.Request) ([]byte, error) {
	return f.audio, f.err
}

func TestBackendTranscribe(t *testing.T) {
	ctx := context.Background()

	b := New(Options{Provider: llm.NewMockProvider(), Transcriber: fakeSTT{err: speech.ErrNoSpeech}})
	if _, err := b.Transcribe(ctx, []byte("wav"), "en"); !errors.Is(err, collab.ErrRetryRequested) {
		t.Errorf("no speech: got %v", err)
	}

	b = New(Options{Provider: llm.NewMockProvider(), Transcriber: fakeSTT{err: errors.New("boom")}})
	var ue *collab.UnavailableError
	if _, err := b.Transcribe(ctx, []byte("wav"), "en"); !errors.As(err, &ue) || ue.Capability != collab.CapTranscribe {
		t.Errorf("provider failure: got %v", err)
	}

	b = New(Options{Provider: llm.NewMockProvider(), Transcriber: fakeSTT{t: speech.Transcript{Text: "hello", Confidence: 0.9}}})
	got, err := b.Transcribe(ctx, []byte("wav"), "en")
	if err != nil || got.Text != "hello" {
		t.Errorf("got %+v, %v", got, err)
	}

	b = New(Options{Provider: llm.NewMockProvider()})
	if _, err := b.Transcribe(ctx, []byte("wav"), "en"); !errors.Is(err, speech.ErrNotConfigured) {
		t.Errorf("unconfigured: got %v", err)
	}
}

func TestBackendSynthesize(t *testing.T) {
	ctx := context.Background()
	req := collab.SpeechRequest{Text: "hi", Lang: "en", Speed: 1}

	b := New(Options{Provider: llm.NewMockProvider()})
	if _, err := b.Synthesize(ctx, req); !errors.Is(err, collab.ErrNoAudio) {
		t.Errorf("no synthesizer: got %v", err)
	}

	b = New(Options{Provider: llm.NewMockProvider(), Synthesizer: fakeTTS{}})
	if _, err := b.Synthesize(ctx, req); !errors.Is(err, collab.ErrNoAudio) {
		t.Errorf("empty audio: got %v", err)
	}

	b = New(Options{Provider: llm.NewMockProvider(), Synthesizer: fakeTTS{audio: []byte("mp3")}})
	if audio, err := b.Synthesize(ctx, req); err != nil || string(audio) != "mp3" {
		t.Errorf("got %q, %v", audio, err)
	}
}

func TestBackendChatUnavailable(t *testing.T) {
	b := New(Options{
		Provider: llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}}),
		Catalog:  loadCatalog(t),
	})
	_, err := b.Chat(context.Background(), collab.ChatRequest{Text: "hi", Scenario: "coffee-shop", Language: "en"})
	var ue *collab.UnavailableError
	if !errors.As(err, &ue) || ue.Capability != collab.CapChat {
		t.Fatalf("got %v", err)
	}
}

func TestBackendReportEmpty(t *testing.T) {
	b := New(Options{Provider: llm.NewMockProvider()})
	_, err := b.Report(context.Background(), collab.ReportRequest{Lines: []collab.Line{{Sender: "ai", Text: "Hi"}}})
	var ue *collab.UnavailableError
	if errors.As(err, &ue) {
		t.Fatalf("empty conversation should not be transient: %v", err)
	}
	if err == nil {
		t.Fatal("expected error")
	}
}
