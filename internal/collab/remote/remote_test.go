package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abhisek/parley/internal/collab"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/", "secret", 5*time.Second, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := New("", "", time.Second, nil); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestChatSendsBearerAndNormalizes(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("auth = %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["context"] != "coffee-shop" || body["lessonLang"] != "en" {
			t.Errorf("body = %v", body)
		}
		io.WriteString(w, `{"message":"What can I get you?","translation_pt":"O que vai ser?","suggestedWords":["latte","please"]}`)
	})

	reply, err := c.Chat(context.Background(), collab.ChatRequest{Text: "Hi", Scenario: "coffee-shop", Language: "en"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.Text != "What can I get you?" || reply.Translation != "O que vai ser?" {
		t.Errorf("reply = %+v", reply)
	}
	if len(reply.SuggestedWords) != 2 {
		t.Errorf("suggested words = %v", reply.SuggestedWords)
	}
}

func TestTranscribeMultipart(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		f, _, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("audio field: %v", err)
		}
		data, _ := io.ReadAll(f)
		if string(data) != "RIFF" {
			t.Errorf("audio = %q", data)
		}
		if r.FormValue("language") != "en" {
			t.Errorf("language = %q", r.FormValue("language"))
		}
		io.WriteString(w, `{"text":"hello there","confidence":0.93,"provider":"groq-whisper"}`)
	})

	got, err := c.Transcribe(context.Background(), []byte("RIFF"), "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got.Text != "hello there" || got.Confidence != 0.93 {
		t.Errorf("got %+v", got)
	}
}

func TestTranscribeNoSpeech(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"No speech detected"}`)
	})
	if _, err := c.Transcribe(context.Background(), []byte("RIFF"), "en"); !errors.Is(err, collab.ErrRetryRequested) {
		t.Fatalf("got %v, want ErrRetryRequested", err)
	}
}

func TestServerErrorIsUnavailable(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":"AI service not configured"}`)
	})
	_, err := c.FreeTalk(context.Background(), collab.FreeRequest{Action: collab.ActionFollowup, MainQuestion: "Q", StudentAnswer: "A"})
	var ue *collab.UnavailableError
	if !errors.As(err, &ue) || ue.Capability != collab.CapFreeTalk {
		t.Fatalf("got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable || se.Message != "AI service not configured" {
		t.Fatalf("status error = %+v", se)
	}
}

func TestSynthesize(t *testing.T) {
	audio := []byte{0xff, 0xfb, 0x90, 0x64}
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["text"] == "silent" {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"audio":null}`)
			return
		}
		w.Header().Set("Content-Type", "audio/mp3")
		w.Write(audio)
	})

	got, err := c.Synthesize(context.Background(), collab.SpeechRequest{Text: "Hello", Lang: "en", Speed: 1})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(got) != string(audio) {
		t.Errorf("audio = %v", got)
	}

	if _, err := c.Synthesize(context.Background(), collab.SpeechRequest{Text: "silent"}); !errors.Is(err, collab.ErrNoAudio) {
		t.Errorf("json body: got %v, want ErrNoAudio", err)
	}
}

func TestLessonAndReport(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/lesson":
			io.WriteString(w, `{"type":"feedback","text":"Great!","ready_for_next":true,"layer":0,"next_layer":1,"total_layers":3}`)
		case "/api/report":
			io.WriteString(w, `{"report":{"titulo":"Bom trabalho","elogios":["Clear greeting"],"dicas":["Use please"]}}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	step, err := c.Lesson(ctx, collab.LessonRequest{Lesson: "coffee-shop-order", Action: collab.LessonEvaluate, Text: "hi"})
	if err != nil {
		t.Fatalf("Lesson: %v", err)
	}
	if !step.ReadyForNext || step.NextLayer != 1 || step.NextAction != collab.LessonShowOptions {
		t.Errorf("step = %+v", step)
	}

	rep, err := c.Report(ctx, collab.ReportRequest{Lines: []collab.Line{{Sender: "user", Text: "hi"}}})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if rep.Title != "Bom trabalho" || len(rep.Praise) != 1 || len(rep.Tips) != 1 {
		t.Errorf("report = %+v", rep)
	}

	if _, err := c.Suggest(ctx, "Hi", "coffee-shop", "en"); err == nil {
		t.Error("404 should fail")
	}
}
