// Package remote implements collab.Backend against a parley-compatible
// HTTP API. Every response passes through the collab Normalize functions.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/logging"
)

// StatusError is a non-2xx reply from the remote API.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

// Client is the remote collaborator.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     logging.Logger
}

var _ collab.Backend = (*Client)(nil)

// New creates a Client. token is sent as a bearer token when set.
func New(baseURL, token string, timeout time.Duration, logger logging.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("remote backend URL is required")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

func (c *Client) do(req *http.Request) ([]byte, string, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("remote call", "path", req.URL.Path, "status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
			if len(msg) > 200 {
				msg = msg[:200]
			}
		}
		return body, "", &StatusError{Code: resp.StatusCode, Message: msg}
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	body, _, err := c.do(req)
	return body, err
}

// Transcribe uploads audio as multipart form data.
func (c *Client) Transcribe(ctx context.Context, audio []byte, lang string) (collab.Transcript, error) {
	if len(audio) == 0 {
		return collab.Transcript{}, collab.ErrRetryRequested
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio", "speech.wav")
	if err != nil {
		return collab.Transcript{}, fmt.Errorf("build form: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return collab.Transcript{}, fmt.Errorf("build form: %w", err)
	}
	if lang != "" {
		if err := mw.WriteField("language", lang); err != nil {
			return collab.Transcript{}, fmt.Errorf("build form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return collab.Transcript{}, fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/transcribe", &buf)
	if err != nil {
		return collab.Transcript{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, _, err := c.do(req)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusBadRequest {
		// "no speech detected" arrives as a 400.
		if _, nerr := collab.NormalizeTranscript(body); errors.Is(nerr, collab.ErrRetryRequested) {
			return collab.Transcript{}, nerr
		}
	}
	if err != nil {
		return collab.Transcript{}, collab.Unavailable(collab.CapTranscribe, err)
	}
	t, err := collab.NormalizeTranscript(body)
	return t, collab.Unavailable(collab.CapTranscribe, err)
}

// Chat implements collab.ChatPartner.
func (c *Client) Chat(ctx context.Context, req collab.ChatRequest) (collab.ChatReply, error) {
	body, err := c.postJSON(ctx, "/api/chat", req)
	if err != nil {
		return collab.ChatReply{}, collab.Unavailable(collab.CapChat, err)
	}
	reply, err := collab.NormalizeChat(body)
	return reply, collab.Unavailable(collab.CapChat, err)
}

// Suggest implements collab.ChatPartner.
func (c *Client) Suggest(ctx context.Context, aiMessage, scenario, lang string) ([]collab.Suggestion, error) {
	body, err := c.postJSON(ctx, "/api/suggestions", map[string]string{
		"aiMessage":  aiMessage,
		"context":    scenario,
		"lessonLang": lang,
	})
	if err != nil {
		return nil, collab.Unavailable(collab.CapSuggest, err)
	}
	s, err := collab.NormalizeSuggestions(body)
	return s, collab.Unavailable(collab.CapSuggest, err)
}

// FreeTalk implements collab.FreeTalker.
func (c *Client) FreeTalk(ctx context.Context, req collab.FreeRequest) (string, error) {
	body, err := c.postJSON(ctx, "/api/free-conversation", req)
	if err != nil {
		return "", collab.Unavailable(collab.CapFreeTalk, err)
	}
	text, err := collab.NormalizeFreeText(body)
	return text, collab.Unavailable(collab.CapFreeTalk, err)
}

// Lesson implements collab.LessonGuide.
func (c *Client) Lesson(ctx context.Context, req collab.LessonRequest) (collab.LessonReply, error) {
	body, err := c.postJSON(ctx, "/api/lesson", req)
	if err != nil {
		return collab.LessonReply{}, collab.Unavailable(collab.CapLesson, err)
	}
	reply, err := collab.NormalizeLesson(body)
	return reply, collab.Unavailable(collab.CapLesson, err)
}

// Synthesize implements collab.Synthesizer. The API answers with raw
// audio; a JSON body or an empty one means no audio.
func (c *Client) Synthesize(ctx context.Context, req collab.SpeechRequest) ([]byte, error) {
	data, err := json.Marshal(map[string]any{
		"text":       req.Text,
		"lessonLang": req.Lang,
		"speed":      req.Speed,
		"voice":      req.Voice,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/tts", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")

	body, ctype, err := c.do(hreq)
	if err != nil {
		return nil, collab.Unavailable(collab.CapSpeech, err)
	}
	if len(body) == 0 || strings.HasPrefix(ctype, "application/json") {
		return nil, collab.ErrNoAudio
	}
	return body, nil
}

// Report implements collab.Reporter.
func (c *Client) Report(ctx context.Context, req collab.ReportRequest) (collab.Report, error) {
	body, err := c.postJSON(ctx, "/api/report", req)
	if err != nil {
		return collab.Report{}, collab.Unavailable(collab.CapReport, err)
	}
	r, err := collab.NormalizeReport(body)
	return r, collab.Unavailable(collab.CapReport, err)
}
