package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// DeepgramTranscriber transcribes with Deepgram's prerecorded REST API.
type DeepgramTranscriber struct {
	cfg        DeepgramConfig
	httpClient *http.Client
}

// NewDeepgramTranscriber creates a Deepgram transcriber.
func NewDeepgramTranscriber(cfg DeepgramConfig) (*DeepgramTranscriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("deepgram API key is required")
	}
	return &DeepgramTranscriber{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}, nil
}

func (d *DeepgramTranscriber) Transcribe(ctx context.Context, audio []byte, lang string) (Transcript, error) {
	if len(audio) == 0 {
		return Transcript{}, ErrNoSpeech
	}

	q := url.Values{}
	q.Set("model", d.cfg.Model)
	q.Set("smart_format", "true")
	q.Set("punctuate", "true")
	if lang == "en" || lang == "" {
		q.Set("language", "en-US")
	} else {
		q.Set("detect_language", "true")
	}
	endpoint := strings.TrimRight(d.cfg.BaseURL, "/") + "/listen?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return Transcript{}, fmt.Errorf("deepgram: build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+d.cfg.APIKey)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return Transcript{}, fmt.Errorf("deepgram: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Transcript{}, fmt.Errorf("deepgram: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Transcript{}, fmt.Errorf("deepgram: status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	alt := gjson.GetBytes(body, "results.channels.0.alternatives.0")
	if !alt.Exists() {
		return Transcript{}, fmt.Errorf("deepgram: unexpected response shape")
	}
	text := strings.TrimSpace(alt.Get("transcript").String())
	if text == "" {
		return Transcript{}, ErrNoSpeech
	}
	return Transcript{Text: text, Confidence: alt.Get("confidence").Float(), Provider: "deepgram-nova-2"}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
