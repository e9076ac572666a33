package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// GoogleSynthesizer calls Google Cloud Text-to-Speech over REST. Text with
// [EN] spans is sent as bilingual SSML on the Portuguese voice.
type GoogleSynthesizer struct {
	cfg        GoogleConfig
	httpClient *http.Client
}

// NewGoogleSynthesizer creates a Google TTS client.
func NewGoogleSynthesizer(cfg GoogleConfig) (*GoogleSynthesizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("google TTS API key is required")
	}
	return &GoogleSynthesizer{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}, nil
}

type googleInput struct {
	Text string `json:"text,omitempty"`
	SSML string `json:"ssml,omitempty"`
}

type googleVoice struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
	SSMLGender   string `json:"ssmlGender"`
}

type googleAudioConfig struct {
	AudioEncoding string  `json:"audioEncoding"`
	SpeakingRate  float64 `json:"speakingRate"`
}

type googleRequest struct {
	Input       googleInput       `json:"input"`
	Voice       googleVoice       `json:"voice"`
	AudioConfig googleAudioConfig `json:"audioConfig"`
}

func (g *GoogleSynthesizer) buildRequest(req Request) googleRequest {
	out := googleRequest{
		Voice:       googleVoice{LanguageCode: "en-US", Name: g.cfg.VoiceEN, SSMLGender: "FEMALE"},
		AudioConfig: googleAudioConfig{AudioEncoding: "MP3", SpeakingRate: effectiveSpeed(req)},
	}
	switch {
	case HasBilingualTags(req.Text):
		out.Input.SSML = BilingualSSML(req.Text, g.cfg.VoicePT, g.cfg.VoiceEN)
		out.Voice.LanguageCode = "pt-BR"
		out.Voice.Name = g.cfg.VoicePT
	case req.Lang == "pt":
		out.Input.Text = StripTags(CleanText(req.Text))
		out.Voice.LanguageCode = "pt-BR"
		out.Voice.Name = g.cfg.VoicePT
	default:
		out.Input.Text = StripTags(CleanText(req.Text))
	}
	if req.Voice != "" {
		out.Voice.Name = req.Voice
	}
	return out
}

func (g *GoogleSynthesizer) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	body, err := json.Marshal(g.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(g.cfg.BaseURL, "/") + "/text:synthesize?key=" + url.QueryEscape(g.cfg.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("google TTS: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("google TTS: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("google TTS: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google TTS: status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var result struct {
		AudioContent string `json:"audioContent"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("google TTS: parse response: %w", err)
	}
	if result.AudioContent == "" {
		return nil, fmt.Errorf("google TTS: no audio content")
	}

	audio, err := base64.StdEncoding.DecodeString(result.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("google TTS: decode audio: %w", err)
	}
	return audio, nil
}
