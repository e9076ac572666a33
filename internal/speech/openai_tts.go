package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// minAudioBytes is the smallest payload accepted as real audio; smaller
// responses are error bodies or empty clips.
const minAudioBytes = 100

// OpenAISynthesizer synthesizes through an OpenAI-compatible
// /v1/audio/speech server.
type OpenAISynthesizer struct {
	client *openai.Client
	model  string
	voice  string
}

// NewOpenAISynthesizer creates a synthesizer for cfg.BaseURL.
func NewOpenAISynthesizer(cfg OpenAITTSConfig) (*OpenAISynthesizer, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("speech server URL is required")
	}
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasSuffix(config.BaseURL, "/v1") {
		config.BaseURL += "/v1"
	}
	if cfg.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &OpenAISynthesizer{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		voice:  cfg.Voice,
	}, nil
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	voice := s.voice
	if req.Voice != "" {
		voice = req.Voice
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          StripTags(CleanText(req.Text)),
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          effectiveSpeed(req),
	})
	if err != nil {
		return nil, fmt.Errorf("speech server: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("speech server: read audio: %w", err)
	}
	if len(audio) < minAudioBytes {
		return nil, fmt.Errorf("speech server: payload too small (%d bytes)", len(audio))
	}
	return audio, nil
}

// effectiveSpeed keeps Portuguese and bilingual speech at native speed;
// only English honors the requested rate.
func effectiveSpeed(req Request) float64 {
	if req.Lang == "pt" || HasBilingualTags(req.Text) || req.Speed <= 0 {
		return 1.0
	}
	return req.Speed
}
