package speech

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// noSpeechThreshold is the per-segment no_speech_prob above which Whisper
// output is treated as silence.
const noSpeechThreshold = 0.6

// whisperFillers are phrases Whisper tends to invent for silence or noise.
var whisperFillers = map[string]bool{
	"you":                                 true,
	"thank you":                           true,
	"thanks for watching":                 true,
	"thank you for watching":              true,
	"obrigado":                            true,
	"obrigada":                            true,
	"legendas pela comunidade amaraorg":   true,
	"subtitles by the amaraorg community": true,
}

// WhisperTranscriber transcribes through an OpenAI-compatible Whisper
// endpoint; Groq by default.
type WhisperTranscriber struct {
	client *openai.Client
	model  string
}

// NewWhisperTranscriber creates a Whisper transcriber.
func NewWhisperTranscriber(cfg GroqConfig) (*WhisperTranscriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &WhisperTranscriber{client: openai.NewClientWithConfig(config), model: cfg.Model}, nil
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte, lang string) (Transcript, error) {
	if len(audio) == 0 {
		return Transcript{}, ErrNoSpeech
	}
	if lang == "" {
		lang = "en"
	}
	prompt := "Transcribe the user's speech exactly as spoken in English."
	if lang != "en" {
		prompt = "Transcreva a fala do usuário exatamente."
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:       w.model,
		FilePath:    "audio.wav",
		Reader:      bytes.NewReader(audio),
		Prompt:      prompt,
		Temperature: 0,
		Language:    lang,
		Format:      openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return Transcript{}, fmt.Errorf("whisper: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" || looksHallucinated(text, resp) {
		return Transcript{}, ErrNoSpeech
	}
	return Transcript{Text: text, Confidence: confidence(resp), Provider: "groq-whisper"}, nil
}

// looksHallucinated flags output produced from silence: every segment is
// probably non-speech, or the text is a known filler phrase and the
// segments are not confidently speech.
func looksHallucinated(text string, resp openai.AudioResponse) bool {
	if len(resp.Segments) > 0 {
		silent := true
		for _, s := range resp.Segments {
			if s.NoSpeechProb <= noSpeechThreshold {
				silent = false
				break
			}
		}
		if silent {
			return true
		}
	}
	if !whisperFillers[fillerKey(text)] {
		return false
	}
	return len(resp.Segments) == 0 || maxNoSpeech(resp) > 0.3
}

func fillerKey(text string) string {
	text = strings.ToLower(text)
	text = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '!', '?', '"', '\'':
			return -1
		}
		return r
	}, text)
	return strings.Join(strings.Fields(text), " ")
}

func maxNoSpeech(resp openai.AudioResponse) float64 {
	m := 0.0
	for _, s := range resp.Segments {
		m = max(m, s.NoSpeechProb)
	}
	return m
}

// confidence derives a 0-1 score from the segments' no-speech probability.
func confidence(resp openai.AudioResponse) float64 {
	if len(resp.Segments) == 0 {
		return 1.0
	}
	sum := 0.0
	for _, s := range resp.Segments {
		sum += 1 - s.NoSpeechProb
	}
	return sum / float64(len(resp.Segments))
}
