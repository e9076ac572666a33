// Package speech talks to cloud speech-to-text and text-to-speech services.
//
// Providers are tried in the configured order; the first usable result wins.
// Synthesized audio is cached on disk so repeated prompts cost nothing.
package speech

import (
	"context"
	"errors"
	"os"
	"time"
)

var (
	// ErrNoSpeech means the recording held no usable speech, or the
	// transcript looked like a hallucination. The learner should try again.
	ErrNoSpeech = errors.New("no speech detected")

	// ErrTooLong is returned for synthesis input over MaxSynthesisRunes.
	ErrTooLong = errors.New("text too long for synthesis")

	// ErrNotConfigured means no provider has credentials.
	ErrNotConfigured = errors.New("no speech provider configured")
)

// MaxSynthesisRunes is the largest input a synthesis request accepts.
const MaxSynthesisRunes = 500

// Transcript is the result of one transcription.
type Transcript struct {
	Text       string
	Confidence float64
	Provider   string
}

// Transcriber converts recorded audio into text. lang is a hint such as
// "en" or "pt".
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, lang string) (Transcript, error)
}

// Request describes one synthesis call.
type Request struct {
	Text  string
	Lang  string  // "en" or "pt"
	Speed float64 // 1.0 is normal
	Voice string  // provider voice override; empty uses the default
}

// Synthesizer converts text into MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// Config configures the speech providers.
type Config struct {
	// STT lists transcription providers in fallback order: "whisper", "deepgram".
	STT []string `yaml:"stt"`
	// TTS lists synthesis providers in fallback order: "openai", "google".
	TTS []string `yaml:"tts"`

	Language   string  `yaml:"language"`
	Speed      float64 `yaml:"speed"`
	ChunkLimit int     `yaml:"chunk_limit"`
	CacheDir   string  `yaml:"cache_dir"`

	Groq      GroqConfig      `yaml:"groq"`
	Deepgram  DeepgramConfig  `yaml:"deepgram"`
	OpenAITTS OpenAITTSConfig `yaml:"openai_tts"`
	Google    GoogleConfig    `yaml:"google"`
}

// GroqConfig configures Whisper transcription through Groq's
// OpenAI-compatible API.
type GroqConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// DeepgramConfig configures Deepgram prerecorded transcription.
type DeepgramConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// OpenAITTSConfig configures an OpenAI-compatible /v1/audio/speech server.
type OpenAITTSConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Voice   string        `yaml:"voice"`
	Timeout time.Duration `yaml:"timeout"`
}

// GoogleConfig configures Google Cloud Text-to-Speech over REST.
type GoogleConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	VoiceEN string        `yaml:"voice_en"`
	VoicePT string        `yaml:"voice_pt"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the provider defaults.
func DefaultConfig() Config {
	return Config{
		STT:        []string{"whisper", "deepgram"},
		TTS:        []string{"openai", "google"},
		Language:   "en",
		Speed:      1.0,
		ChunkLimit: MaxSynthesisRunes,
		Groq: GroqConfig{
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "whisper-large-v3",
			Timeout: 30 * time.Second,
		},
		Deepgram: DeepgramConfig{
			BaseURL: "https://api.deepgram.com/v1",
			Model:   "nova-2-general",
			Timeout: 10 * time.Second,
		},
		OpenAITTS: OpenAITTSConfig{
			Model:   "tts-1",
			Voice:   "serena",
			Timeout: 15 * time.Second,
		},
		Google: GoogleConfig{
			BaseURL: "https://texttospeech.googleapis.com/v1",
			VoiceEN: "en-US-Chirp3-HD-Achernar",
			VoicePT: "pt-BR-Chirp3-HD-Achernar",
			Timeout: 15 * time.Second,
		},
	}
}

// ApplyEnv overrides credentials and endpoints from the environment.
func ApplyEnv(cfg Config) Config {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&cfg.Groq.APIKey, "GROQ_API_KEY")
	set(&cfg.Deepgram.APIKey, "DEEPGRAM_API_KEY")
	set(&cfg.Google.APIKey, "GOOGLE_TTS_API_KEY", "GOOGLE_API_KEY")
	set(&cfg.OpenAITTS.BaseURL, "PARLEY_TTS_URL")
	set(&cfg.OpenAITTS.APIKey, "PARLEY_TTS_API_KEY")
	return cfg
}
