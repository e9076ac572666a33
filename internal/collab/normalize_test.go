package collab

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTranscript(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{"text", `{"text":" hello ","confidence":0.9}`, "hello", nil},
		{"transcript alias", `{"transcript":"hi there"}`, "hi there", nil},
		{"empty", `{"text":""}`, "", ErrRetryRequested},
		{"retry flag", `{"text":"you","retry":true}`, "", ErrRetryRequested},
		{"no speech error", `{"error":"No speech detected"}`, "", ErrRetryRequested},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTranscript([]byte(tt.raw))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Text)
		})
	}

	_, err := NormalizeTranscript([]byte(`{"error":"quota exceeded"}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRetryRequested)
}

func TestNormalizeChatAliases(t *testing.T) {
	got, err := NormalizeChat([]byte(`{
		"message": "What size?",
		"pt": "Qual tamanho?",
		"suggestedWords": ["small", {"word": "large"}],
		"retryPrompt": "Try again",
		"mustRetry": true
	}`))
	require.NoError(t, err)
	assert.Equal(t, ChatReply{
		Text:           "What size?",
		Translation:    "Qual tamanho?",
		SuggestedWords: []string{"small", "large"},
		RetryPrompt:    "Try again",
		MustRetry:      true,
	}, got)

	_, err = NormalizeChat([]byte(`{"translation":"x"}`))
	assert.Error(t, err)
}

func TestNormalizeFreeText(t *testing.T) {
	got, err := NormalizeFreeText([]byte(`{"text":"Why?"}`))
	require.NoError(t, err)
	assert.Equal(t, "Why?", got)

	got, err = NormalizeFreeText([]byte(`"Just text"`))
	require.NoError(t, err)
	assert.Equal(t, "Just text", got)

	_, err = NormalizeFreeText([]byte(`not json`))
	assert.Error(t, err)
}

func TestNormalizeSuggestions(t *testing.T) {
	got, err := NormalizeSuggestions([]byte(`{"suggestions":[{"en":"Hi","pt":"Oi"},"Thanks"]}`))
	require.NoError(t, err)
	assert.Equal(t, []Suggestion{{EN: "Hi", PT: "Oi"}, {EN: "Thanks"}}, got)

	got, err = NormalizeSuggestions([]byte(`[{"text":"Sure"}]`))
	require.NoError(t, err)
	assert.Equal(t, "Sure", got[0].EN)
}

func TestNormalizeLessonWelcome(t *testing.T) {
	got, err := NormalizeLesson([]byte(`{
		"type": "welcome",
		"text": "Welcome!",
		"translation": "Bem-vindo!",
		"lesson_title": "Coffee",
		"total_layers": 5,
		"composite_template": "{verb} {size} {drink}{end}",
		"compositeLayers": [1, 2, 3, 4],
		"nextAction": "show_options"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "Coffee", got.Title)
	assert.Equal(t, 5, got.TotalLayers)
	assert.Equal(t, []int{1, 2, 3, 4}, got.CompositeLayers)
	assert.Equal(t, LessonShowOptions, got.NextAction)
}

func TestNormalizeLessonOptionsAndPractice(t *testing.T) {
	got, err := NormalizeLesson([]byte(`{
		"type": "options",
		"text": "Choose",
		"choices": ["plain", {"en": "Hi", "pt": "Oi", "skipToLayer": 3, "slots": {"verb": "I'd like a"}}],
		"layer": 1
	}`))
	require.NoError(t, err)
	require.Len(t, got.Options, 2)
	assert.Equal(t, Option{EN: "plain"}, got.Options[0])
	assert.Equal(t, 3, got.Options[1].SkipToLayer)
	assert.Equal(t, "I'd like a", got.Options[1].Slots["verb"])
	assert.Equal(t, LessonSelect, got.NextAction, "inferred from type")

	got, err = NormalizeLesson([]byte(`{"type":"practice","text":"Say it","selected_phrase":{"en":"Hi"},"skip_to_layer":4,"next_action":"evaluate_practice"}`))
	require.NoError(t, err)
	require.NotNil(t, got.Selected)
	assert.Equal(t, 4, got.Selected.SkipToLayer)
}

func TestNormalizeLessonFeedback(t *testing.T) {
	got, err := NormalizeLesson([]byte(`{"type":"feedback","text":"Good","success":true,"layer":2,"nextLayer":3}`))
	require.NoError(t, err)
	assert.True(t, got.ReadyForNext)
	assert.Equal(t, 3, got.NextLayer)

	got, err = NormalizeLesson([]byte(`{"type":"feedback","text":"Again","layer":2}`))
	require.NoError(t, err)
	assert.False(t, got.ReadyForNext)
	assert.Equal(t, 2, got.NextLayer, "next layer defaults to the current one")
	assert.Equal(t, LessonShowOptions, got.NextAction)

	got, err = NormalizeLesson([]byte(`{"type":"feedback","text":"Done","success":true,"layer":2,"next_layer":3,"total_layers":3}`))
	require.NoError(t, err)
	assert.Equal(t, LessonConclusion, got.NextAction)

	_, err = NormalizeLesson([]byte(`{"text":"no type"}`))
	assert.Error(t, err)
}

func TestNormalizeReportPortugueseKeys(t *testing.T) {
	got, err := NormalizeReport([]byte(`{"report": {
		"titulo": "Ótimo progresso!",
		"emoji": "🎉",
		"tom": "positivo",
		"correcoes": [{"fraseOriginal": "I want coffee", "fraseCorrigida": "I'd like a coffee", "avaliacaoGeral": "Aceitável", "comentarioBreve": "Mais educado.", "tag": "Correta, mas Pouco Natural", "explicacaoDetalhada": "..."}],
		"analise_frases": [{"frase_aluno": "I want coffee", "naturalidade": 150, "nivel": "Boa", "frase_natural": "I'd like a coffee"}],
		"elogios": ["Boa pronúncia"],
		"dicas": ["Use I'd like"],
		"frase_pratica": "Could I get a latte?"
	}, "raw": "..."}`))
	require.NoError(t, err)
	assert.Equal(t, "Ótimo progresso!", got.Title)
	require.Len(t, got.Corrections, 1)
	assert.Equal(t, "I'd like a coffee", got.Corrections[0].Corrected)
	assert.Equal(t, "Aceitável", got.Corrections[0].Assessment)
	require.Len(t, got.PhraseAnalysis, 1)
	assert.Equal(t, 100, got.PhraseAnalysis[0].Naturalness, "clamped")
	assert.Equal(t, []string{"Boa pronúncia"}, got.Praise)
	assert.Equal(t, "Could I get a latte?", got.PracticePhrase)
}

func TestNormalizeReportLegacyShortKeys(t *testing.T) {
	got, err := NormalizeReport([]byte(`{"titulo":"Bom!","correcoes":[{"ruim":"I has","boa":"I have","explicacao":"have com I"}]}`))
	require.NoError(t, err)
	require.Len(t, got.Corrections, 1)
	assert.Equal(t, Correction{Original: "I has", Corrected: "I have", Explanation: "have com I"}, got.Corrections[0])
}

func TestNormalizeReportFreeForm(t *testing.T) {
	got, err := NormalizeReport([]byte(`{"feedback":"You did well overall."}`))
	require.NoError(t, err)
	assert.False(t, got.Structured())
	assert.Equal(t, "You did well overall.", got.Feedback)

	_, err = NormalizeReport([]byte(`{}`))
	assert.Error(t, err)
}

func TestUnavailable(t *testing.T) {
	base := errors.New("503")
	err := Unavailable(CapChat, base)
	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, CapChat, ue.Capability)
	assert.ErrorIs(t, err, base)

	assert.Same(t, ErrRetryRequested, Unavailable(CapTranscribe, ErrRetryRequested))
	assert.ErrorIs(t, Unavailable(CapChat, context.Canceled), context.Canceled)
	assert.Nil(t, Unavailable(CapChat, nil))
	assert.Equal(t, err, Unavailable(CapLesson, err), "already wrapped")
}
