package collab

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Accepted field aliases, canonical name first:
//
//	transcript:  text | transcript | transcription
//	             retry_requested | retryRequested | retry
//	chat:        text | message | response | reply
//	             translation | translation_pt | pt
//	             suggested_words | suggestedWords | vocabulary
//	             retry_prompt | retryPrompt
//	             must_retry | mustRetry
//	free text:   text | message | response
//	suggestions: suggestions | options (or a bare array)
//	lesson:      text | message
//	             translation | pt
//	             lesson_title | lessonTitle | title
//	             total_layers | totalLayers
//	             composite_template | compositeTemplate
//	             composite_layers | compositeLayers
//	             layer_title | layerTitle
//	             options | choices
//	             selected_phrase | selectedPhrase
//	             skip_to_layer | skipToLayer
//	             next_layer | nextLayer
//	             ready_for_next | readyForNext | success
//	             next_action | nextAction
//	option:      en | text | phrase, pt | translation
//	report:      report (object) | feedback (text) | raw (text)
//	             title | titulo, tone | tom
//	             corrections | correcoes
//	               original | fraseOriginal | frase_original | ruim
//	               corrected | fraseCorrigida | frase_corrigida | boa
//	               assessment | avaliacaoGeral
//	               comment | comentarioBreve
//	               explanation | explicacaoDetalhada | explicacao
//	             phrase_analysis | phraseAnalysis | analise_frases
//	               phrase | frase_aluno, naturalness | naturalidade
//	               level | nivel, natural | frase_natural
//	               explanation | explicacao
//	             praise | elogios, tips | dicas
//	             practice_phrase | practicePhrase | frase_pratica

func first(r gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func str(r gjson.Result, keys ...string) string {
	return strings.TrimSpace(first(r, keys...).String())
}

func strList(r gjson.Result, itemKeys ...string) []string {
	var out []string
	r.ForEach(func(_, v gjson.Result) bool {
		s := v.String()
		if v.IsObject() {
			s = str(v, itemKeys...)
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}

func parse(kind string, raw []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("invalid %s payload: not JSON", kind)
	}
	root := gjson.ParseBytes(raw)
	if e := root.Get("error"); e.Exists() && e.String() != "" {
		return root, fmt.Errorf("%s: %s", kind, e.String())
	}
	return root, nil
}

// NormalizeTranscript reads a transcription payload. Empty text, an
// explicit retry flag or a "no speech" error yields ErrRetryRequested.
func NormalizeTranscript(raw []byte) (Transcript, error) {
	root, err := parse("transcript", raw)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "no speech") {
			return Transcript{}, ErrRetryRequested
		}
		return Transcript{}, err
	}
	if first(root, "retry_requested", "retryRequested", "retry").Bool() {
		return Transcript{}, ErrRetryRequested
	}
	text := str(root, "text", "transcript", "transcription")
	if text == "" {
		return Transcript{}, ErrRetryRequested
	}
	return Transcript{Text: text, Confidence: root.Get("confidence").Float()}, nil
}

// NormalizeChat reads a scenario-chat reply.
func NormalizeChat(raw []byte) (ChatReply, error) {
	root, err := parse("chat", raw)
	if err != nil {
		return ChatReply{}, err
	}
	reply := ChatReply{
		Text:           str(root, "text", "message", "response", "reply"),
		Translation:    str(root, "translation", "translation_pt", "pt"),
		SuggestedWords: strList(first(root, "suggested_words", "suggestedWords", "vocabulary"), "word", "en", "text"),
		RetryPrompt:    str(root, "retry_prompt", "retryPrompt"),
		MustRetry:      first(root, "must_retry", "mustRetry").Bool(),
	}
	if reply.Text == "" {
		return ChatReply{}, fmt.Errorf("chat: empty reply")
	}
	return reply, nil
}

// NormalizeFreeText reads a generated free-conversation turn. A bare JSON
// string is accepted as the text itself.
func NormalizeFreeText(raw []byte) (string, error) {
	root, err := parse("free-conversation", raw)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(root.String())
	if root.IsObject() {
		text = str(root, "text", "message", "response")
	}
	if text == "" {
		return "", fmt.Errorf("free-conversation: empty text")
	}
	return text, nil
}

// NormalizeSuggestions reads suggested replies.
func NormalizeSuggestions(raw []byte) ([]Suggestion, error) {
	root, err := parse("suggestions", raw)
	if err != nil {
		return nil, err
	}
	list := root
	if root.IsObject() {
		list = first(root, "suggestions", "options")
	}
	var out []Suggestion
	list.ForEach(func(_, v gjson.Result) bool {
		s := Suggestion{EN: strings.TrimSpace(v.String())}
		if v.IsObject() {
			s = Suggestion{EN: str(v, "en", "text"), PT: str(v, "pt", "translation")}
		}
		if s.EN != "" {
			out = append(out, s)
		}
		return true
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("suggestions: none returned")
	}
	return out, nil
}

func option(v gjson.Result) Option {
	if !v.IsObject() {
		return Option{EN: strings.TrimSpace(v.String())}
	}
	o := Option{
		EN:          str(v, "en", "text", "phrase"),
		PT:          str(v, "pt", "translation"),
		SkipToLayer: int(first(v, "skip_to_layer", "skipToLayer").Int()),
	}
	if slots := v.Get("slots"); slots.IsObject() {
		o.Slots = map[string]string{}
		slots.ForEach(func(k, val gjson.Result) bool {
			o.Slots[k.String()] = val.String()
			return true
		})
	}
	return o
}

// defaultNext infers the next action for payloads that omit it.
var defaultNext = map[string]LessonAction{
	"welcome":    LessonShowOptions,
	"options":    LessonSelect,
	"practice":   LessonEvaluate,
	"conclusion": LessonFinished,
}

// NormalizeLesson reads a lesson step.
func NormalizeLesson(raw []byte) (LessonReply, error) {
	root, err := parse("lesson", raw)
	if err != nil {
		return LessonReply{}, err
	}

	r := LessonReply{
		Type:              str(root, "type"),
		Text:              str(root, "text", "message"),
		Translation:       str(root, "translation", "pt"),
		Title:             str(root, "lesson_title", "lessonTitle", "title"),
		TotalLayers:       int(first(root, "total_layers", "totalLayers").Int()),
		CompositeTemplate: str(root, "composite_template", "compositeTemplate"),
		LayerTitle:        str(root, "layer_title", "layerTitle"),
		SkipToLayer:       int(first(root, "skip_to_layer", "skipToLayer").Int()),
		Layer:             int(root.Get("layer").Int()),
		ReadyForNext:      first(root, "ready_for_next", "readyForNext", "success").Bool(),
		NextAction:        LessonAction(str(root, "next_action", "nextAction")),
	}

	first(root, "composite_layers", "compositeLayers").ForEach(func(_, v gjson.Result) bool {
		r.CompositeLayers = append(r.CompositeLayers, int(v.Int()))
		return true
	})
	first(root, "options", "choices").ForEach(func(_, v gjson.Result) bool {
		r.Options = append(r.Options, option(v))
		return true
	})
	if sel := first(root, "selected_phrase", "selectedPhrase"); sel.Exists() {
		o := option(sel)
		if o.SkipToLayer == 0 {
			o.SkipToLayer = r.SkipToLayer
		}
		r.Selected = &o
	}

	r.NextLayer = r.Layer
	if nl := first(root, "next_layer", "nextLayer"); nl.Exists() {
		r.NextLayer = int(nl.Int())
	}

	if r.Type == "" {
		return LessonReply{}, errors.New("lesson: missing type")
	}
	if r.NextAction == "" {
		r.NextAction = defaultNext[r.Type]
		if r.Type == "feedback" {
			r.NextAction = LessonShowOptions
			if r.TotalLayers > 0 && r.NextLayer >= r.TotalLayers {
				r.NextAction = LessonConclusion
			}
		}
	}
	return r, nil
}

// NormalizeReport reads a report payload: a wrapped {"report": {...}}
// object, a bare report object, or free-form {"feedback": "..."} text.
func NormalizeReport(raw []byte) (Report, error) {
	root, err := parse("report", raw)
	if err != nil {
		return Report{}, err
	}

	body := root
	if r := root.Get("report"); r.IsObject() {
		body = r
	}
	rep := reportFrom(body)
	if rep.Structured() {
		return rep, nil
	}

	if fb := str(root, "feedback", "raw"); fb != "" {
		return Report{Feedback: fb}, nil
	}
	return Report{}, errors.New("report: no content")
}

func reportFrom(r gjson.Result) Report {
	rep := Report{
		Title:          str(r, "title", "titulo"),
		Emoji:          str(r, "emoji"),
		Tone:           str(r, "tone", "tom"),
		Praise:         strList(first(r, "praise", "elogios")),
		Tips:           strList(first(r, "tips", "dicas")),
		PracticePhrase: str(r, "practice_phrase", "practicePhrase", "frase_pratica"),
	}
	if fb := r.Get("feedback"); fb.Type == gjson.String {
		rep.Feedback = strings.TrimSpace(fb.String())
	}

	first(r, "corrections", "correcoes").ForEach(func(_, v gjson.Result) bool {
		c := Correction{
			Original:    str(v, "original", "fraseOriginal", "frase_original", "ruim"),
			Corrected:   str(v, "corrected", "fraseCorrigida", "frase_corrigida", "boa"),
			Assessment:  str(v, "assessment", "avaliacaoGeral"),
			Comment:     str(v, "comment", "comentarioBreve"),
			Tag:         str(v, "tag"),
			Explanation: str(v, "explanation", "explicacaoDetalhada", "explicacao"),
		}
		if c.Original != "" || c.Corrected != "" {
			rep.Corrections = append(rep.Corrections, c)
		}
		return true
	})

	first(r, "phrase_analysis", "phraseAnalysis", "analise_frases").ForEach(func(_, v gjson.Result) bool {
		p := PhraseAnalysis{
			Phrase:      str(v, "phrase", "frase_aluno"),
			Naturalness: min(max(int(first(v, "naturalness", "naturalidade").Int()), 0), 100),
			Level:       str(v, "level", "nivel"),
			Natural:     str(v, "natural", "frase_natural"),
			Explanation: str(v, "explanation", "explicacao"),
		}
		if p.Phrase != "" {
			rep.PhraseAnalysis = append(rep.PhraseAnalysis, p)
		}
		return true
	})
	return rep
}
