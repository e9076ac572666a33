// Package tutor generates the LLM-backed conversation turns: the dynamic
// free-conversation lines, scenario-chat replies and suggested answers.
package tutor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/abhisek/parley/internal/catalog"
	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/llm"
	"github.com/abhisek/parley/internal/logging"
)

// HistoryLines is how much of the conversation log scenario chat replays.
const HistoryLines = 6

// FallbackSuggestions are offered when suggestion generation fails.
var FallbackSuggestions = []collab.Suggestion{
	{EN: "That's interesting!", PT: "Que interessante!"},
	{EN: "I agree with you.", PT: "Concordo com você."},
	{EN: "Tell me more about that.", PT: "Me conte mais sobre isso."},
	{EN: "I think so too.", PT: "Eu também acho."},
}

// Tutor implements collab.FreeTalker and collab.ChatPartner on an LLM.
type Tutor struct {
	provider llm.Provider
	catalog  *catalog.Catalog
	logger   logging.Logger
}

// New creates a Tutor. cat supplies scenario prompts; logger may be nil.
func New(provider llm.Provider, cat *catalog.Catalog, logger logging.Logger) *Tutor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Tutor{provider: provider, catalog: cat, logger: logger}
}

var purposeByAction = map[collab.FreeAction]string{
	collab.ActionFollowup: llm.PurposeFollowup,
	collab.ActionOpinion:  llm.PurposeOpinion,
	collab.ActionAnswer:   llm.PurposeAnswer,
}

// FreeTalk generates a follow-up question, an opinion or an answer.
func (t *Tutor) FreeTalk(ctx context.Context, req collab.FreeRequest) (string, error) {
	task, err := freeTask(req)
	if err != nil {
		return "", err
	}
	ctx = llm.WithPurpose(ctx, purposeByAction[req.Action])

	resp, err := t.provider.Generate(ctx, llm.Request{
		System:      freeSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: task}},
		MaxTokens:   400,
		Temperature: 0.8,
	})
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", req.Action, err)
	}

	text := CleanOutput(resp.Text())
	if text == "" {
		return "", &llm.ErrInvalidResponse{Err: fmt.Errorf("empty %s", req.Action)}
	}
	return Shape(req.Action, text), nil
}

var codeFence = regexp.MustCompile("```(?:json)?")

// CleanOutput strips code fences, recovers {"text": ...} objects and trims
// surrounding quotes from model output.
func CleanOutput(raw string) string {
	s := strings.TrimSpace(codeFence.ReplaceAllString(raw, ""))
	if strings.HasPrefix(s, "{") {
		if text, err := collab.NormalizeFreeText([]byte(s)); err == nil {
			s = text
		}
	}
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// Shape applies the per-action output rules: a follow-up always ends in a
// question mark and an opinion always opens with "In my opinion,".
func Shape(action collab.FreeAction, text string) string {
	switch action {
	case collab.ActionFollowup:
		if !strings.HasSuffix(text, "?") {
			text = strings.TrimRight(text, ".") + "?"
		}
	case collab.ActionOpinion:
		if !strings.HasPrefix(strings.ToLower(text), "in my opinion") {
			text = "In my opinion, " + text
		}
	}
	return text
}

// Chat produces the scenario partner's reply.
func (t *Tutor) Chat(ctx context.Context, req collab.ChatRequest) (collab.ChatReply, error) {
	scenarioPrompt, role := "You are a friendly English conversation partner.", "conversation partner"
	if t.catalog != nil {
		if s, ok := t.catalog.Scenario(req.Scenario); ok {
			scenarioPrompt, role = s.Prompt, s.Role
		}
	}

	history := req.History
	if len(history) > HistoryLines {
		history = history[len(history)-HistoryLines:]
	}
	var msgs []llm.Message
	for _, l := range history {
		who := llm.RoleUser
		if l.Sender != "user" {
			who = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: who, Content: l.Text})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: req.Text})

	ctx = llm.WithPurpose(ctx, llm.PurposeChat)
	resp, err := t.provider.Generate(ctx, llm.Request{
		System:      chatSystemPrompt(scenarioPrompt, role, req.Language, req.Mode),
		Messages:    msgs,
		Schema:      ChatSchema,
		MaxTokens:   600,
		Temperature: 0.8,
	})
	if err != nil {
		return collab.ChatReply{}, fmt.Errorf("generate chat reply: %w", err)
	}

	reply, err := collab.NormalizeChat(resp.Content)
	if err != nil {
		return collab.ChatReply{}, err
	}
	reply.Text = tidyReply(reply.Text, req.Text, len(history) > 0 && req.Mode != "simulator")
	reply.Translation = tidyReply(reply.Translation, req.Text, false)
	if len(reply.SuggestedWords) > 4 {
		reply.SuggestedWords = reply.SuggestedWords[:4]
	}
	return reply, nil
}

var (
	markdownChars = strings.NewReplacer("*", "", "_", "", "~", "", "`", "")
	sentenceEnd   = regexp.MustCompile(`[.!?]\s+`)
	wordPattern   = regexp.MustCompile(`[\p{L}0-9']+`)
	lessonIntro   = regexp.MustCompile(`(?i)today you will learn[^.]*\.?\s*`)
)

// tidyReply removes markdown, drops the lesson intro after the first turn
// and keeps replies from running much longer than the learner's input.
func tidyReply(text, userText string, dropIntro bool) string {
	text = strings.Join(strings.Fields(markdownChars.Replace(text)), " ")
	if dropIntro {
		text = strings.TrimSpace(lessonIntro.ReplaceAllString(text, ""))
	}
	if strings.Contains(text, "[EN]") {
		return text
	}

	limit := max(20, 2*len(wordPattern.FindAllString(userText, -1)))
	if len(wordPattern.FindAllString(text, -1)) <= limit {
		return text
	}
	text = firstSentences(text, 2)
	if len(wordPattern.FindAllString(text, -1)) > limit && !strings.HasSuffix(text, "?") {
		words := strings.Fields(text)
		if len(words) > limit {
			text = strings.Join(words[:limit], " ") + "..."
		}
	}
	return text
}

func firstSentences(text string, n int) string {
	ends := sentenceEnd.FindAllStringIndex(text, n)
	if len(ends) < n {
		return text
	}
	return strings.TrimSpace(text[:ends[n-1][0]+1])
}

// Suggest proposes short replies to aiMessage. Failures fall back to a
// generic list and are only logged.
func (t *Tutor) Suggest(ctx context.Context, aiMessage, scenario, lang string) ([]collab.Suggestion, error) {
	if strings.TrimSpace(aiMessage) == "" {
		return nil, fmt.Errorf("no message to answer")
	}
	topic := strings.ReplaceAll(scenario, "-", " ")
	if t.catalog != nil {
		if s, ok := t.catalog.Scenario(scenario); ok {
			topic = s.Title
		}
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeSuggestions)
	resp, err := t.provider.Generate(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: suggestionsPrompt(topic, aiMessage)}},
		Schema:      SuggestionsSchema,
		MaxTokens:   400,
		Temperature: 0.7,
	})
	if err == nil {
		var out []collab.Suggestion
		out, err = collab.NormalizeSuggestions(resp.Content)
		if err == nil {
			return out, nil
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	t.logger.Warn("suggestions fell back to defaults", "error", err, "lang", lang)
	return FallbackSuggestions, nil
}
