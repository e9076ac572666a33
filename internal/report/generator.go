// Package report produces, stores and renders end-of-session feedback.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/parley/internal/catalog"
	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/llm"
	"github.com/abhisek/parley/internal/logging"
)

// ErrEmptyConversation is returned when the learner said nothing.
var ErrEmptyConversation = errors.New("no learner turns to report on")

// Generator implements collab.Reporter on an LLM.
type Generator struct {
	provider llm.Provider
	catalog  *catalog.Catalog
	logger   logging.Logger
}

// NewGenerator creates a report generator. cat and logger may be nil.
func NewGenerator(provider llm.Provider, cat *catalog.Catalog, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Generator{provider: provider, catalog: cat, logger: logger}
}

const systemPrompt = `You are a VERY ENCOURAGING English teacher reviewing a Brazilian learner's practice conversation.

Priorities:
1. First find 3-4 specific positive points.
2. Then assess EVERY learner sentence in phrase_analysis, not only the wrong ones.
   naturalness: 90-100 perfect, 60-89 good, 40-59 understandable but unnatural, 0-39 serious error.
3. At most 4 corrections, the most important ones.
4. Constructive tips, never harsh.

Write all explanations, praise and tips in simple Brazilian Portuguese without grammar jargon.
Keep learner phrases and corrected phrases in English.`

const structuresFocus = `
This was a structured lesson. Focus on which polite structures the learner already
masters, which need more practice, and alternative ways to say the same thing.`

// Transcript formats lines as "Sender: text", skipping empty lines.
func Transcript(lines []collab.Line) string {
	var b strings.Builder
	for _, l := range lines {
		text := strings.TrimSpace(l.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", l.Sender, text)
	}
	return b.String()
}

func hasLearnerTurn(lines []collab.Line) bool {
	for _, l := range lines {
		if l.Sender == "user" && strings.TrimSpace(l.Text) != "" {
			return true
		}
	}
	return false
}

// Report generates feedback for the conversation. Output that fails the
// schema is kept as free-form feedback rather than discarded.
func (g *Generator) Report(ctx context.Context, req collab.ReportRequest) (collab.Report, error) {
	if !hasLearnerTurn(req.Lines) {
		return collab.Report{}, ErrEmptyConversation
	}

	system := systemPrompt
	if req.Mode == "lesson" {
		system += structuresFocus
	}
	scenario := req.Scenario
	if g.catalog != nil {
		if s, ok := g.catalog.Scenario(req.Scenario); ok {
			scenario = s.Title + ": " + s.Description
		}
	}

	var user strings.Builder
	if scenario != "" {
		fmt.Fprintf(&user, "Conversation context: %s\n\n", scenario)
	}
	user.WriteString("Full transcript (chronological):\n")
	user.WriteString(Transcript(req.Lines))

	ctx = llm.WithPurpose(ctx, llm.PurposeReport)
	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: user.String()}},
		Schema:      Schema,
		MaxTokens:   4000,
		Temperature: 0.4,
	})
	if err != nil {
		if raw, ok := llm.InvalidContent(err); ok {
			g.logger.Warn("report output failed validation, keeping free-form text", "error", err)
			return freeForm(raw), nil
		}
		return collab.Report{}, fmt.Errorf("generate report: %w", err)
	}

	rep, err := collab.NormalizeReport(resp.Content)
	if err != nil {
		g.logger.Warn("report output unreadable, keeping free-form text", "error", err)
		return freeForm(resp.Content), nil
	}
	return rep, nil
}

// freeForm salvages whatever the model produced: a readable report if the
// text still parses, the raw text otherwise.
func freeForm(raw []byte) collab.Report {
	text := strings.TrimSpace(strings.NewReplacer("```json", "", "```", "").Replace(string(raw)))
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		if rep, err := collab.NormalizeReport([]byte(text[start : end+1])); err == nil {
			return rep
		}
	}
	return collab.Report{Feedback: text}
}
