package report

import (
	"fmt"
	"strings"

	"github.com/abhisek/parley/internal/collab"
)

// Text renders a report as plain text for the terminal.
func Text(r collab.Report) string {
	if !r.Structured() {
		return strings.TrimSpace(r.Feedback) + "\n"
	}

	var b strings.Builder
	title := r.Title
	if r.Emoji != "" {
		title = r.Emoji + " " + title
	}
	b.WriteString(title + "\n")

	if len(r.Praise) > 0 {
		b.WriteString("\nWhat went well\n")
		for _, p := range r.Praise {
			fmt.Fprintf(&b, "  + %s\n", p)
		}
	}

	if len(r.Corrections) > 0 {
		b.WriteString("\nCorrections\n")
		for _, c := range r.Corrections {
			fmt.Fprintf(&b, "  %q -> %q", c.Original, c.Corrected)
			if c.Tag != "" {
				fmt.Fprintf(&b, " [%s]", c.Tag)
			}
			b.WriteString("\n")
			if c.Comment != "" {
				fmt.Fprintf(&b, "    %s\n", c.Comment)
			}
			if c.Explanation != "" {
				fmt.Fprintf(&b, "    %s\n", c.Explanation)
			}
		}
	}

	if len(r.PhraseAnalysis) > 0 {
		b.WriteString("\nPhrase by phrase\n")
		for _, p := range r.PhraseAnalysis {
			fmt.Fprintf(&b, "  %3d%% %s %s\n", p.Naturalness, Meter(p.Naturalness, 10), p.Phrase)
			if p.Natural != "" && p.Natural != p.Phrase {
				fmt.Fprintf(&b, "       natural: %s\n", p.Natural)
			}
			if p.Explanation != "" {
				fmt.Fprintf(&b, "       %s\n", p.Explanation)
			}
		}
	}

	if len(r.Tips) > 0 {
		b.WriteString("\nTips\n")
		for _, tip := range r.Tips {
			fmt.Fprintf(&b, "  - %s\n", tip)
		}
	}

	if r.PracticePhrase != "" {
		fmt.Fprintf(&b, "\nPractice next: %s\n", r.PracticePhrase)
	}
	if r.Feedback != "" {
		fmt.Fprintf(&b, "\n%s\n", r.Feedback)
	}
	return b.String()
}

// Meter draws a fixed-width bar for a 0-100 score.
func Meter(score, width int) string {
	score = min(max(score, 0), 100)
	filled := (score*width + 50) / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Headline is the short title shown in lists.
func Headline(r collab.Report) string {
	if r.Title != "" {
		return r.Title
	}
	line, _, _ := strings.Cut(strings.TrimSpace(r.Feedback), "\n")
	if len([]rune(line)) > 60 {
		line = string([]rune(line)[:57]) + "..."
	}
	return line
}
