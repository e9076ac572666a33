package report

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/router"
	"github.com/abhisek/parley/internal/screen"
	"github.com/abhisek/parley/internal/ui/components"
	"github.com/abhisek/parley/internal/ui/layout"
	"github.com/abhisek/parley/internal/ui/theme"
)

// ReportScreen displays an end-of-session report.
type ReportScreen struct {
	report   collab.Report
	subtitle string
	offset   int
}

var _ screen.Screen = (*ReportScreen)(nil)
var _ screen.KeyHintProvider = (*ReportScreen)(nil)

// New creates a new ReportScreen. subtitle is shown under the title, e.g.
// the scenario and date.
func New(r collab.Report, subtitle string) *ReportScreen {
	return &ReportScreen{report: r, subtitle: subtitle}
}

func (s *ReportScreen) Init() tea.Cmd {
	return nil
}

func (s *ReportScreen) Title() string {
	return "Report"
}

func (s *ReportScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Enter", Description: "Done"},
		{Key: "H", Description: "Home"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ReportScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "h":
			return s, func() tea.Msg { return router.PopToRootMsg{} }
		case "up", "k":
			if s.offset > 0 {
				s.offset--
			}
		case "down", "j":
			s.offset++
		case "home":
			s.offset = 0
		}
	}
	return s, nil
}

func (s *ReportScreen) View(width, height int) string {
	lines := strings.Split(s.render(width), "\n")

	maxOffset := len(lines) - height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if s.offset > maxOffset {
		s.offset = maxOffset
	}
	end := s.offset + height
	if end > len(lines) || height <= 0 {
		end = len(lines)
	}
	return strings.Join(lines[s.offset:end], "\n")
}

func (s *ReportScreen) render(width int) string {
	r := s.report
	inner := min(width-8, 90)
	if inner < 20 {
		inner = 20
	}
	para := lipgloss.NewStyle().Width(inner).Foreground(theme.Text)
	dim := lipgloss.NewStyle().Width(inner).Foreground(theme.TextDim)

	var b strings.Builder
	b.WriteString("\n")

	title := r.Title
	if title == "" {
		title = "Your feedback"
	}
	if r.Emoji != "" {
		title = r.Emoji + " " + title
	}
	b.WriteString(theme.Title.Width(inner).Render(title))
	b.WriteString("\n")
	if s.subtitle != "" {
		b.WriteString(theme.Subtitle.Width(inner).Render(s.subtitle))
		b.WriteString("\n")
	}

	if !r.Structured() {
		b.WriteString("\n")
		b.WriteString(para.Render(strings.TrimSpace(r.Feedback)))
		b.WriteString("\n")
		return indent(b.String(), width, inner)
	}

	if len(r.Praise) > 0 {
		b.WriteString(section("What went well", inner))
		for _, p := range r.Praise {
			b.WriteString(lipgloss.NewStyle().Width(inner).Foreground(theme.Success).Render("+ " + p))
			b.WriteString("\n")
		}
	}

	if len(r.Corrections) > 0 {
		b.WriteString(section("Corrections", inner))
		for _, c := range r.Corrections {
			line := theme.Incorrect.Render(c.Original) + "  →  " + theme.Correct.Render(c.Corrected)
			if c.Tag != "" {
				line += "  " + lipgloss.NewStyle().Foreground(theme.Accent).Render("["+c.Tag+"]")
			}
			b.WriteString(line + "\n")
			if c.Comment != "" {
				b.WriteString(dim.Render("  " + c.Comment))
				b.WriteString("\n")
			}
			if c.Explanation != "" {
				b.WriteString(dim.Render("  " + c.Explanation))
				b.WriteString("\n")
			}
		}
	}

	if len(r.PhraseAnalysis) > 0 {
		b.WriteString(section("Phrase by phrase", inner))
		for _, p := range r.PhraseAnalysis {
			bar := components.NewProgressBar("", components.Fraction(p.Naturalness, 100), true, 24)
			bar.Graded = true
			b.WriteString(bar.View() + "  " + para.UnsetWidth().Render(p.Phrase))
			b.WriteString("\n")
			if p.Natural != "" && p.Natural != p.Phrase {
				b.WriteString(dim.Render("  natural: " + p.Natural))
				b.WriteString("\n")
			}
			if p.Explanation != "" {
				b.WriteString(dim.Render("  " + p.Explanation))
				b.WriteString("\n")
			}
		}
	}

	if len(r.Tips) > 0 {
		b.WriteString(section("Tips", inner))
		for _, tip := range r.Tips {
			b.WriteString(para.Render("- " + tip))
			b.WriteString("\n")
		}
	}

	if r.PracticePhrase != "" {
		b.WriteString(section("Practice next", inner))
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Highlight).Bold(true).Render(r.PracticePhrase))
		b.WriteString("\n")
	}
	if r.Feedback != "" {
		b.WriteString("\n")
		b.WriteString(para.Render(r.Feedback))
		b.WriteString("\n")
	}

	return indent(b.String(), width, inner)
}

func section(name string, inner int) string {
	return fmt.Sprintf("\n%s\n%s\n",
		lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(name),
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", inner)))
}

// indent centers a block of the given inner width.
func indent(block string, width, inner int) string {
	pad := (width - inner) / 2
	if pad <= 0 {
		return block
	}
	prefix := strings.Repeat(" ", pad)
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
