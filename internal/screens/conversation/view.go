package conversation

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/parley/internal/convlog"
	"github.com/abhisek/parley/internal/session"
	"github.com/abhisek/parley/internal/ui/components"
	"github.com/abhisek/parley/internal/ui/theme"
)

func (s *ConversationScreen) View(width, height int) string {
	if s.confirmQuit {
		return renderQuitConfirm(width, height)
	}

	inner := width - 4
	if inner < 20 {
		inner = 20
	}

	top := s.renderInfo(inner)
	bottom := s.renderPanel(inner)

	room := height - lipgloss.Height(top) - lipgloss.Height(bottom) - 1
	transcript := s.renderTranscript(inner, room)

	var b strings.Builder
	b.WriteString(top)
	b.WriteString("\n")
	b.WriteString(transcript)
	b.WriteString("\n")
	b.WriteString(bottom)

	return lipgloss.NewStyle().PaddingLeft(2).Render(b.String())
}

// renderInfo renders the title line, lesson progress and a divider.
func (s *ConversationScreen) renderInfo(inner int) string {
	var b strings.Builder

	left := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(s.title)
	right := s.indicators()
	line := left
	if pad := inner - lipgloss.Width(left) - lipgloss.Width(right); pad > 0 {
		line += strings.Repeat(" ", pad) + right
	}
	b.WriteString(line)
	b.WriteString("\n")

	if s.mode == session.ModeLesson && s.steps > 0 {
		label := fmt.Sprintf("Step %d/%d", min(s.step+1, s.steps), s.steps)
		if s.finished {
			label = "Complete"
		}
		bar := components.NewProgressBar(label, components.Fraction(s.step, s.steps), false, min(inner, 50))
		b.WriteString(bar.View())
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", inner)))
	return b.String()
}

func (s *ConversationScreen) indicators() string {
	var parts []string
	if s.recording {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Recording).Bold(true).Render("● REC"))
	}
	if s.speaking {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Accent).Render("♪ speaking"))
	}
	if s.busy {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.TextDim).Render("… thinking"))
	}
	if !s.translations {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.TextDim).Render("PT off"))
	}
	return strings.Join(parts, "  ")
}

// renderTranscript renders the newest entries that fit in rows lines.
func (s *ConversationScreen) renderTranscript(inner, rows int) string {
	if rows <= 0 {
		return ""
	}
	if len(s.entries) == 0 {
		msg := "Connecting to your conversation partner..."
		if s.started {
			msg = "Say hello to get started."
		}
		return lipgloss.NewStyle().Height(rows).Foreground(theme.TextDim).Italic(true).Render(msg)
	}

	textWidth := inner - 10
	var lines []string
	for _, e := range s.entries {
		lines = append(lines, strings.Split(s.renderEntry(e, textWidth), "\n")...)
		lines = append(lines, "")
	}
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	return lipgloss.NewStyle().Height(rows).Render(strings.Join(lines, "\n"))
}

func (s *ConversationScreen) renderEntry(e convlog.Entry, textWidth int) string {
	var label string
	text := lipgloss.NewStyle().Width(textWidth).Foreground(theme.Text)
	switch e.Sender {
	case convlog.SenderUser:
		label = lipgloss.NewStyle().Foreground(theme.Learner).Bold(true).Render("You     ")
	case convlog.SenderAI:
		label = lipgloss.NewStyle().Foreground(theme.Partner).Bold(true).Render("Partner ")
	default:
		label = "        "
		text = text.Foreground(theme.TextDim).Italic(true)
	}

	body := text.Render(e.Text)
	if s.translations && e.Translation != "" {
		body += "\n" + theme.Translation.Width(textWidth).Render(e.Translation)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, label, body)
}

// renderPanel renders whatever the learner can act on, then the status line
// and the input.
func (s *ConversationScreen) renderPanel(inner int) string {
	var b strings.Builder

	switch {
	case s.picker != "":
		card := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Info).
			Width(min(inner, 70)).
			Padding(0, 1).
			Render(lipgloss.NewStyle().Foreground(theme.TextDim).Render("Next topic") + "\n" +
				lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(s.picker) + "\n" +
				theme.Hint.Render("Enter: let's talk about this   Ctrl+N: another question"))
		b.WriteString(card)
		b.WriteString("\n")
	case s.welcome:
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Highlight).Bold(true).Render("Press Enter to begin the lesson."))
		b.WriteString("\n")
	case s.hasOptions:
		b.WriteString(s.options.View())
	}

	if len(s.suggestions) > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("You could say:"))
		b.WriteString("\n")
		for _, sg := range s.suggestions {
			line := "  • " + sg.EN
			if s.translations && sg.PT != "" {
				line += theme.Translation.Render("  (" + sg.PT + ")")
			}
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(line))
			b.WriteString("\n")
		}
	}
	if len(s.words) > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("Useful words: "))
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Info).Render(strings.Join(s.words, ", ")))
		b.WriteString("\n")
	}

	if s.status != "" {
		b.WriteString(statusStyle(s.failure).Render(s.status))
		b.WriteString("\n")
	}

	s.input.SetWidth(inner - 4)
	b.WriteString(s.input.View())
	return b.String()
}

func statusStyle(f *session.Failure) lipgloss.Style {
	style := lipgloss.NewStyle().Foreground(theme.Accent)
	if f == nil {
		return style.Foreground(theme.Secondary)
	}
	switch f.Kind {
	case session.FailTransient:
		return style.Foreground(theme.Error)
	case session.FailNoAudio, session.FailBusy:
		return style.Foreground(theme.TextDim)
	}
	return style
}

func renderQuitConfirm(width, height int) string {
	content := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render("End this conversation?") +
		"\n\n" + theme.Hint.Render("Your transcript is saved. You can get a report later from History.") +
		"\n\n" + components.ButtonRow(
			components.KeyButton{Key: "Y", Label: "End session", Primary: true},
			components.KeyButton{Key: "N", Label: "Keep going"},
		)
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
