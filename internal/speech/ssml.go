package speech

import (
	"fmt"
	"regexp"
	"strings"
)

const switchPauseMs = 250

var enSpan = regexp.MustCompile(`(?s)\[EN\](.*?)\[/EN\]`)

var ssmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// BilingualSSML renders Portuguese text with [EN]...[/EN] spans as SSML that
// switches voice and language per segment. English is read slightly slower
// and a short pause separates language switches.
func BilingualSSML(text, voicePT, voiceEN string) string {
	text = CleanText(text)

	var parts []string
	addBreak := func() {
		if len(parts) > 0 && strings.HasPrefix(parts[len(parts)-1], "<break") {
			return
		}
		parts = append(parts, fmt.Sprintf(`<break time="%dms"/>`, switchPauseMs))
	}
	pt := func(s string) string {
		return fmt.Sprintf(`<voice name="%s"><lang xml:lang="pt-BR">%s</lang></voice>`, voicePT, ssmlEscaper.Replace(s))
	}
	en := func(s string) string {
		return fmt.Sprintf(`<voice name="%s"><lang xml:lang="en-US"><prosody rate="95%%">%s</prosody></lang></voice>`, voiceEN, ssmlEscaper.Replace(s))
	}

	last := 0
	hasContent := false
	for _, m := range enSpan.FindAllStringSubmatchIndex(text, -1) {
		if before := strings.TrimSpace(text[last:m[0]]); before != "" {
			if hasContent {
				addBreak()
			}
			parts = append(parts, pt(before))
			hasContent = true
		}
		if inner := strings.TrimSpace(text[m[2]:m[3]]); inner != "" {
			if hasContent {
				addBreak()
			}
			parts = append(parts, en(inner))
			addBreak()
			hasContent = true
		}
		last = m[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		if hasContent {
			addBreak()
		}
		parts = append(parts, pt(rest))
	}

	return "<speak>" + strings.Join(parts, "") + "</speak>"
}
