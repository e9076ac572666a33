// Package textchunk splits response text into pieces that fit the length
// limit of a text-to-speech backend.
//
// Sentence boundaries are the preferred split points. Inline language spans
// such as "[EN]How are you?[/EN]" are kept whole so the synthesizer can switch
// voices correctly; only a span that is itself longer than the limit is cut,
// at word boundaries, with every piece re-wrapped in the same tag.
package textchunk

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultLimit is the per-request character limit of the speech backends.
const DefaultLimit = 500

var openTag = regexp.MustCompile(`\[([A-Za-z][A-Za-z0-9-]{0,9})\]`)

// unit is an indivisible piece of text: a sentence or a tagged span.
type unit struct {
	text   string
	tag    string // non-empty for tagged spans; text then excludes the markers
	spaced bool   // preceded by whitespace in the source
}

func (u unit) String() string {
	if u.tag == "" {
		return u.text
	}
	return wrap(u.tag, u.text)
}

// Split returns text cut into chunks of at most limit runes. Text that
// already fits is returned unchanged as a single chunk; empty text yields
// no chunks. A limit <= 0 selects DefaultLimit.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if text == "" {
		return nil
	}
	if runeLen(text) <= limit {
		return []string{text}
	}

	var (
		chunks  []string
		current strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}
	add := func(s string, spaced bool) {
		sep := ""
		if spaced && current.Len() > 0 {
			sep = " "
		}
		if runeLen(current.String())+runeLen(sep)+runeLen(s) <= limit {
			current.WriteString(sep)
			current.WriteString(s)
			return
		}
		flush()
		current.WriteString(s)
	}

	for _, u := range parse(text) {
		s := u.String()
		if runeLen(s) <= limit {
			add(s, u.spaced)
			continue
		}
		pieces := splitOversized(u, limit)
		for i, p := range pieces {
			add(p, u.spaced || i > 0)
		}
	}
	flush()
	return chunks
}

// splitOversized cuts a unit longer than limit into pieces that each fit.
func splitOversized(u unit, limit int) []string {
	if u.tag == "" {
		return splitWords(u.text, limit)
	}
	inner := limit - runeLen(wrap(u.tag, ""))
	if inner < 1 {
		// The markers alone do not fit; speak the content untagged.
		return splitWords(u.text, limit)
	}
	pieces := splitWords(u.text, inner)
	for i, p := range pieces {
		pieces[i] = wrap(u.tag, p)
	}
	return pieces
}

// splitWords packs whitespace-separated words greedily into pieces of at
// most limit runes. Words longer than limit are hard-split.
func splitWords(s string, limit int) []string {
	var (
		pieces  []string
		current string
	)
	for _, w := range strings.Fields(s) {
		for runeLen(w) > limit {
			if current != "" {
				pieces = append(pieces, current)
				current = ""
			}
			head, tail := splitAt(w, limit)
			pieces = append(pieces, head)
			w = tail
		}
		if w == "" {
			continue
		}
		switch {
		case current == "":
			current = w
		case runeLen(current)+1+runeLen(w) <= limit:
			current += " " + w
		default:
			pieces = append(pieces, current)
			current = w
		}
	}
	if current != "" {
		pieces = append(pieces, current)
	}
	return pieces
}

// parse breaks text into sentences and tagged spans in source order.
func parse(text string) []unit {
	var units []unit
	rest := text
	for rest != "" {
		loc := openTag.FindStringSubmatchIndex(rest)
		if loc == nil {
			units = appendSentences(units, rest)
			break
		}
		tag := rest[loc[2]:loc[3]]
		closing := "[/" + tag + "]"
		end := strings.Index(rest[loc[1]:], closing)
		if end < 0 {
			// Unbalanced marker: plain text up to and including it.
			units = appendSentences(units, rest[:loc[1]])
			rest = rest[loc[1]:]
			continue
		}

		units = appendSentences(units, rest[:loc[0]])
		spaced := endsWithSpace(rest[:loc[0]])
		units = append(units, unit{
			text:   strings.TrimSpace(rest[loc[1] : loc[1]+end]),
			tag:    tag,
			spaced: spaced,
		})
		rest = rest[loc[1]+end+len(closing):]
		if rest != "" && startsWithSpace(rest) {
			// Carried by the next unit's spaced flag.
			rest = " " + strings.TrimLeftFunc(rest, unicode.IsSpace)
		}
	}
	return units
}

// appendSentences splits plain text after terminal punctuation followed by
// whitespace and appends the sentences to units.
func appendSentences(units []unit, s string) []unit {
	if strings.TrimSpace(s) == "" {
		return units
	}

	spaced := startsWithSpace(s)
	start := 0
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		j := i + 1
		for j < len(runes) && isClosing(runes[j]) {
			j++
		}
		if j < len(runes) && unicode.IsSpace(runes[j]) {
			units = appendUnit(units, string(runes[start:j]), spaced)
			spaced = true
			start = j
			i = j
		}
	}
	return appendUnit(units, string(runes[start:]), spaced)
}

func appendUnit(units []unit, s string, spaced bool) []unit {
	s = strings.TrimSpace(s)
	if s == "" {
		return units
	}
	return append(units, unit{text: s, spaced: spaced})
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

func isClosing(r rune) bool {
	return isTerminal(r) || r == '"' || r == '\'' || r == ')' || r == '”' || r == '’'
}

func wrap(tag, s string) string {
	return "[" + tag + "]" + s + "[/" + tag + "]"
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// splitAt returns the first n runes of s and the remainder.
func splitAt(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}
