package lesson

import (
	"regexp"
	"strings"
)

var (
	slotPattern    = regexp.MustCompile(`\{(\w+)\}`)
	articleBefore  = regexp.MustCompile(`\b([Aa]) (espresso|americano|iced|ice|extra|orange|apple|egg|oat|almond|omelette|hour|english|early|upgrade|aisle)\b`)
	commaBeforeEnd = regexp.MustCompile(`\s*,\s*([.!?])`)
	doubleComma    = regexp.MustCompile(`,\s*,`)
	spaceBefore    = regexp.MustCompile(`\s+([,.!?])`)
	spaces         = regexp.MustCompile(`\s+`)
)

// Compose fills {slot} tokens in template from slots. Unfilled tokens are
// removed, "a" becomes "an" before the vowel-sound words the lessons use,
// and stray commas and spaces around punctuation are cleaned up. The
// result never contains braces from the template.
func Compose(template string, slots map[string]string) string {
	out := slotPattern.ReplaceAllStringFunc(template, func(tok string) string {
		name := tok[1 : len(tok)-1]
		return strings.TrimSpace(slots[name])
	})
	out = articleBefore.ReplaceAllString(out, "${1}n $2")
	out = commaBeforeEnd.ReplaceAllString(out, "$1")
	out = doubleComma.ReplaceAllString(out, ",")
	out = spaceBefore.ReplaceAllString(out, "$1")
	out = spaces.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
