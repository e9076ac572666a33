package speech

import (
	"regexp"
	"strings"
)

var (
	emoji = regexp.MustCompile("[" +
		"\U0001F600-\U0001F64F" + // emoticons
		"\U0001F300-\U0001F5FF" + // symbols & pictographs
		"\U0001F680-\U0001F6FF" + // transport & map
		"\U0001F1E0-\U0001F1FF" + // flags
		"\U00002702-\U000027B0" +
		"\U000024C2-\U0001F251" +
		"]+")

	markdown = strings.NewReplacer("*", "", "_", "", "~", "", "`", "")

	langTag = regexp.MustCompile(`\[/?[A-Za-z][A-Za-z0-9-]{0,9}\]`)
)

// CleanText removes emoji and markdown symbols and collapses whitespace so
// the synthesizer reads only words. Language tags are kept.
func CleanText(text string) string {
	text = emoji.ReplaceAllString(text, "")
	text = markdown.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// StripTags removes inline language tags such as [EN] and [/EN].
func StripTags(text string) string {
	return strings.Join(strings.Fields(langTag.ReplaceAllString(text, " ")), " ")
}

// HasBilingualTags reports whether text carries an [EN]...[/EN] span.
func HasBilingualTags(text string) bool {
	return strings.Contains(text, "[EN]") && strings.Contains(text, "[/EN]")
}
