package freeconv

import "strings"

// negativePhrases close the "any questions?" turn. Matching is
// case-insensitive, exact or prefix, so "no, but thanks" is negative and
// so is "nope, I do have one". Downstream dialogue relies on this.
var negativePhrases = []string{
	"no", "nope", "nah", "not really", "no thanks", "no thank you",
	"i don't", "i dont", "i do not", "nothing", "none", "that's all", "thats all",
	"não", "nao", "não tenho", "nao tenho", "nada", "não obrigado", "nao obrigado",
	"não, obrigado", "nenhuma", "acho que não", "acho que nao",
}

// affirmativePhrases announce a question without asking it yet.
var affirmativePhrases = []string{
	"yes", "yeah", "yep", "sure", "i do", "yes i do", "yes, i do", "i have one",
	"i have a question", "sim", "tenho", "sim, tenho", "tenho sim", "claro",
}

func normalizeReply(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.ReplaceAll(t, "’", "'")
	return strings.TrimRight(t, ".!?, ")
}

// IsNegativeResponse reports whether text declines to ask another question.
func IsNegativeResponse(text string) bool {
	t := normalizeReply(text)
	if t == "" {
		return false
	}
	for _, p := range negativePhrases {
		if t == p || strings.HasPrefix(t, p+" ") || strings.HasPrefix(t, p+",") {
			return true
		}
	}
	return false
}

func isAffirmativeOnly(text string) bool {
	t := normalizeReply(text)
	for _, p := range affirmativePhrases {
		if t == p {
			return true
		}
	}
	return false
}
