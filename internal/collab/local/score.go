package local

import (
	"strings"

	"github.com/agext/levenshtein"
)

// Outcome grades one practice attempt.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeRetry    Outcome = "retry"
	OutcomeRedirect Outcome = "redirect"
)

// Verdict is the result of Score.
type Verdict struct {
	Outcome    Outcome
	Overlap    float64
	Similarity float64
}

var stopWords = map[string]bool{
	"i": true, "a": true, "the": true, "an": true, "my": true, "me": true,
	"to": true, "for": true, "and": true, "or": true, "in": true, "on": true, "of": true,
}

var evalReplacer = strings.NewReplacer(
	"’", "'", "‘", "'",
	"“", `"`, "”", `"`,
)

var punctReplacer = strings.NewReplacer(
	",", "", ".", "", "?", "", "!", "", `"`, "", "'", " ",
)

// normalizeAttempt lowercases, folds smart quotes, strips punctuation and
// collapses whitespace. Apostrophes split words ("i'd" becomes "i d").
func normalizeAttempt(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = evalReplacer.Replace(s)
	s = punctReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func contentWords(s string) map[string]bool {
	words := map[string]bool{}
	for _, w := range strings.Fields(s) {
		if !stopWords[w] {
			words[w] = true
		}
	}
	return words
}

// Score compares a learner utterance with the target phrase. It is a
// keyword check tolerant of transcription typos: substring containment,
// content-word overlap or character similarity each count as success.
func Score(userText, target string) Verdict {
	user := normalizeAttempt(userText)
	want := normalizeAttempt(target)

	targetWords := contentWords(want)
	userWords := contentWords(user)

	var v Verdict
	if len(targetWords) > 0 {
		hit := 0
		for w := range targetWords {
			if userWords[w] {
				hit++
			}
		}
		v.Overlap = float64(hit) / float64(len(targetWords))
	}

	contains := user != "" && want != "" &&
		(strings.Contains(user, want) || strings.Contains(want, user))
	if user != "" && want != "" {
		v.Similarity = levenshtein.Similarity(user, want, nil)
	}

	minOverlap := 0.4
	if len(targetWords) <= 2 {
		minOverlap = 0.3
	}

	switch {
	case contains || v.Overlap >= minOverlap || v.Similarity >= 0.6:
		v.Outcome = OutcomeSuccess
	case v.Overlap > 0 || v.Similarity >= 0.3 || len(userWords) >= 2:
		v.Outcome = OutcomeRetry
	default:
		v.Outcome = OutcomeRedirect
	}
	return v
}
