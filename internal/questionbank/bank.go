// Package questionbank holds the shuffled pool of free-conversation
// questions. Questions are drawn without repetition until the pool is
// exhausted, then the whole pool is reshuffled.
package questionbank

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var defaultQuestions []byte

// State is the persisted form of a Bank. Preview, when set, is one of
// Remaining.
type State struct {
	Remaining []string `json:"remaining"`
	Used      []string `json:"used"`
	Preview   string   `json:"preview,omitempty"`
}

// Bank is a question pool with remaining/used partitions and a pending
// preview. It is not safe for concurrent use.
type Bank struct {
	pool      []string
	remaining []string
	used      []string
	preview   string
	rng       *rand.Rand
}

// New creates a bank over questions. Blank and duplicate questions are
// dropped. A nil rng uses a randomly seeded PCG source.
func New(questions []string, rng *rand.Rand) (*Bank, error) {
	pool := dedupe(questions)
	if len(pool) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	b := &Bank{pool: pool, rng: rng}
	b.reshuffle()
	return b, nil
}

// Default creates a bank over the built-in questions.
func Default(rng *rand.Rand) (*Bank, error) {
	qs, err := parse(defaultQuestions)
	if err != nil {
		return nil, err
	}
	return New(qs, rng)
}

// LoadFile reads questions from a YAML file with a top-level
// "questions" list.
func LoadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return parse(data)
}

// DefaultQuestions returns the built-in question list.
func DefaultQuestions() ([]string, error) {
	return parse(defaultQuestions)
}

func parse(data []byte) ([]string, error) {
	var doc struct {
		Questions []string `yaml:"questions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	return dedupe(doc.Questions), nil
}

func dedupe(questions []string) []string {
	seen := make(map[string]bool, len(questions))
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}

// reshuffle refills remaining with a uniform permutation of the pool and
// starts a new cycle.
func (b *Bank) reshuffle() {
	b.remaining = slices.Clone(b.pool)
	b.rng.Shuffle(len(b.remaining), func(i, j int) {
		b.remaining[i], b.remaining[j] = b.remaining[j], b.remaining[i]
	})
	b.used = nil
	b.preview = ""
}

// Preview returns the current preview, choosing one if none is pending.
// Repeated calls return the same question.
func (b *Bank) Preview() string {
	if b.preview != "" {
		return b.preview
	}
	if len(b.remaining) == 0 {
		b.reshuffle()
	}
	b.preview = b.remaining[0]
	return b.preview
}

// Refresh replaces the preview with a different remaining question chosen
// uniformly at random. With a single candidate the preview is unchanged.
func (b *Bank) Refresh() string {
	current := b.Preview()
	if len(b.remaining) < 2 {
		return current
	}
	candidates := make([]string, 0, len(b.remaining)-1)
	for _, q := range b.remaining {
		if q != current {
			candidates = append(candidates, q)
		}
	}
	b.preview = candidates[b.rng.IntN(len(candidates))]
	return b.preview
}

// Confirm moves the preview from remaining to used and returns it. When
// that empties remaining the pool is reshuffled.
func (b *Bank) Confirm() string {
	q := b.Preview()
	if i := slices.Index(b.remaining, q); i >= 0 {
		b.remaining = slices.Delete(b.remaining, i, i+1)
	}
	b.used = append(b.used, q)
	b.preview = ""
	if len(b.remaining) == 0 {
		b.reshuffle()
	}
	return q
}

// Len returns the pool size.
func (b *Bank) Len() int { return len(b.pool) }

// State returns a copy of the bank's state for persistence.
func (b *Bank) State() State {
	return State{
		Remaining: slices.Clone(b.remaining),
		Used:      slices.Clone(b.used),
		Preview:   b.preview,
	}
}

// Restore loads a persisted state. Questions no longer in the pool are
// dropped and new pool questions join remaining, so a state saved against
// an older question list still upholds the partition.
func (b *Bank) Restore(s State) {
	inPool := make(map[string]bool, len(b.pool))
	for _, q := range b.pool {
		inPool[q] = true
	}
	placed := make(map[string]bool, len(b.pool))
	keep := func(list []string) []string {
		var out []string
		for _, q := range list {
			if inPool[q] && !placed[q] {
				placed[q] = true
				out = append(out, q)
			}
		}
		return out
	}

	used := keep(s.Used)
	remaining := keep(s.Remaining)
	for _, q := range b.pool {
		if !placed[q] {
			remaining = append(remaining, q)
		}
	}

	b.used = used
	b.remaining = remaining
	b.preview = ""
	if slices.Contains(remaining, s.Preview) {
		b.preview = s.Preview
	}
	if len(b.remaining) == 0 {
		b.reshuffle()
	}
}
