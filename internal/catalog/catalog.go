// Package catalog holds the structured lessons and chat scenarios shipped
// with parley. Content is YAML embedded in the binary.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

//go:embed data
var content embed.FS

// Text is a phrase in English with its Portuguese translation.
type Text struct {
	EN string `yaml:"en" json:"en"`
	PT string `yaml:"pt" json:"pt"`
}

// Option is one choosable phrase of a layer.
type Option struct {
	EN string `yaml:"en" json:"en"`
	PT string `yaml:"pt" json:"pt"`

	// SkipToLayer is a 1-based layer id to jump to once this option is
	// practiced successfully. Zero means the next layer.
	SkipToLayer int `yaml:"skip_to_layer,omitempty" json:"skip_to_layer,omitempty"`

	// Slots are the composite-phrase values this option contributes.
	Slots map[string]string `yaml:"slots,omitempty" json:"slots,omitempty"`
}

// Feedback holds the canned replies for a practice attempt.
type Feedback struct {
	Success  Text `yaml:"success"`
	Retry    Text `yaml:"retry"`
	Redirect Text `yaml:"redirect"`
}

// Layer is one step of a lesson.
type Layer struct {
	ID             int      `yaml:"id"`
	Title          string   `yaml:"title"`
	Instruction    Text     `yaml:"instruction"`
	PracticePrompt Text     `yaml:"practice_prompt"`
	Options        []Option `yaml:"options"`
	Feedback       Feedback `yaml:"feedback"`
}

// Lesson is a multi-layer guided phrase-building lesson.
type Lesson struct {
	ID            string `yaml:"id"`
	Title         string `yaml:"title"`
	Scenario      string `yaml:"scenario"`
	Order         int    `yaml:"order"`
	MinAppVersion string `yaml:"min_app_version"`

	Welcome    Text `yaml:"welcome"`
	Conclusion Text `yaml:"conclusion"`

	// CompositeTemplate builds one cumulative sentence from the slots of
	// the layers listed (zero-based) in CompositeLayers.
	CompositeTemplate string `yaml:"composite_template"`
	CompositeLayers   []int  `yaml:"composite_layers"`

	Layers []Layer `yaml:"layers"`
}

// Scenario is a role-play setting for scenario chat.
type Scenario struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Order       int    `yaml:"order"`
	Role        string `yaml:"role"`
	Description string `yaml:"description"`
	Opening     Text   `yaml:"opening"`
	Prompt      string `yaml:"prompt"`
}

// Catalog indexes lessons and scenarios by id.
type Catalog struct {
	lessons   []*Lesson
	byID      map[string]*Lesson
	scenarios []*Scenario
	scenByID  map[string]*Scenario

	// Skipped lists lessons that need a newer app version.
	Skipped []string
}

// Load reads the embedded catalog. appVersion gates lessons that declare
// min_app_version; "dev" or an empty version accepts everything.
func Load(appVersion string) (*Catalog, error) {
	return LoadFS(content, appVersion)
}

// LoadFS reads a catalog from fsys, which must contain data/scenarios.yaml
// and data/lessons/*.yaml.
func LoadFS(fsys fs.FS, appVersion string) (*Catalog, error) {
	c := &Catalog{
		byID:     make(map[string]*Lesson),
		scenByID: make(map[string]*Scenario),
	}

	raw, err := fs.ReadFile(fsys, "data/scenarios.yaml")
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	var doc struct {
		Scenarios []*Scenario `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	for _, s := range doc.Scenarios {
		if s.ID == "" {
			return nil, fmt.Errorf("scenario without id")
		}
		if _, dup := c.scenByID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate scenario %q", s.ID)
		}
		c.scenByID[s.ID] = s
		c.scenarios = append(c.scenarios, s)
	}

	entries, err := fs.ReadDir(fsys, "data/lessons")
	if err != nil {
		return nil, fmt.Errorf("read lessons: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join("data/lessons", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read lesson %s: %w", e.Name(), err)
		}
		var l Lesson
		if err := yaml.Unmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("parse lesson %s: %w", e.Name(), err)
		}
		if l.ID == "" {
			return nil, fmt.Errorf("lesson %s has no id", e.Name())
		}
		if _, dup := c.byID[l.ID]; dup {
			return nil, fmt.Errorf("duplicate lesson %q", l.ID)
		}
		if !Supports(appVersion, l.MinAppVersion) {
			c.Skipped = append(c.Skipped, l.ID)
			continue
		}
		lesson := l
		c.byID[l.ID] = &lesson
		c.lessons = append(c.lessons, &lesson)
	}

	sort.Slice(c.lessons, func(i, j int) bool { return c.lessons[i].Order < c.lessons[j].Order })
	sort.Slice(c.scenarios, func(i, j int) bool { return c.scenarios[i].Order < c.scenarios[j].Order })
	return c, nil
}

// Supports reports whether appVersion satisfies minVersion. Development
// builds and unversioned content always pass.
func Supports(appVersion, minVersion string) bool {
	if minVersion == "" || appVersion == "" || appVersion == "dev" {
		return true
	}
	app, floor := canonical(appVersion), canonical(minVersion)
	if !semver.IsValid(app) || !semver.IsValid(floor) {
		return true
	}
	return semver.Compare(app, floor) >= 0
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Lessons returns lessons in display order.
func (c *Catalog) Lessons() []*Lesson { return c.lessons }

// Lesson returns the lesson with id.
func (c *Catalog) Lesson(id string) (*Lesson, bool) {
	l, ok := c.byID[id]
	return l, ok
}

// Scenarios returns scenarios in display order.
func (c *Catalog) Scenarios() []*Scenario { return c.scenarios }

// Scenario returns the scenario with id.
func (c *Catalog) Scenario(id string) (*Scenario, bool) {
	s, ok := c.scenByID[id]
	return s, ok
}

var slotToken = regexp.MustCompile(`\{(\w+)\}`)

// Check validates cross references inside every lesson and returns one
// error per problem found.
func (c *Catalog) Check() []error {
	var errs []error
	for _, l := range c.lessons {
		errs = append(errs, l.Check(c)...)
	}
	return errs
}

// Check validates a single lesson. cat may be nil to skip the scenario
// reference check.
func (l *Lesson) Check(cat *Catalog) []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("lesson %s: "+format, append([]any{l.ID}, args...)...))
	}

	if len(l.Layers) == 0 {
		fail("no layers")
	}
	if cat != nil && l.Scenario != "" {
		if _, ok := cat.Scenario(l.Scenario); !ok {
			fail("unknown scenario %q", l.Scenario)
		}
	}

	provided := map[string]bool{}
	for i, layer := range l.Layers {
		if len(layer.Options) == 0 {
			fail("layer %d has no options", i+1)
		}
		for j, opt := range layer.Options {
			if opt.SkipToLayer != 0 && (opt.SkipToLayer < 1 || opt.SkipToLayer > len(l.Layers)) {
				fail("layer %d option %d skips to missing layer %d", i+1, j+1, opt.SkipToLayer)
			}
			for k := range opt.Slots {
				provided[k] = true
			}
		}
	}

	for _, idx := range l.CompositeLayers {
		if idx < 0 || idx >= len(l.Layers) {
			fail("composite layer %d out of range", idx)
		}
	}
	if l.CompositeTemplate != "" {
		for _, m := range slotToken.FindAllStringSubmatch(l.CompositeTemplate, -1) {
			if !provided[m[1]] {
				fail("template slot {%s} is never filled", m[1])
			}
		}
	}
	return errs
}

// IsCompositeLayer reports whether layer (zero-based) feeds the composite
// phrase.
func (l *Lesson) IsCompositeLayer(layer int) bool {
	if l.CompositeTemplate == "" {
		return false
	}
	for _, idx := range l.CompositeLayers {
		if idx == layer {
			return true
		}
	}
	return false
}
