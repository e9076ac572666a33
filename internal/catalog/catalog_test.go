package catalog

import (
	"testing"
	"testing/fstest"
)

func TestLoadEmbedded(t *testing.T) {
	c, err := Load("dev")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Lessons()) < 2 {
		t.Fatalf("lessons = %d", len(c.Lessons()))
	}
	if c.Lessons()[0].ID != "coffee-shop-order" {
		t.Errorf("first lesson = %q", c.Lessons()[0].ID)
	}
	if _, ok := c.Scenario("coffee-shop"); !ok {
		t.Error("coffee-shop scenario missing")
	}
	if errs := c.Check(); len(errs) != 0 {
		t.Fatalf("embedded catalog has problems: %v", errs)
	}
}

func TestCompositeLayers(t *testing.T) {
	c, err := Load("dev")
	if err != nil {
		t.Fatal(err)
	}
	l, _ := c.Lesson("coffee-shop-order")
	if l.IsCompositeLayer(0) {
		t.Error("greeting layer should not be composite")
	}
	if !l.IsCompositeLayer(2) {
		t.Error("size layer should be composite")
	}
}

func TestSupports(t *testing.T) {
	tests := []struct {
		app, min string
		want     bool
	}{
		{"dev", "v9.0.0", true},
		{"", "v1.0.0", true},
		{"v0.2.0", "", true},
		{"v0.2.0", "v0.1.0", true},
		{"0.2.0", "0.3.0", false},
		{"v1.0.0", "v1.0.0", true},
		{"garbage", "v1.0.0", true},
	}
	for _, tt := range tests {
		if got := Supports(tt.app, tt.min); got != tt.want {
			t.Errorf("Supports(%q, %q) = %v, want %v", tt.app, tt.min, got, tt.want)
		}
	}
}

func TestLoadSkipsNewerLessons(t *testing.T) {
	fsys := fstest.MapFS{
		"data/scenarios.yaml": {Data: []byte("scenarios:\n  - id: s\n    title: S\n")},
		"data/lessons/a.yaml": {Data: []byte(`
id: a
title: A
layers:
  - id: 1
    options: [{en: hi}]
`)},
		"data/lessons/b.yaml": {Data: []byte(`
id: b
title: B
min_app_version: v2.0.0
layers:
  - id: 1
    options: [{en: hi}]
`)},
	}
	c, err := LoadFS(fsys, "v1.5.0")
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if len(c.Lessons()) != 1 || c.Lessons()[0].ID != "a" {
		t.Fatalf("lessons = %v", c.Lessons())
	}
	if len(c.Skipped) != 1 || c.Skipped[0] != "b" {
		t.Fatalf("skipped = %v", c.Skipped)
	}
}

func TestCheckFindsProblems(t *testing.T) {
	l := &Lesson{
		ID:                "bad",
		Scenario:          "nowhere",
		CompositeTemplate: "{verb} {missing}",
		CompositeLayers:   []int{0, 5},
		Layers: []Layer{
			{Options: []Option{{EN: "x", SkipToLayer: 9, Slots: map[string]string{"verb": "I"}}}},
			{},
		},
	}
	c := &Catalog{scenByID: map[string]*Scenario{}}
	errs := l.Check(c)
	// unknown scenario, bad skip, empty layer, composite out of range, unfilled slot
	if len(errs) != 5 {
		t.Fatalf("got %d errors: %v", len(errs), errs)
	}
}
