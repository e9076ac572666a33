package local

import (
	"context"
	"fmt"

	"github.com/abhisek/parley/internal/catalog"
	"github.com/abhisek/parley/internal/collab"
)

// LessonEngine answers lesson steps from the catalog without any model
// call. Feedback comes from each layer's canned templates so it can be
// voiced consistently.
type LessonEngine struct {
	catalog *catalog.Catalog
}

// NewLessonEngine creates an engine over cat.
func NewLessonEngine(cat *catalog.Catalog) *LessonEngine {
	return &LessonEngine{catalog: cat}
}

func orDefault(t catalog.Text, en, pt string) (string, string) {
	if t.EN != "" {
		en = t.EN
	}
	if t.PT != "" {
		pt = t.PT
	}
	return en, pt
}

func toOption(o catalog.Option) collab.Option {
	return collab.Option{EN: o.EN, PT: o.PT, SkipToLayer: o.SkipToLayer, Slots: o.Slots}
}

// Lesson runs one step.
func (e *LessonEngine) Lesson(_ context.Context, req collab.LessonRequest) (collab.LessonReply, error) {
	lesson, ok := e.catalog.Lesson(req.Lesson)
	if !ok {
		return collab.LessonReply{}, fmt.Errorf("no structured lesson found for %q", req.Lesson)
	}
	total := len(lesson.Layers)

	switch req.Action {
	case collab.LessonStart, "":
		text, tr := orDefault(lesson.Welcome, "Welcome to the lesson!", "Bem-vindo à aula!")
		title := lesson.Title
		if title == "" {
			title = lesson.ID
		}
		return collab.LessonReply{
			Type:              "welcome",
			Text:              text,
			Translation:       tr,
			Title:             title,
			TotalLayers:       total,
			CompositeTemplate: lesson.CompositeTemplate,
			CompositeLayers:   lesson.CompositeLayers,
			NextAction:        collab.LessonShowOptions,
		}, nil

	case collab.LessonShowOptions:
		if req.Layer >= total {
			text, tr := orDefault(lesson.Conclusion,
				"Congratulations! You completed the lesson!", "Parabéns! Você completou a aula!")
			return collab.LessonReply{
				Type:        "conclusion",
				Text:        text,
				Translation: tr,
				Layer:       req.Layer,
				NextLayer:   req.Layer,
				TotalLayers: total,
				NextAction:  collab.LessonFinished,
			}, nil
		}
		if req.Layer < 0 {
			return collab.LessonReply{}, fmt.Errorf("invalid layer %d", req.Layer)
		}
		layer := lesson.Layers[req.Layer]
		text, tr := orDefault(layer.Instruction, "Choose an option:", "Escolha uma opção:")
		title := layer.Title
		if title == "" {
			title = fmt.Sprintf("Layer %d", req.Layer+1)
		}
		opts := make([]collab.Option, len(layer.Options))
		for i, o := range layer.Options {
			opts[i] = toOption(o)
		}
		return collab.LessonReply{
			Type:        "options",
			Text:        text,
			Translation: tr,
			LayerTitle:  title,
			Options:     opts,
			Layer:       req.Layer,
			NextLayer:   req.Layer,
			TotalLayers: total,
			NextAction:  collab.LessonSelect,
		}, nil

	case collab.LessonSelect:
		if req.Layer < 0 || req.Layer >= total {
			return collab.LessonReply{}, fmt.Errorf("invalid layer %d", req.Layer)
		}
		layer := lesson.Layers[req.Layer]
		text, tr := orDefault(layer.PracticePrompt, "Now try using this phrase!", "Agora tente usar essa frase!")
		reply := collab.LessonReply{
			Type:        "practice",
			Text:        text,
			Translation: tr,
			Layer:       req.Layer,
			NextLayer:   req.Layer,
			TotalLayers: total,
			NextAction:  collab.LessonEvaluate,
		}
		if req.Option != nil && *req.Option >= 0 && *req.Option < len(layer.Options) {
			opt := toOption(layer.Options[*req.Option])
			reply.Selected = &opt
			reply.SkipToLayer = opt.SkipToLayer
		}
		return reply, nil

	case collab.LessonEvaluate:
		if req.Layer < 0 || req.Layer >= total {
			return collab.LessonReply{}, fmt.Errorf("invalid layer %d", req.Layer)
		}
		return evaluate(lesson, req), nil
	}
	return collab.LessonReply{}, fmt.Errorf("unknown lesson action %q", req.Action)
}

func evaluate(lesson *catalog.Lesson, req collab.LessonRequest) collab.LessonReply {
	layer := lesson.Layers[req.Layer]
	total := len(lesson.Layers)

	var target string
	if req.SelectedPhrase != nil {
		target = req.SelectedPhrase.EN
	}
	if req.CompositePhrase != "" {
		target = req.CompositePhrase
	}

	verdict := Score(req.Text, target)
	var fb catalog.Text
	switch verdict.Outcome {
	case OutcomeSuccess:
		fb = layer.Feedback.Success
	case OutcomeRetry:
		fb = layer.Feedback.Retry
	default:
		fb = layer.Feedback.Redirect
	}
	text, tr := orDefault(fb, "Good try! Let's continue.", "Boa tentativa! Vamos continuar.")

	ready := verdict.Outcome == OutcomeSuccess
	next := req.Layer
	if ready {
		next = req.Layer + 1
		if req.SkipToLayer > 0 {
			next = req.SkipToLayer - 1
		}
	}
	action := collab.LessonShowOptions
	if next >= total {
		action = collab.LessonConclusion
	}
	return collab.LessonReply{
		Type:         "feedback",
		Text:         text,
		Translation:  tr,
		ReadyForNext: ready,
		Layer:        req.Layer,
		NextLayer:    next,
		TotalLayers:  total,
		NextAction:   action,
	}
}
