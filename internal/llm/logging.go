package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/sjson"

	"github.com/abhisek/parley/internal/logging"
	"github.com/abhisek/parley/internal/store"
)

// EventSink persists LLM request events.
type EventSink interface {
	AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error
}

// LoggingProvider is a decorator that records every LLM request as an event.
type LoggingProvider struct {
	inner    Provider
	provider string
	events   EventSink
	logger   logging.Logger
}

// WithLogging wraps a Provider with event logging. A nil sink only logs.
func WithLogging(p Provider, providerName string, events EventSink, logger logging.Logger) Provider {
	if logger == nil {
		logger = logging.Nop()
	}
	return &LoggingProvider{inner: p, provider: providerName, events: events, logger: logger}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = string(resp.Content)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		l.logger.Warn("llm request failed", "purpose", purpose, "model", data.Model, "error", err)
	} else {
		l.logger.Debug("llm request", "purpose", purpose, "model", data.Model,
			"latency_ms", data.LatencyMs, "in", data.InputTokens, "out", data.OutputTokens)
	}

	// Event persistence failures never fail the request. A skipped turn
	// cancels ctx, but the call still happened and is recorded.
	if l.events != nil {
		if logErr := l.events.AppendLLMRequest(context.WithoutCancel(ctx), data); logErr != nil {
			l.logger.Warn("failed to record llm request event", "error", logErr)
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest renders the request as JSON so stored events can be
// pretty-printed and queried later.
func serializeRequest(req Request) string {
	doc := "{}"
	set := func(path string, v any) {
		if out, err := sjson.Set(doc, path, v); err == nil {
			doc = out
		}
	}

	if req.System != "" {
		set("system", req.System)
	}
	for i, m := range req.Messages {
		set(fmt.Sprintf("messages.%d.role", i), string(m.Role))
		set(fmt.Sprintf("messages.%d.content", i), m.Content)
	}
	if req.MaxTokens > 0 {
		set("max_tokens", req.MaxTokens)
	}
	if req.Schema != nil {
		set("schema.name", req.Schema.Name)
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			if out, err := sjson.SetRaw(doc, "schema.definition", string(def)); err == nil {
				doc = out
			}
		}
	}
	return doc
}
