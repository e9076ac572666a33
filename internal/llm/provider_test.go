package llm

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/abhisek/parley/internal/store"
)

func TestMockProvider_FIFOAndCalls(t *testing.T) {
	mock := NewMockProvider(MockText("first"), MockText("second"))

	for _, want := range []string{"first", "second"} {
		resp, err := mock.Generate(context.Background(), Request{System: "sys"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Text() != want {
			t.Fatalf("got %q, want %q", resp.Text(), want)
		}
	}
	if mock.CallCount() != 2 || mock.LastCall().System != "sys" {
		t.Fatalf("calls not recorded: %+v", mock.Calls)
	}

	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable on empty queue, got %T", err)
	}
}

func TestMockProvider_ValidatesSchema(t *testing.T) {
	mock := NewMockProvider(MockJSON(map[string]any{"text": 3}))
	_, err := mock.Generate(context.Background(), Request{Schema: textSchema()})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
	if raw, ok := InvalidContent(err); !ok || string(raw) != `{"text":3}` {
		t.Fatalf("InvalidContent = %s, %v", raw, ok)
	}
}

func TestPurposeContext(t *testing.T) {
	if got := PurposeFrom(context.Background()); got != "unknown" {
		t.Fatalf("default purpose = %q", got)
	}
	ctx := WithPurpose(context.Background(), PurposeOpinion)
	if got := PurposeFrom(ctx); got != PurposeOpinion {
		t.Fatalf("purpose = %q", got)
	}
}

func TestResponseText(t *testing.T) {
	var nilResp *Response
	if nilResp.Text() != "" {
		t.Fatal("nil response should yield empty text")
	}
	r := &Response{Content: []byte("  hello \n")}
	if r.Text() != "hello" {
		t.Fatalf("got %q", r.Text())
	}
}

type recordingSink struct {
	events []store.LLMRequestEventData
	err    error
}

func (s *recordingSink) AppendLLMRequest(_ context.Context, d store.LLMRequestEventData) error {
	s.events = append(s.events, d)
	return s.err
}

func TestLoggingProvider_RecordsEvents(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: []byte("ok"), Usage: Usage{InputTokens: 7, OutputTokens: 3}},
		MockResponse{Err: errors.New("boom")},
	)
	sink := &recordingSink{err: errors.New("disk full")}
	p := WithLogging(mock, "mock", sink, nil)
	ctx := WithPurpose(context.Background(), PurposeFollowup)

	if _, err := p.Generate(ctx, Request{System: "be kind", Messages: []Message{{Role: RoleUser, Content: "hi"}}}); err != nil {
		t.Fatalf("sink failure must not fail the request: %v", err)
	}
	if _, err := p.Generate(ctx, Request{}); err == nil {
		t.Fatal("expected error to pass through")
	}

	if len(sink.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(sink.events))
	}
	ok, failed := sink.events[0], sink.events[1]
	if !ok.Success || ok.Purpose != PurposeFollowup || ok.InputTokens != 7 || ok.ResponseBody != "ok" {
		t.Errorf("unexpected success event: %+v", ok)
	}
	if got := gjson.Get(ok.RequestBody, "messages.0.content").String(); got != "hi" {
		t.Errorf("request body = %s", ok.RequestBody)
	}
	if got := gjson.Get(ok.RequestBody, "system").String(); got != "be kind" {
		t.Errorf("system = %q", got)
	}
	if failed.Success || failed.ErrorMessage != "boom" {
		t.Errorf("unexpected failure event: %+v", failed)
	}
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4o-mini")
	if c == nil {
		t.Fatal("expected pricing for gpt-4o-mini")
	}
	if got := c.Cost(1_000_000, 1_000_000); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("cost = %v", got)
	}
	if LookupCost("nope") != nil {
		t.Fatal("unknown model should have no pricing")
	}
}

func TestUnconfiguredProvider(t *testing.T) {
	cause := errors.New("no key")
	p := Unconfigured(cause)

	_, err := p.Generate(context.Background(), Request{})
	var unavailable *ErrProviderUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("got %v, want ErrProviderUnavailable", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("cause not wrapped: %v", err)
	}
}
