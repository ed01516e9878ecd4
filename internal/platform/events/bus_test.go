package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	perr "stackscout/internal/platform/errors"
)

type recSink struct {
	mu     sync.Mutex
	got    []Event
	err    error
	closed bool
}

func (s *recSink) Send(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, e)
	return s.err
}
func (s *recSink) Close() error { s.closed = true; return nil }

func TestBus_DeliversPerName(t *testing.T) {
	t.Parallel()

	b := NewBus()
	var reqs, fails int
	b.Subscribe(NameAnalysisRequested, func(context.Context, Event) error { reqs++; return nil })
	b.Subscribe(NameAnalysisFailed, func(context.Context, Event) error { fails++; return nil })

	ctx := context.Background()
	if err := b.Publish(ctx, AnalysisRequested{AppID: "a1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := b.Publish(ctx, AnalysisRequested{AppID: "a2"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if reqs != 2 || fails != 0 {
		t.Fatalf("reqs=%d fails=%d", reqs, fails)
	}
}

func TestBus_TypedPayloadReachesHandler(t *testing.T) {
	t.Parallel()

	b := NewBus()
	var got AnalysisFinished
	b.Subscribe(NameAnalysisFinished, func(_ context.Context, e Event) error {
		got = e.(AnalysisFinished)
		return nil
	})
	_ = b.Publish(context.Background(), AnalysisFinished{AppID: "x", Stack: []string{"go"}})
	if got.AppID != "x" || len(got.Stack) != 1 {
		t.Fatalf("handler got %+v", got)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	t.Parallel()

	b := NewBus()
	calls := 0
	off := b.Subscribe(NameAnalysisFailed, func(context.Context, Event) error { calls++; return nil })
	_ = b.Publish(context.Background(), AnalysisFailed{})
	off()
	off() // idempotent
	_ = b.Publish(context.Background(), AnalysisFailed{})
	if calls != 1 {
		t.Fatalf("calls=%d, want 1", calls)
	}
}

func TestBus_HandlerErrorSurfaces(t *testing.T) {
	t.Parallel()

	b := NewBus()
	boom := errors.New("queue full")
	second := false
	b.Subscribe(NameAnalysisRequested, func(context.Context, Event) error { return boom })
	b.Subscribe(NameAnalysisRequested, func(context.Context, Event) error { second = true; return nil })

	err := b.Publish(context.Background(), AnalysisRequested{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if !second {
		t.Fatalf("later handlers must still run")
	}
}

func TestBus_SinkReceivesAndDeliverSkipsSinks(t *testing.T) {
	t.Parallel()

	s := &recSink{}
	b := NewBus(WithSink(s))
	ctx := context.Background()

	_ = b.Publish(ctx, SubmissionBatchCreated{Period: "weekly"})
	_ = b.Deliver(ctx, AnalysisFailed{})

	if len(s.got) != 1 || s.got[0].EventName() != "github-app-submission/weekly" {
		t.Fatalf("sink got %+v", s.got)
	}
	if err := b.Close(); err != nil || !s.closed {
		t.Fatalf("Close err=%v closed=%v", err, s.closed)
	}
}

func TestBus_SinkErrorSurfaces(t *testing.T) {
	t.Parallel()

	s := &recSink{err: errors.New("broker down")}
	b := NewBus(WithSink(s))
	if err := b.Publish(context.Background(), AnalysisRequested{}); err == nil {
		t.Fatalf("expected sink error")
	}
}

func TestBus_NoReceiverIsAnError(t *testing.T) {
	t.Parallel()

	b := NewBus()
	err := b.Publish(context.Background(), AnalysisRequested{JobID: "j1"})
	if !errors.Is(err, ErrNoReceiver) || !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("got %v", err)
	}
	if err := b.Deliver(context.Background(), AnalysisRequested{}); err != nil {
		t.Fatalf("Deliver without subscribers: %v", err)
	}

	withSink := NewBus(WithSink(&recSink{}))
	if err := withSink.Publish(context.Background(), AnalysisRequested{}); err != nil {
		t.Fatalf("sink counts as a receiver: %v", err)
	}

	off := b.Subscribe(NameAnalysisRequested, func(context.Context, Event) error { return nil })
	if err := b.Publish(context.Background(), AnalysisRequested{}); err != nil {
		t.Fatal(err)
	}
	off()
	if err := b.Publish(context.Background(), AnalysisRequested{}); !errors.Is(err, ErrNoReceiver) {
		t.Fatalf("after unsubscribe got %v", err)
	}
}

func TestBus_NilEvent(t *testing.T) {
	t.Parallel()

	if err := NewBus().Publish(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil event")
	}
}

func TestSubmissionBatchName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		want bool
	}{
		{"github-app-submission/daily", true},
		{"github-app-submission/", false},
		{"analysis/requested", false},
	}
	for _, tc := range cases {
		if got := IsSubmissionBatch(tc.name); got != tc.want {
			t.Errorf("IsSubmissionBatch(%q)=%v want %v", tc.name, got, tc.want)
		}
	}
	if SubmissionBatchName("monthly") != "github-app-submission/monthly" {
		t.Fatalf("bad batch name")
	}
}
