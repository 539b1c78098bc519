package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type captureNotifier struct {
	events []Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, ev Event) error {
	c.events = append(c.events, ev)
	return c.err
}

func TestEmitFansOutToAllNotifiers(t *testing.T) {
	first := &captureNotifier{}
	second := &captureNotifier{}
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	bus := &Bus{Notifiers: []Notifier{first, second}, Now: func() time.Time { return now }}

	err := bus.Emit(context.Background(), TopicItemAdded, map[string]any{"productId": "p-1"})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	for _, c := range []*captureNotifier{first, second} {
		if len(c.events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(c.events))
		}
		if c.events[0].Topic != TopicItemAdded {
			t.Fatalf("unexpected topic %q", c.events[0].Topic)
		}
		if !c.events[0].OccurredAt.Equal(now) {
			t.Fatalf("unexpected timestamp %v", c.events[0].OccurredAt)
		}
		var payload map[string]string
		if err := json.Unmarshal(c.events[0].Payload, &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["productId"] != "p-1" {
			t.Fatalf("unexpected payload %v", payload)
		}
	}
}

func TestEmitJoinsNotifierErrorsWithoutAborting(t *testing.T) {
	boom := errors.New("boom")
	failing := &captureNotifier{err: boom}
	ok := &captureNotifier{}
	bus := &Bus{Notifiers: []Notifier{failing, ok}}

	err := bus.Emit(context.Background(), TopicCartReset, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error containing boom, got %v", err)
	}
	if len(ok.events) != 1 {
		t.Fatal("fanout must continue past a failing notifier")
	}
}

func TestEmitRejectsEmptyTopicAndInvalidJSON(t *testing.T) {
	bus := &Bus{}
	if err := bus.Emit(context.Background(), "  ", nil); err == nil {
		t.Fatal("empty topic must fail")
	}
	if err := bus.Emit(context.Background(), TopicCartReset, json.RawMessage("{not json")); err == nil {
		t.Fatal("invalid raw payload must fail")
	}
}
