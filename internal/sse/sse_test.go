package sse_test

import (
	"strings"
	"testing"
	"time"

	"github.com/torosent/pagepulse/internal/sse"
)

func TestEventEncode(t *testing.T) {
	var sb strings.Builder
	e := sse.Event{ID: "42", Event: "stats", Data: `{"score":87}`}
	if err := e.Encode(&sb); err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := "id: 42\nevent: stats\ndata: {\"score\":87}\n\n"
	if sb.String() != want {
		t.Errorf("expected %q, got %q", want, sb.String())
	}
}

func TestEventEncodeMultilineData(t *testing.T) {
	var sb strings.Builder
	e := sse.Event{Data: "line one\nline two"}
	if err := e.Encode(&sb); err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := "data: line one\ndata: line two\n\n"
	if sb.String() != want {
		t.Errorf("expected %q, got %q", want, sb.String())
	}
}

func TestBroadcasterDeliversToAllSubscribers(t *testing.T) {
	b := sse.NewBroadcaster()
	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel1()
	defer cancel2()

	b.Publish(sse.Event{Event: "stats", Data: "x"})

	for i, ch := range []<-chan sse.Event{ch1, ch2} {
		select {
		case e := <-ch:
			if e.Event != "stats" {
				t.Errorf("subscriber %d: unexpected event %+v", i, e)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: timed out waiting for event", i)
		}
	}
}

func TestBroadcasterCancelRemovesSubscription(t *testing.T) {
	b := sse.NewBroadcaster()
	ch, cancel := b.Subscribe()

	cancel()
	cancel() // safe to call twice

	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after cancel, got %d", b.SubscriberCount())
	}
	if _, ok := <-ch; ok {
		t.Error("expected channel closed after cancel")
	}
}

func TestBroadcasterDropsWhenSubscriberFull(t *testing.T) {
	b := sse.NewBroadcaster()
	_, cancel := b.Subscribe()
	defer cancel()

	// Publishing far more events than the subscriber buffer holds must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(sse.Event{Data: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestBroadcasterClose(t *testing.T) {
	b := sse.NewBroadcaster()
	ch, _ := b.Subscribe()

	b.Close()
	b.Close() // idempotent

	if _, ok := <-ch; ok {
		t.Error("expected channel closed after broadcaster close")
	}

	late, _ := b.Subscribe()
	if _, ok := <-late; ok {
		t.Error("expected closed channel for subscription after close")
	}
}
