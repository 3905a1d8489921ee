package hub

import (
	"testing"

	"github.com/orthrauku-dev/yt-sus/internal/model"
)

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	h := New()

	a, cancelA := h.Subscribe()
	defer cancelA()
	b, cancelB := h.Subscribe()
	defer cancelB()

	h.Broadcast(model.Event{Type: model.EventUpdateHighlights})

	for name, ch := range map[string]<-chan model.Event{"a": a, "b": b} {
		select {
		case ev := <-ch:
			if ev.Type != model.EventUpdateHighlights {
				t.Errorf("%s: event type = %q, want %q", name, ev.Type, model.EventUpdateHighlights)
			}
		default:
			t.Errorf("%s: no event received", name)
		}
	}
}

func TestCancelRemovesSubscriber(t *testing.T) {
	h := New()
	_, cancel := h.Subscribe()
	if got := h.Subscribers(); got != 1 {
		t.Fatalf("Subscribers = %d, want 1", got)
	}
	cancel()
	if got := h.Subscribers(); got != 0 {
		t.Errorf("Subscribers after cancel = %d, want 0", got)
	}
	// Double cancel must not panic.
	cancel()
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	h := New()
	ch, cancel := h.Subscribe()
	defer cancel()

	// Overflow the buffer; Broadcast must return regardless.
	for i := 0; i < subscriberBuffer+5; i++ {
		h.Broadcast(model.Event{Type: model.EventUpdateSettings})
	}

	drained := 0
	for {
		select {
		case <-ch:
			drained++
			continue
		default:
		}
		break
	}
	if drained != subscriberBuffer {
		t.Errorf("drained %d events, want %d (overflow dropped)", drained, subscriberBuffer)
	}
}
