package events

import (
	"testing"
	"time"
)

func TestBus_DeliversMatchingTopics(t *testing.T) {
	var b Bus
	serverErrs, cancelServer := b.Subscribe(TopicServerError)
	defer cancelServer()
	all, cancelAll := b.Subscribe()
	defer cancelAll()

	b.Publish(Event{Topic: TopicSignOut})
	b.Publish(Event{Topic: TopicServerError, Status: 503, URL: "/api/universes", Message: "down"})

	select {
	case evt := <-serverErrs:
		if evt.Status != 503 || evt.Topic != TopicServerError {
			t.Fatalf("event = %#v, want server-error 503", evt)
		}
		if evt.At.IsZero() {
			t.Fatalf("event timestamp not set")
		}
	case <-time.After(time.Second):
		t.Fatalf("server-error subscriber received nothing")
	}
	select {
	case evt := <-serverErrs:
		t.Fatalf("unexpected extra event %#v", evt)
	default:
	}

	if got := len(all); got != 2 {
		t.Fatalf("wildcard subscriber has %d events, want 2", got)
	}
}

func TestBus_CancelClosesChannel(t *testing.T) {
	var b Bus
	ch, cancel := b.Subscribe(TopicSignOut)
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after cancel")
	}
	b.Publish(Event{Topic: TopicSignOut})
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	var b Bus
	_, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			b.Publish(Event{Topic: TopicServerError})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Publish blocked on a full subscriber")
	}
}

func TestBus_CloseEndsSubscriptions(t *testing.T) {
	var b Bus
	ch, cancel := b.Subscribe()
	b.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after Close")
	}
	cancel()

	late, _ := b.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("late subscription should be closed")
	}

	var nilBus *Bus
	nilBus.Publish(Event{Topic: TopicSignOut})
}
