package auth

import (
	"testing"
	"time"
)

func TestBroker_DeliversToAllSubscribers(t *testing.T) {
	b := NewBroker(4)
	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()

	b.Publish(SessionEvent{Kind: EventSignedIn, UserID: "u1"})

	for i, ch := range []<-chan SessionEvent{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Kind != EventSignedIn || ev.UserID != "u1" || ev.At.IsZero() {
				t.Fatalf("subscriber %d got %+v", i, ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d got nothing", i)
		}
	}

	cancel1()
	cancel1() // idempotent
	if _, ok := <-ch1; ok {
		t.Fatal("channel should be closed after cancel")
	}
	b.Publish(SessionEvent{Kind: EventSignedOut, UserID: "u1"})
	if ev := <-ch2; ev.Kind != EventSignedOut {
		t.Fatalf("remaining subscriber got %+v", ev)
	}
}

func TestBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroker(1)
	_, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			b.Publish(SessionEvent{Kind: EventSignedUp, UserID: "u"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	if b.Dropped() != 4 {
		t.Fatalf("dropped = %d; want 4", b.Dropped())
	}
}

func TestBroker_NilPublishIsNoop(t *testing.T) {
	var b *Broker
	b.Publish(SessionEvent{Kind: EventConfirmed})
}
