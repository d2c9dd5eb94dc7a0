package bridge

import (
	"context"
	"testing"
	"time"
)

func drain(q *Queue) []Message {
	var messages []Message
	for {
		msg, ok := q.Poll()
		if !ok {
			return messages
		}
		messages = append(messages, msg)
	}
}

func TestPushPollOrder(t *testing.T) {
	q := New(8)
	q.Push(PlayerID, "p-1")
	q.Push(MapStatic, "static")
	q.Push(StatusText, "tick 1")

	messages := drain(q)
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[0].Tag != PlayerID || messages[1].Tag != MapStatic || messages[2].Tag != StatusText {
		t.Errorf("unexpected order: %v", messages)
	}
}

func TestCoalescingKeepsNewest(t *testing.T) {
	q := New(8)
	q.Push(StatusText, "tick 1")
	q.Push(MapDynamic, "snap 1")
	q.Push(StatusText, "tick 2")
	q.Push(MapDynamic, "snap 2")

	messages := drain(q)
	if len(messages) != 2 {
		t.Fatalf("expected coalesced queue of 2, got %d", len(messages))
	}
	if messages[0].Payload != "tick 2" {
		t.Errorf("status not coalesced to newest: %v", messages[0].Payload)
	}
	if messages[1].Payload != "snap 2" {
		t.Errorf("snapshot not coalesced to newest: %v", messages[1].Payload)
	}
}

func TestLosslessSurvivePressure(t *testing.T) {
	q := New(2)
	q.Push(MapStatic, "static")
	q.Push(GameOver, nil)
	// The queue is at capacity with lossless messages only; a coalescable
	// push has nothing to evict and is dropped, the lossless ones stay.
	q.Push(StatusText, "tick 1")

	messages := drain(q)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Tag != MapStatic || messages[1].Tag != GameOver {
		t.Errorf("lossless messages lost: %v", messages)
	}
}

func TestEvictsOldestCoalescable(t *testing.T) {
	q := New(2)
	q.Push(StatusText, "tick 1")
	q.Push(PlayerID, "p-1")
	q.Push(MapDynamic, "snap") // full: evicts the oldest coalescable

	messages := drain(q)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Tag != PlayerID || messages[1].Tag != MapDynamic {
		t.Errorf("unexpected survivors: %v", messages)
	}
}

func TestNextBlocksUntilPush(t *testing.T) {
	q := New(4)
	done := make(chan Message, 1)
	go func() {
		msg, err := q.Next(context.Background())
		if err != nil {
			t.Errorf("Next failed: %v", err)
		}
		done <- msg
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(GameOver, nil)

	select {
	case msg := <-done:
		if msg.Tag != GameOver {
			t.Errorf("expected game over, got %v", msg.Tag)
		}
	case <-time.After(time.Second):
		t.Fatal("Next did not wake up")
	}
}

func TestNextContextCancel(t *testing.T) {
	q := New(4)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if _, err := q.Next(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestClose(t *testing.T) {
	q := New(4)
	q.Push(StatusText, "tick 1")
	q.Close()
	q.Push(StatusText, "dropped")

	if msg, ok := q.Poll(); !ok || msg.Payload != "tick 1" {
		t.Fatalf("queued message unreadable after close: %v %v", msg, ok)
	}
	if _, err := q.Next(context.Background()); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
