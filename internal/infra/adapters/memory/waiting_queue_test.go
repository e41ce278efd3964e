package memory

import "testing"

func TestWaitingQueueFIFO(t *testing.T) {
	q := NewWaitingQueue()

	for i, id := range []string{"a", "b", "c"} {
		pos, ok := q.Enqueue("voice", id)
		if !ok || pos != i+1 {
			t.Fatalf("enqueue %s: pos=%d ok=%v", id, pos, ok)
		}
	}

	if q.Len("voice") != 3 || q.Len("chat") != 0 {
		t.Fatalf("len voice=%d chat=%d", q.Len("voice"), q.Len("chat"))
	}

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.PopFront("voice")
		if !ok || got != want {
			t.Fatalf("pop = %q, want %q", got, want)
		}
	}

	if _, ok := q.PopFront("voice"); ok {
		t.Fatal("queue must be empty")
	}
}

func TestWaitingQueueSingleMembership(t *testing.T) {
	q := NewWaitingQueue()

	q.Enqueue("voice", "a")

	if _, ok := q.Enqueue("voice", "a"); ok {
		t.Fatal("second enqueue into same mode must be rejected")
	}

	if _, ok := q.Enqueue("chat", "a"); ok {
		t.Fatal("enqueue into another mode must be rejected")
	}

	if mode, ok := q.ModeOf("a"); !ok || mode != "voice" {
		t.Fatalf("mode = %q, %v", mode, ok)
	}

	if q.Total() != 1 {
		t.Fatalf("total = %d, want 1", q.Total())
	}
}

func TestWaitingQueueRemove(t *testing.T) {
	q := NewWaitingQueue()

	q.Enqueue("chat", "a")
	q.Enqueue("chat", "b")
	q.Enqueue("chat", "c")

	if !q.Remove("b") {
		t.Fatal("remove b")
	}

	if q.Remove("b") {
		t.Fatal("second remove must be a no-op")
	}

	first, _ := q.PopFront("chat")
	second, _ := q.PopFront("chat")

	if first != "a" || second != "c" {
		t.Fatalf("order after remove = %s,%s", first, second)
	}
}
