package presence

import (
	"sort"
	"sync"
	"testing"
)

func TestTracker_SingleConnection(t *testing.T) {
	tr := NewTracker()

	if !tr.AddConnection("u1") {
		t.Fatal("first connection must report transition to online")
	}
	if !tr.IsOnline("u1") {
		t.Fatal("u1 must be online")
	}
	if !tr.RemoveConnection("u1") {
		t.Fatal("last disconnect must report transition to offline")
	}
	if tr.IsOnline("u1") {
		t.Fatal("u1 must be offline")
	}
}

func TestTracker_MultipleSessions(t *testing.T) {
	tr := NewTracker()

	if !tr.AddConnection("u1") {
		t.Fatal("first connection must be a transition")
	}
	if tr.AddConnection("u1") {
		t.Fatal("second connection must not re-announce online")
	}

	// одна из двух сессий закрылась — пользователь всё ещё online
	if tr.RemoveConnection("u1") {
		t.Fatal("closing one of two sessions must not report offline")
	}
	if !tr.IsOnline("u1") {
		t.Fatal("u1 must still be online")
	}

	if !tr.RemoveConnection("u1") {
		t.Fatal("closing the last session must report offline exactly once")
	}
	if tr.RemoveConnection("u1") {
		t.Fatal("extra remove must not report offline again")
	}
}

func TestTracker_Snapshot(t *testing.T) {
	tr := NewTracker()
	tr.AddConnection("u1")
	tr.AddConnection("u2")
	tr.AddConnection("u2")

	got := tr.Snapshot()
	sort.Strings(got)
	want := []string{"u1", "u2"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("snapshot = %v, want %v", got, want)
	}
}

func TestTracker_ConcurrentTransitions(t *testing.T) {
	tr := NewTracker()

	const n = 64
	var wg sync.WaitGroup
	online := make(chan struct{}, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.AddConnection("u1") {
				online <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(online)

	if got := len(online); got != 1 {
		t.Fatalf("online announced %d times, want 1", got)
	}

	offline := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.RemoveConnection("u1") {
				offline <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(offline)

	if got := len(offline); got != 1 {
		t.Fatalf("offline announced %d times, want 1", got)
	}
}
