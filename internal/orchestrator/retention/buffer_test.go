package retention

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewBufferMinimumCapacity(t *testing.T) {
	if got := NewBuffer(0).Cap(); got != 1 {
		t.Errorf("Cap() = %d, want 1", got)
	}
	if got := NewBuffer(5).Cap(); got != 5 {
		t.Errorf("Cap() = %d, want 5", got)
	}
}

// Mirrors the controller: evict when full, then push.
func TestBufferHoldsMostRecent(t *testing.T) {
	const capacity = 3
	b := NewBuffer(capacity)
	var captured []string

	for n := 1; n <= 10; n++ {
		if b.Full() {
			oldest, ok := b.EvictOldest()
			if !ok {
				t.Fatal("EvictOldest on full buffer returned !ok")
			}
			if want := captured[len(captured)-capacity]; oldest != want {
				t.Errorf("cycle %d evicted %q, want %q", n, oldest, want)
			}
		}
		path := fmt.Sprintf("shot-%02d.png", n)
		b.Push(path)
		captured = append(captured, path)

		wantLen := min(n, capacity)
		if b.Len() != wantLen {
			t.Errorf("after %d cycles Len() = %d, want %d", n, b.Len(), wantLen)
		}
		if diff := cmp.Diff(captured[len(captured)-wantLen:], b.Paths()); diff != "" {
			t.Errorf("after %d cycles resident paths mismatch (-want +got):\n%s", n, diff)
		}
	}
}

func TestPushIntoFullBufferDropsOldest(t *testing.T) {
	b := NewBuffer(2)
	b.Push("a")
	b.Push("b")

	dropped, ok := b.Push("c")
	if !ok || dropped != "a" {
		t.Errorf("Push() = (%q, %v), want (\"a\", true)", dropped, ok)
	}
	if diff := cmp.Diff([]string{"b", "c"}, b.Paths()); diff != "" {
		t.Errorf("Paths() mismatch (-want +got):\n%s", diff)
	}
}

func TestEvictOldestEmpty(t *testing.T) {
	b := NewBuffer(2)
	if p, ok := b.EvictOldest(); ok || p != "" {
		t.Errorf("EvictOldest() = (%q, %v), want (\"\", false)", p, ok)
	}
}

func TestPathsIsCopy(t *testing.T) {
	b := NewBuffer(2)
	b.Push("a")
	paths := b.Paths()
	paths[0] = "mutated"

	if b.Paths()[0] != "a" {
		t.Error("Paths() should return a copy")
	}
}
