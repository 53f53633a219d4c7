package syncx

import (
	"sync"
	"testing"
)

func TestGuardGet(t *testing.T) {
	g := NewGuard(42)

	if got := g.Get(); got != 42 {
		t.Errorf("Get() = %d, want 42", got)
	}
}

func TestGuardUpdate(t *testing.T) {
	type status struct {
		cycles int
		last   string
	}
	g := NewGuard(status{})

	got := g.Update(func(s *status) {
		s.cycles++
		s.last = "shot.png"
	})

	if got.cycles != 1 || got.last != "shot.png" {
		t.Errorf("Update() = %+v", got)
	}
	if g.Get() != got {
		t.Errorf("Get() = %+v, want %+v", g.Get(), got)
	}
}

func TestGuardConcurrent(t *testing.T) {
	g := NewGuard(0)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			g.Update(func(v *int) { *v++ })
		}()
		go func() {
			defer wg.Done()
			_ = g.Get()
		}()
	}
	wg.Wait()

	if got := g.Get(); got != 100 {
		t.Errorf("Get() = %d, want 100", got)
	}
}
