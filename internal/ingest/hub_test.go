package ingest

import (
	"sync"
	"testing"
)

func TestHubRegisterUnregister(t *testing.T) {
	h := NewHub()
	if h.Count() != 0 {
		t.Fatalf("count = %d, want 0", h.Count())
	}

	a := h.Register("10.0.0.1:1")
	b := h.Register("10.0.0.2:2")
	if a == b {
		t.Error("expected distinct client ids")
	}
	if h.Count() != 2 {
		t.Errorf("count = %d, want 2", h.Count())
	}

	h.Unregister(a)
	if h.Count() != 1 {
		t.Errorf("count = %d, want 1", h.Count())
	}

	// Unknown ids are a no-op.
	h.Unregister("nope")
	if h.Count() != 1 {
		t.Errorf("count = %d, want 1 after bogus unregister", h.Count())
	}
}

func TestHubConcurrentAccess(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := h.Register("addr")
			h.Count()
			h.Unregister(id)
		}()
	}
	wg.Wait()
	if h.Count() != 0 {
		t.Errorf("count = %d, want 0 after all clients left", h.Count())
	}
}
