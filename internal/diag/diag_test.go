package diag

import "testing"

func TestCollectPopulatesGoroutines(t *testing.T) {
	c, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	snap := c.Collect()
	if snap.Goroutines <= 0 {
		t.Errorf("expected at least one goroutine, got %d", snap.Goroutines)
	}
	if snap.CollectedAt.IsZero() {
		t.Error("expected CollectedAt to be set")
	}
}
