package dedup

import (
	"fmt"
	"sync"
	"testing"
)

func TestAdmit(t *testing.T) {
	x := NewIndex()

	if !x.Admit("call_001") {
		t.Fatal("first Admit should accept")
	}
	if x.Admit("call_001") {
		t.Fatal("second Admit of same call_id should reject")
	}
	if !x.Admit("call_002") {
		t.Fatal("different call_id should be accepted")
	}
	if !x.Seen("call_001") {
		t.Error("call_001 should be seen")
	}
	if x.Len() != 2 {
		t.Errorf("Len() = %d, want 2", x.Len())
	}
}

func TestAdmitConcurrentSameID(t *testing.T) {
	x := NewIndex()

	const workers = 64
	var wg sync.WaitGroup
	accepted := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if x.Admit("call_001") {
				accepted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(accepted)

	count := 0
	for range accepted {
		count++
	}
	if count != 1 {
		t.Fatalf("%d concurrent submissions accepted, want exactly 1", count)
	}
}

func TestRelease(t *testing.T) {
	x := NewIndex()

	x.Admit("call_001")
	x.Release("call_001")

	if !x.Admit("call_001") {
		t.Fatal("Admit after Release should accept again")
	}

	// Releasing an unknown ID is a no-op.
	x.Release("call_999")
}

func TestEvict(t *testing.T) {
	x := NewIndex()
	for i := 0; i < 5; i++ {
		x.Admit(fmt.Sprintf("call_%03d", i))
	}

	n := x.Evict([]string{"call_000", "call_001", "call_999"})
	if n != 2 {
		t.Errorf("Evict = %d, want 2", n)
	}
	if x.Len() != 3 {
		t.Errorf("Len() after eviction = %d, want 3", x.Len())
	}
	if !x.Admit("call_000") {
		t.Error("evicted call_id should be admittable again")
	}
}
