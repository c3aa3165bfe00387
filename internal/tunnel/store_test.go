package tunnel

import (
	"sync"
	"testing"
)

func TestAllocateIsMonotonic(t *testing.T) {
	s := NewStore()

	var ids []uint64
	for i := 0; i < 3; i++ {
		id, _, err := s.Allocate()
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		ids = append(ids, id)
	}

	for i, id := range ids {
		if id == 0 {
			t.Fatalf("id %d is zero", i)
		}
		if i > 0 && id <= ids[i-1] {
			t.Fatalf("id %d (%d) did not increase over previous id %d", i, id, ids[i-1])
		}
	}
}

func TestAllocateConcurrentIsUnique(t *testing.T) {
	s := NewStore()

	const n = 100
	ids := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, _, err := s.Allocate()
			if err != nil {
				t.Errorf("Allocate: %v", err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, n)
	for _, id := range ids {
		if id == 0 {
			t.Fatalf("id unexpectedly zero")
		}
		if seen[id] {
			t.Fatalf("id %d allocated twice", id)
		}
		seen[id] = true
	}
}

func TestClaimResolvesTheRegisteredSlot(t *testing.T) {
	s := NewStore()

	id, recv, err := s.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	send, err := s.Claim(id)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	want := &Response{ID: id, Status: 200, Body: []byte("hello")}
	send <- want

	got := <-recv
	if got != want {
		t.Fatalf("ingress observed a different response than the one sent")
	}
}

func TestClaimUnknownIDFails(t *testing.T) {
	s := NewStore()

	if _, err := s.Claim(42); err != ErrNotFound {
		t.Fatalf("Claim(unknown) = %v, want ErrNotFound", err)
	}
}

func TestClaimAlreadyClaimedFails(t *testing.T) {
	s := NewStore()

	id, _, _ := s.Allocate()
	if _, err := s.Claim(id); err != nil {
		t.Fatalf("first Claim: %v", err)
	}
	if _, err := s.Claim(id); err != ErrNotFound {
		t.Fatalf("second Claim(%d) = %v, want ErrNotFound", id, err)
	}
}

func TestAbandonClosesTheChannelWithoutAValue(t *testing.T) {
	s := NewStore()

	id, recv, _ := s.Allocate()
	s.Abandon(id)

	resp, ok := <-recv
	if ok {
		t.Fatalf("expected channel closed without a value, got %+v", resp)
	}

	// The abandoned id can no longer be claimed: it has already been
	// removed, matching the spec's documented open-question resolution
	// where a late SendResponse for a timed-out id is indistinguishable
	// from an unknown id.
	if _, err := s.Claim(id); err != ErrNotFound {
		t.Fatalf("Claim(abandoned) = %v, want ErrNotFound", err)
	}
}

func TestAllocateAfterCloseFails(t *testing.T) {
	s := NewStore()
	s.Close()

	if _, _, err := s.Allocate(); err != ErrStoreClosed {
		t.Fatalf("Allocate after Close = %v, want ErrStoreClosed", err)
	}
}
