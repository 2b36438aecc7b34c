package service

import (
	"testing"
	"time"
)

func TestMemoryStatusStore_SetGet(t *testing.T) {
	s := NewMemoryStatusStore(time.Minute)

	if _, ok := s.Get("missing"); ok {
		t.Error("unexpected entry")
	}

	s.Set("b1", ProgressSnapshot{Total: 10, Completed: 3})
	snap, ok := s.Get("b1")
	if !ok || snap.Total != 10 || snap.Completed != 3 {
		t.Errorf("got %+v, want total=10 completed=3", snap)
	}
	if snap.UpdatedAt.IsZero() {
		t.Error("Set must stamp UpdatedAt")
	}

	s.Delete("b1")
	if _, ok := s.Get("b1"); ok {
		t.Error("entry survived Delete")
	}
}

// 超过 TTL 的条目被周期清理，未过期的保留
func TestMemoryStatusStore_Sweep(t *testing.T) {
	s := NewMemoryStatusStore(time.Minute)

	current := time.Now()
	s.now = func() time.Time { return current }

	s.Set("old", ProgressSnapshot{Total: 1})
	current = current.Add(30 * time.Second)
	s.Set("fresh", ProgressSnapshot{Total: 2})

	current = current.Add(45 * time.Second) // old: 75s, fresh: 45s
	if removed := s.Sweep(); removed != 1 {
		t.Errorf("removed %d entries, want 1", removed)
	}
	if _, ok := s.Get("old"); ok {
		t.Error("expired entry survived sweep")
	}
	if _, ok := s.Get("fresh"); !ok {
		t.Error("fresh entry swept")
	}
}
