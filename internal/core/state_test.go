package core

import (
	"reflect"
	"sync"
	"testing"

	"github.com/valter-silva-au/donewatch/pkg/models"
)

func records(ts ...string) []models.TaskRecord {
	out := make([]models.TaskRecord, len(ts))
	for i, t := range ts {
		out[i] = models.TaskRecord{Title: t}
	}
	return out
}

func TestStateTracker_SetGetReset(t *testing.T) {
	s := NewStateTracker()
	if s.Len("a.md") != 0 {
		t.Errorf("Len() on unknown path = %d, want 0", s.Len("a.md"))
	}

	s.Set("a.md", records("A", "B"))
	s.Set("b.md", records("C"))
	if got := titles(s.Get("a.md")); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Get(a.md) = %q", got)
	}
	if got, want := s.Paths(), []string{"a.md", "b.md"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Paths() = %q, want %q", got, want)
	}
	if got := s.Counts(); got["a.md"] != 2 || got["b.md"] != 1 {
		t.Errorf("Counts() = %v", got)
	}

	s.Reset("a.md")
	if s.Len("a.md") != 0 || s.Len("b.md") != 1 {
		t.Errorf("after Reset: a=%d b=%d, want 0 and 1", s.Len("a.md"), s.Len("b.md"))
	}

	s.ResetAll()
	if len(s.Paths()) != 0 {
		t.Errorf("Paths() after ResetAll = %q, want empty", s.Paths())
	}
}

func TestStateTracker_CopiesOnSetAndGet(t *testing.T) {
	s := NewStateTracker()
	in := records("A")
	s.Set("a.md", in)
	in[0].Title = "mutated"

	got := s.Get("a.md")
	if got[0].Title != "A" {
		t.Errorf("stored title = %q, want %q", got[0].Title, "A")
	}
	got[0].Title = "mutated"
	if s.Get("a.md")[0].Title != "A" {
		t.Error("Get() exposed internal slice")
	}
}

func TestStateTracker_SnapshotRestore(t *testing.T) {
	s := NewStateTracker()
	s.Set("a.md", records("A", "B"))

	snap := s.Snapshot()
	other := NewStateTracker()
	other.Set("stale.md", records("X"))
	other.Restore(snap)

	if other.Len("stale.md") != 0 {
		t.Error("Restore() kept stale entries")
	}
	if got := titles(other.Get("a.md")); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("restored a.md = %q", got)
	}
}

func TestPathLocks_SerializesSamePath(t *testing.T) {
	var locks pathLocks
	var mu sync.Mutex
	active, maxActive := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("a.md")
			defer unlock()
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxActive)
	}
}
