package compare

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"Shopfront/internal/storage"
)

func newTestStore(t *testing.T) (*Store, storage.Adapter) {
	t.Helper()
	kv := storage.NewMem()
	return NewStore(kv, zap.NewNop()), kv
}

func entry(id int) Entry {
	return Entry{
		ProductID: id,
		Title:     fmt.Sprintf("Product %d", id),
		Brand:     "Acme",
		Price:     float64(id) * 10,
		Rating:    4.5,
		Stock:     20,
		Category:  "mens-shirts",
		Thumbnail: "thumb.jpg",
	}
}

func TestAdd_CapAtFourRejectsNotEvicts(t *testing.T) {
	s, _ := newTestStore(t)

	for id := 1; id <= MaxEntries; id++ {
		out, st, err := s.Add(entry(id))
		if err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
		if out != Added {
			t.Fatalf("add %d outcome = %v, want added", id, out)
		}
		if len(st) != id {
			t.Fatalf("len = %d after add %d", len(st), id)
		}
	}

	out, st, err := s.Add(entry(5))
	if err != nil {
		t.Fatalf("overflow add: %v", err)
	}
	if out != Full {
		t.Fatalf("overflow outcome = %v, want full", out)
	}
	if len(st) != MaxEntries {
		t.Fatalf("overflow changed length: %d", len(st))
	}
	// The first entry is still there; nothing was evicted.
	if st[0].ProductID != 1 {
		t.Fatalf("eviction happened: %+v", st)
	}
}

func TestAdd_DuplicateLeavesStateAndRecordUntouched(t *testing.T) {
	s, kv := newTestStore(t)

	_, _, _ = s.Add(entry(7))
	recordBefore, _, _ := kv.Load(StateKey)
	before := s.Snapshot()

	out, st, err := s.Add(entry(7))
	if err != nil {
		t.Fatalf("dup add: %v", err)
	}
	if out != Duplicate {
		t.Fatalf("outcome = %v, want duplicate", out)
	}
	if diff := cmp.Diff(before, st); diff != "" {
		t.Fatalf("state changed (-before +after):\n%s", diff)
	}

	recordAfter, _, _ := kv.Load(StateKey)
	if !bytes.Equal(recordBefore, recordAfter) {
		t.Fatalf("stored record rewritten by duplicate add")
	}
}

func TestContains(t *testing.T) {
	s, _ := newTestStore(t)

	if s.Contains(7) {
		t.Fatalf("empty set contains 7")
	}
	_, _, _ = s.Add(entry(7))
	if !s.Contains(7) {
		t.Fatalf("set missing 7 after add")
	}
	if s.Contains(8) {
		t.Fatalf("set contains 8 without add")
	}
}

func TestRemove_IdempotentAndRecordUntouched(t *testing.T) {
	s, kv := newTestStore(t)

	_, _, _ = s.Add(entry(7))
	recordBefore, _, _ := kv.Load(StateKey)

	st, err := s.Remove(99)
	if err != nil {
		t.Fatalf("remove absent: %v", err)
	}
	if len(st) != 1 {
		t.Fatalf("no-op remove changed state: %+v", st)
	}

	recordAfter, _, _ := kv.Load(StateKey)
	if !bytes.Equal(recordBefore, recordAfter) {
		t.Fatalf("stored record rewritten by no-op remove")
	}

	st, _ = s.Remove(7)
	if len(st) != 0 {
		t.Fatalf("remove left entries: %+v", st)
	}
}

func TestRemove_MakesRoomUnderCap(t *testing.T) {
	s, _ := newTestStore(t)

	for id := 1; id <= MaxEntries; id++ {
		_, _, _ = s.Add(entry(id))
	}
	_, _ = s.Remove(2)

	out, st, _ := s.Add(entry(5))
	if out != Added {
		t.Fatalf("outcome = %v after freeing a slot, want added", out)
	}
	got := make([]int, 0, len(st))
	for _, e := range st {
		got = append(got, e.ProductID)
	}
	if diff := cmp.Diff([]int{1, 3, 4, 5}, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestClear_ErasesDurableRecord(t *testing.T) {
	s, kv := newTestStore(t)

	_, _, _ = s.Add(entry(7))
	if _, err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if _, ok, _ := kv.Load(StateKey); ok {
		t.Fatalf("record still present after clear")
	}

	fresh := NewStore(kv, zap.NewNop()).Snapshot()
	if len(fresh) != 0 {
		t.Fatalf("fresh store not empty: %+v", fresh)
	}
}

func TestHydration_RoundTrip(t *testing.T) {
	kv := storage.NewMem()
	s := NewStore(kv, zap.NewNop())

	_, _, _ = s.Add(entry(7))
	_, _, _ = s.Add(entry(9))
	want := s.Snapshot()

	got := NewStore(kv, zap.NewNop()).Snapshot()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("reload mismatch (-want +got):\n%s", diff)
	}
}

func TestHydration_CorruptRecordFallsBackToEmpty(t *testing.T) {
	kv := storage.NewMem()
	_ = kv.Save(StateKey, []byte(`{"not":"an array"}`))

	if got := NewStore(kv, zap.NewNop()).Snapshot(); len(got) != 0 {
		t.Fatalf("corrupt record did not fall back to empty: %+v", got)
	}
}

func TestHydration_EnforcesCapAndUniqueness(t *testing.T) {
	kv := storage.NewMem()
	_ = kv.Save(StateKey, []byte(`[
		{"id": 1, "title": "a", "price": 1},
		{"id": 1, "title": "a again", "price": 1},
		{"id": 2, "title": "b", "price": 2},
		{"id": 3, "title": "c", "price": 3},
		{"id": 4, "title": "d", "price": 4},
		{"id": 5, "title": "e", "price": 5},
		{"id": 6, "title": "f", "price": 6}
	]`))

	got := NewStore(kv, zap.NewNop()).Snapshot()
	if len(got) != MaxEntries {
		t.Fatalf("len = %d, want %d", len(got), MaxEntries)
	}
	ids := make([]int, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.ProductID)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscribe(t *testing.T) {
	s, _ := newTestStore(t)

	var notified int
	cancel := s.Subscribe(func([]Entry) { notified++ })

	_, _, _ = s.Add(entry(1))
	_, _, _ = s.Add(entry(1)) // duplicate, no notification
	_, _ = s.Remove(1)

	if notified != 2 {
		t.Fatalf("notified %d times, want 2", notified)
	}

	cancel()
	_, _, _ = s.Add(entry(2))
	if notified != 2 {
		t.Fatalf("notified after unsubscribe")
	}
}
