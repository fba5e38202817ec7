package recent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"Shopfront/internal/storage"
)

func TestTouch_NewestFirstWithDedupe(t *testing.T) {
	kv := storage.NewMem()
	s := NewStore(kv, zap.NewNop())

	_, _ = s.Touch(1)
	_, _ = s.Touch(2)
	_, _ = s.Touch(3)
	got, err := s.Touch(1) // revisit moves to front, no duplicate
	if err != nil {
		t.Fatalf("touch: %v", err)
	}

	if diff := cmp.Diff([]int{1, 3, 2}, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestTouch_CapsAtLimit(t *testing.T) {
	kv := storage.NewMem()
	s := NewStore(kv, zap.NewNop())

	for id := 1; id <= Limit+3; id++ {
		_, _ = s.Touch(id)
	}

	got := s.List()
	if len(got) != Limit {
		t.Fatalf("len = %d, want %d", len(got), Limit)
	}
	if got[0] != Limit+3 {
		t.Fatalf("front = %d, want %d", got[0], Limit+3)
	}
	for _, id := range got {
		if id <= 3 {
			t.Fatalf("oldest views not evicted: %v", got)
		}
	}
}

func TestHydration(t *testing.T) {
	kv := storage.NewMem()
	s := NewStore(kv, zap.NewNop())
	_, _ = s.Touch(5)
	_, _ = s.Touch(9)

	got := NewStore(kv, zap.NewNop()).List()
	if diff := cmp.Diff([]int{9, 5}, got); diff != "" {
		t.Fatalf("reload mismatch (-want +got):\n%s", diff)
	}
}

func TestHydration_CorruptRecordFallsBackToEmpty(t *testing.T) {
	kv := storage.NewMem()
	_ = kv.Save(StateKey, []byte(`"not an array"`))

	if got := NewStore(kv, zap.NewNop()).List(); len(got) != 0 {
		t.Fatalf("corrupt record not read as empty: %v", got)
	}
}

func TestClear(t *testing.T) {
	kv := storage.NewMem()
	s := NewStore(kv, zap.NewNop())
	_, _ = s.Touch(5)

	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := kv.Load(StateKey); ok {
		t.Fatalf("record still present after clear")
	}
	if got := s.List(); len(got) != 0 {
		t.Fatalf("list not empty after clear: %v", got)
	}
}
