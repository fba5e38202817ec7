package review

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"Shopfront/internal/storage"
)

func newTestStore(t *testing.T) (*Store, storage.Adapter) {
	t.Helper()
	kv := storage.NewMem()
	s := NewStore(kv, zap.NewNop())

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return s, kv
}

func TestAdd_NewestFirst(t *testing.T) {
	s, _ := newTestStore(t)

	first, err := s.Add(17, "Ada", 5, "Fits perfectly")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatalf("review missing id or timestamp: %+v", first)
	}

	second, err := s.Add(17, "Brin", 3, "Runs small")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	got := s.List(17)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != second.ID || got[1].ID != first.ID {
		t.Fatalf("not newest first: %+v", got)
	}
}

func TestAdd_Validation(t *testing.T) {
	s, _ := newTestStore(t)

	cases := []struct {
		name, reviewer, comment string
		rating                  int
		want                    error
	}{
		{"rating low", "Ada", "ok", 0, ErrBadRating},
		{"rating high", "Ada", "ok", 6, ErrBadRating},
		{"empty name", "  ", "ok", 4, ErrEmptyField},
		{"empty comment", "Ada", "", 4, ErrEmptyField},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Add(17, tc.reviewer, tc.rating, tc.comment); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	if got := s.List(17); len(got) != 0 {
		t.Fatalf("rejected reviews were stored: %+v", got)
	}
}

func TestProductsAreIsolated(t *testing.T) {
	s, _ := newTestStore(t)

	_, _ = s.Add(17, "Ada", 5, "Great")
	_, _ = s.Add(23, "Brin", 2, "Meh")

	if got := s.List(17); len(got) != 1 || got[0].ProductID != 17 {
		t.Fatalf("product 17 reviews: %+v", got)
	}
	if got := s.List(23); len(got) != 1 || got[0].ProductID != 23 {
		t.Fatalf("product 23 reviews: %+v", got)
	}
}

func TestList_CorruptRecordReadsEmpty(t *testing.T) {
	s, kv := newTestStore(t)

	_ = kv.Save(Key(17), []byte(`{"oops"`))
	if got := s.List(17); len(got) != 0 {
		t.Fatalf("corrupt record not read as empty: %+v", got)
	}

	// Adding over the corrupt record starts a fresh document.
	if _, err := s.Add(17, "Ada", 4, "Fine"); err != nil {
		t.Fatalf("add over corrupt record: %v", err)
	}
	if got := s.List(17); len(got) != 1 {
		t.Fatalf("fresh record after corrupt: %+v", got)
	}
}

func TestSurvivesReload(t *testing.T) {
	s, kv := newTestStore(t)

	want, _ := s.Add(17, "Ada", 5, "Great")

	got := NewStore(kv, zap.NewNop()).List(17)
	if len(got) != 1 || got[0].ID != want.ID {
		t.Fatalf("reload lost review: %+v", got)
	}
}
