// Package compare implements the comparison half of the storefront
// state engine: a small, bounded set of whole product snapshots held
// for side-by-side display.
package compare

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"Shopfront/internal/storage"
)

// StateKey is the durable record the comparison set lives under. It is
// serialized as a bare array of entries.
const StateKey = "compareItems"

// MaxEntries is the comparison page's fixed column budget. The cap is
// enforced here, at the state layer, so no caller can grow the set past
// what the page can show.
const MaxEntries = 4

// Entry is the full product snapshot the comparison page renders.
type Entry struct {
	ProductID   int     `json:"id"`
	Title       string  `json:"title"`
	Brand       string  `json:"brand,omitempty"`
	Price       float64 `json:"price"`
	Discount    float64 `json:"discountPercentage,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Stock       int     `json:"stock,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
}

// Outcome reports what an Add did. Both rejections leave the set and
// its stored record untouched; they are signals for the caller's UI,
// not errors.
type Outcome int

const (
	Added Outcome = iota
	// Duplicate: the product is already in the set.
	Duplicate
	// Full: the set already holds MaxEntries products. The add is
	// rejected, never evicts.
	Full
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Duplicate:
		return "duplicate"
	case Full:
		return "full"
	}
	return "unknown"
}

// Store holds the comparison set. Entries keep insertion order; product
// ids are unique within the set.
type Store struct {
	mu      sync.Mutex
	entries []Entry
	kv      storage.Adapter
	log     *zap.Logger
	subs    map[int]func([]Entry)
	nextSub int
}

// NewStore hydrates the set from the adapter. A missing or unreadable
// record yields the empty set. Hydrated entries are deduplicated by
// product id and truncated to the cap, so a tampered record cannot
// smuggle an invariant violation through construction.
func NewStore(kv storage.Adapter, log *zap.Logger) *Store {
	s := &Store{kv: kv, log: log, subs: map[int]func([]Entry){}}

	doc, ok, err := kv.Load(StateKey)
	if err != nil {
		log.Warn("compare record unreadable, starting empty", zap.Error(err))
		return s
	}
	if !ok {
		return s
	}

	var entries []Entry
	if err := json.Unmarshal(doc, &entries); err != nil {
		log.Warn("compare record corrupt, starting empty", zap.Error(err))
		return s
	}

	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if seen[e.ProductID] {
			continue
		}
		seen[e.ProductID] = true
		s.entries = append(s.entries, e)
		if len(s.entries) == MaxEntries {
			break
		}
	}
	return s
}

// Subscribe registers fn to receive the post-mutation entries after
// every state change. The returned func cancels the subscription.
func (s *Store) Subscribe(fn func([]Entry)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Snapshot returns the entries in insertion order.
func (s *Store) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Contains reports whether the product is in the set. Pure query.
func (s *Store) Contains(productID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(productID) >= 0
}

// Add appends the snapshot unless the product is already present or
// the set is full; rejections change nothing, in memory or on storage.
// The error is a persist warning as in the cart store.
func (s *Store) Add(e Entry) (Outcome, []Entry, error) {
	s.mu.Lock()

	if s.indexOf(e.ProductID) >= 0 {
		out := s.snapshotLocked()
		s.mu.Unlock()
		return Duplicate, out, nil
	}
	if len(s.entries) >= MaxEntries {
		out := s.snapshotLocked()
		s.mu.Unlock()
		return Full, out, nil
	}

	s.entries = append(s.entries, e)
	st, err := s.commit()
	return Added, st, err
}

// Remove deletes the entry for productID; removing an absent product is
// a no-op and leaves the stored record untouched.
func (s *Store) Remove(productID int) ([]Entry, error) {
	s.mu.Lock()

	idx := s.indexOf(productID)
	if idx < 0 {
		out := s.snapshotLocked()
		s.mu.Unlock()
		return out, nil
	}

	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	return s.commit()
}

// Clear empties the set and erases the durable record entirely.
func (s *Store) Clear() ([]Entry, error) {
	s.mu.Lock()

	s.entries = nil

	err := s.kv.Delete(StateKey)
	if err != nil {
		err = fmt.Errorf("compare record not erased: %w", err)
		s.log.Warn("compare clear did not reach storage", zap.Error(err))
	}

	return s.finish(s.snapshotLocked(), err)
}

func (s *Store) indexOf(productID int) int {
	for i, e := range s.entries {
		if e.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// commit writes the entries through and hands off to finish. Called
// with the lock held.
func (s *Store) commit() ([]Entry, error) {
	out := s.snapshotLocked()

	doc, _ := json.Marshal(out)
	err := s.kv.Save(StateKey, doc)
	if err != nil {
		err = fmt.Errorf("compare state not persisted: %w", err)
		s.log.Warn("compare write-through failed, change is session-only", zap.Error(err))
	}

	return s.finish(out, err)
}

// finish releases the lock and notifies subscribers. Called with the
// lock held.
func (s *Store) finish(out []Entry, err error) ([]Entry, error) {
	subs := make([]func([]Entry), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(out)
	}
	return out, err
}
