// Package cart implements the cart half of the storefront state
// engine: an ordered list of product+size lines with derived totals,
// written through to durable storage after every mutation.
package cart

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"Shopfront/internal/storage"
)

// StateKey is the durable record the cart lives under.
const StateKey = "cart"

// Size is the fixed variant set. It is part of a line's identity.
type Size string

const (
	SizeS  Size = "S"
	SizeM  Size = "M"
	SizeL  Size = "L"
	SizeXL Size = "XL"
)

func ParseSize(s string) (Size, bool) {
	switch Size(s) {
	case SizeS, SizeM, SizeL, SizeXL:
		return Size(s), true
	}
	return "", false
}

// Mode selects what happens to the quantity when the added line already
// exists in the cart.
type Mode int

const (
	// Merge adds the incoming quantity onto the existing line.
	Merge Mode = iota
	// Replace overwrites the existing quantity, for callers that
	// already know the desired absolute amount.
	Replace
)

// Line is one purchasable variant in the cart. Title, UnitPrice and
// Image are catalog snapshots taken at add time and never re-fetched.
type Line struct {
	ProductID int     `json:"id"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"price"`
	Size      Size    `json:"size"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

// State is the read snapshot handed to callers. TotalQuantity and
// TotalAmount are always the exact recomputation over Items; they are
// derived inside the same critical section as the mutation, so no
// reader can see lines and totals out of sync.
type State struct {
	Items         []Line  `json:"items"`
	TotalQuantity int     `json:"totalQuantity"`
	TotalAmount   float64 `json:"totalAmount"`
}

// Store is the authoritative holder of cart lines. A single mutex
// serializes mutations so each one validates, mutates, recomputes the
// totals and persists to completion before the next begins.
type Store struct {
	mu      sync.Mutex
	items   []Line
	kv      storage.Adapter
	log     *zap.Logger
	subs    map[int]func(State)
	nextSub int
}

// NewStore hydrates the cart from the adapter. A missing or unreadable
// record yields the empty cart; construction never fails. Stored
// totals are discarded and recomputed from the lines, and lines that
// would break the identity or quantity invariants are dropped.
func NewStore(kv storage.Adapter, log *zap.Logger) *Store {
	s := &Store{kv: kv, log: log, subs: map[int]func(State){}}

	doc, ok, err := kv.Load(StateKey)
	if err != nil {
		log.Warn("cart record unreadable, starting empty", zap.Error(err))
		return s
	}
	if !ok {
		return s
	}

	var st State
	if err := json.Unmarshal(doc, &st); err != nil {
		log.Warn("cart record corrupt, starting empty", zap.Error(err))
		return s
	}

	type key struct {
		id   int
		size Size
	}
	seen := make(map[key]bool, len(st.Items))
	for _, l := range st.Items {
		k := key{l.ProductID, l.Size}
		if l.Quantity < 1 || seen[k] {
			continue
		}
		seen[k] = true
		s.items = append(s.items, l)
	}
	return s
}

// Subscribe registers fn to receive the post-mutation snapshot after
// every state change. The returned func cancels the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
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

// Snapshot returns the current state for rendering.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// AddOrUpdate inserts item as a new line or folds it into the line with
// the same (ProductID, Size) key, per mode. ceiling is a caller-supplied
// upper bound on the resulting quantity (typically a stock count the
// caller looked up); 0 means unbounded, a positive value clamps. A
// resulting quantity of zero or less removes the line instead of
// keeping it at zero.
//
// The returned error, when non-nil, means the mutation took effect in
// memory but was not written through; callers should treat it as a
// warning that the change is session-only.
func (s *Store) AddOrUpdate(item Line, mode Mode, ceiling int) (State, error) {
	s.mu.Lock()

	idx := s.find(item.ProductID, item.Size)
	qty := item.Quantity
	if idx >= 0 && mode == Merge {
		qty += s.items[idx].Quantity
	}
	if ceiling > 0 && qty > ceiling {
		qty = ceiling
	}

	switch {
	case qty <= 0:
		if idx < 0 {
			return s.noop()
		}
		s.items = append(s.items[:idx], s.items[idx+1:]...)
	case idx >= 0:
		s.items[idx].Quantity = qty
	default:
		item.Quantity = qty
		s.items = append(s.items, item)
	}

	return s.commit()
}

// Remove deletes the line for (productID, size). Removing an absent
// line is a no-op, not an error, and leaves the stored record
// untouched.
func (s *Store) Remove(productID int, size Size) (State, error) {
	s.mu.Lock()

	idx := s.find(productID, size)
	if idx < 0 {
		return s.noop()
	}

	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return s.commit()
}

// SetQuantity pins the matching line's quantity to exactly quantity.
// Zero or less removes the line. Setting an absent line is a no-op.
// ceiling as in AddOrUpdate.
func (s *Store) SetQuantity(productID int, size Size, quantity, ceiling int) (State, error) {
	if quantity <= 0 {
		return s.Remove(productID, size)
	}

	s.mu.Lock()

	idx := s.find(productID, size)
	if idx < 0 {
		return s.noop()
	}

	if ceiling > 0 && quantity > ceiling {
		quantity = ceiling
	}
	s.items[idx].Quantity = quantity

	return s.commit()
}

// Clear empties the cart and erases the durable record entirely, so a
// later load is indistinguishable from a never-used cart.
func (s *Store) Clear() (State, error) {
	s.mu.Lock()

	s.items = nil

	err := s.kv.Delete(StateKey)
	if err != nil {
		err = fmt.Errorf("cart record not erased: %w", err)
		s.log.Warn("cart clear did not reach storage", zap.Error(err))
	}

	return s.finish(s.snapshotLocked(), err)
}

func (s *Store) find(productID int, size Size) int {
	for i, l := range s.items {
		if l.ProductID == productID && l.Size == size {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() State {
	st := State{Items: make([]Line, len(s.items))}
	copy(st.Items, s.items)
	for _, l := range s.items {
		st.TotalQuantity += l.Quantity
		st.TotalAmount += l.UnitPrice * float64(l.Quantity)
	}
	return st
}

// commit recomputes the snapshot, writes it through, and hands off to
// finish. Called with the lock held.
func (s *Store) commit() (State, error) {
	st := s.snapshotLocked()

	doc, _ := json.Marshal(st)
	err := s.kv.Save(StateKey, doc)
	if err != nil {
		err = fmt.Errorf("cart state not persisted: %w", err)
		s.log.Warn("cart write-through failed, change is session-only", zap.Error(err))
	}

	return s.finish(st, err)
}

// noop releases the lock and returns the unchanged snapshot without
// rewriting storage or waking subscribers. Called with the lock held.
func (s *Store) noop() (State, error) {
	st := s.snapshotLocked()
	s.mu.Unlock()
	return st, nil
}

// finish releases the lock and notifies subscribers with the snapshot
// taken inside the critical section. Called with the lock held.
func (s *Store) finish(st State, err error) (State, error) {
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
	return st, err
}
