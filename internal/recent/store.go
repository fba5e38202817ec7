// Package recent tracks the last products viewed, newest first, so the
// landing page can render a recently-viewed strip.
package recent

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"Shopfront/internal/storage"
)

// StateKey is the durable record the list lives under, serialized as a
// bare array of product ids.
const StateKey = "Recent"

// Limit caps how many views are remembered.
const Limit = 10

type Store struct {
	mu  sync.Mutex
	ids []int
	kv  storage.Adapter
	log *zap.Logger
}

func NewStore(kv storage.Adapter, log *zap.Logger) *Store {
	s := &Store{kv: kv, log: log}

	doc, ok, err := kv.Load(StateKey)
	if err != nil {
		log.Warn("recent record unreadable, starting empty", zap.Error(err))
		return s
	}
	if !ok {
		return s
	}

	var ids []int
	if err := json.Unmarshal(doc, &ids); err != nil {
		log.Warn("recent record corrupt, starting empty", zap.Error(err))
		return s
	}

	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		s.ids = append(s.ids, id)
		if len(s.ids) == Limit {
			break
		}
	}
	return s
}

// Touch records a product view: the id moves to the front, duplicates
// collapse, and the list truncates to Limit.
func (s *Store) Touch(productID int) ([]int, error) {
	s.mu.Lock()

	ids := make([]int, 0, len(s.ids)+1)
	ids = append(ids, productID)
	for _, id := range s.ids {
		if id != productID {
			ids = append(ids, id)
		}
	}
	if len(ids) > Limit {
		ids = ids[:Limit]
	}
	s.ids = ids

	out := s.snapshotLocked()
	doc, _ := json.Marshal(out)
	err := s.kv.Save(StateKey, doc)
	if err != nil {
		err = fmt.Errorf("recent list not persisted: %w", err)
		s.log.Warn("recent write-through failed", zap.Error(err))
	}

	s.mu.Unlock()
	return out, err
}

// List returns the remembered product ids, newest first.
func (s *Store) List() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Clear forgets all views and erases the durable record.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = nil
	if err := s.kv.Delete(StateKey); err != nil {
		return fmt.Errorf("recent record not erased: %w", err)
	}
	return nil
}

func (s *Store) snapshotLocked() []int {
	out := make([]int, len(s.ids))
	copy(out, s.ids)
	return out
}
