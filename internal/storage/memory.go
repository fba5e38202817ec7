package storage

import "sync"

// Mem holds records in process memory. Nothing survives a restart,
// which makes it the default for tests and throwaway runs.
type Mem struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMem() *Mem {
	return &Mem{m: map[string][]byte{}}
}

func (s *Mem) Load(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(doc))
	copy(cp, doc)
	return cp, true, nil
}

func (s *Mem) Save(key string, doc []byte) error {
	cp := make([]byte, len(doc))
	copy(cp, doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = cp
	return nil
}

func (s *Mem) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *Mem) Ping() error { return nil }
