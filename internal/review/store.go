// Package review keeps per-product review records on the shared
// persistence adapter. Each product's reviews are one document, newest
// first, independent of the cart and compare stores.
package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Shopfront/internal/storage"
)

// Key returns the durable record key for a product's reviews.
func Key(productID int) string {
	return fmt.Sprintf("reviews:%d", productID)
}

type Review struct {
	ID        string    `json:"id"`
	ProductID int       `json:"productId"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	ErrBadRating  = errors.New("rating must be between 1 and 5")
	ErrEmptyField = errors.New("name and comment are required")
)

type Store struct {
	mu  sync.Mutex
	kv  storage.Adapter
	log *zap.Logger
	now func() time.Time
}

func NewStore(kv storage.Adapter, log *zap.Logger) *Store {
	return &Store{kv: kv, log: log, now: time.Now}
}

// Add validates and prepends a review to the product's record.
func (s *Store) Add(productID int, name string, rating int, comment string) (Review, error) {
	name = strings.TrimSpace(name)
	comment = strings.TrimSpace(comment)
	if rating < 1 || rating > 5 {
		return Review{}, ErrBadRating
	}
	if name == "" || comment == "" {
		return Review{}, ErrEmptyField
	}

	rv := Review{
		ID:        "rv_" + uuid.NewString(),
		ProductID: productID,
		Name:      name,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load(productID)
	if err != nil {
		// A corrupt record is discarded, same as the state stores.
		s.log.Warn("review record corrupt, starting fresh",
			zap.Int("product_id", productID), zap.Error(err))
		existing = nil
	}

	all := append([]Review{rv}, existing...)
	doc, _ := json.Marshal(all)
	if err := s.kv.Save(Key(productID), doc); err != nil {
		return Review{}, fmt.Errorf("save reviews: %w", err)
	}

	return rv, nil
}

// List returns the product's reviews, newest first. Absent, corrupt
// and unreadable records all read as empty.
func (s *Store) List(productID int) []Review {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, err := s.load(productID)
	if err != nil {
		s.log.Warn("review record unreadable, reading as empty",
			zap.Int("product_id", productID), zap.Error(err))
		return []Review{}
	}
	if rs == nil {
		return []Review{}
	}
	return rs
}

func (s *Store) load(productID int) ([]Review, error) {
	doc, ok, err := s.kv.Load(Key(productID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var rs []Review
	if err := json.Unmarshal(doc, &rs); err != nil {
		return nil, err
	}
	return rs, nil
}
