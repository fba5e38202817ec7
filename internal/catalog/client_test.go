package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newCatalogTS(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/products/17", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 17, "title": "Linen Shirt", "price": 24.5,
			"brand": "Acme", "discountPercentage": 10.5, "rating": 4.2,
			"stock": 30, "category": "mens-shirts",
			"description": "A shirt", "thumbnail": "t.jpg",
			"images": ["1.jpg", "2.jpg"]
		}`))
	})
	mux.HandleFunc("/products/category/mens-shirts", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "3" {
			t.Errorf("limit = %q, want 3", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products": [{"id": 17, "title": "Linen Shirt", "price": 24.5}], "total": 1}`))
	})
	mux.HandleFunc("/products/500", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	return httptest.NewServer(mux)
}

func TestGetProduct(t *testing.T) {
	ts := newCatalogTS(t)
	defer ts.Close()

	c := NewClient(ts.URL)
	p, err := c.GetProduct(context.Background(), 17)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.ID != 17 || p.Title != "Linen Shirt" || p.Price != 24.5 || p.Stock != 30 {
		t.Fatalf("unexpected product: %+v", p)
	}
	if len(p.Images) != 2 {
		t.Fatalf("images: %v", p.Images)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	ts := newCatalogTS(t)
	defer ts.Close()

	c := NewClient(ts.URL)
	if _, err := c.GetProduct(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestGetProduct_UpstreamError(t *testing.T) {
	ts := newCatalogTS(t)
	defer ts.Close()

	c := NewClient(ts.URL)
	if _, err := c.GetProduct(context.Background(), 500); !errors.Is(err, ErrBadStatus) {
		t.Fatalf("got %v, want ErrBadStatus", err)
	}
}

func TestGetProduct_Unreachable(t *testing.T) {
	ts := newCatalogTS(t)
	ts.Close() // nothing listening anymore

	c := NewClient(ts.URL)
	if _, err := c.GetProduct(context.Background(), 17); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
}

func TestListCategory(t *testing.T) {
	ts := newCatalogTS(t)
	defer ts.Close()

	c := NewClient(ts.URL)
	ps, err := c.ListCategory(context.Background(), "mens-shirts", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ps) != 1 || ps[0].ID != 17 {
		t.Fatalf("unexpected products: %+v", ps)
	}
}
