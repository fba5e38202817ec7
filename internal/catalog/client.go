// Package catalog is the read-only client for the remote product
// catalog. The state engine never talks to it; fetched records are
// handed to the stores as already-resolved snapshots.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Product is the catalog record for one product id.
type Product struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Brand       string   `json:"brand"`
	Discount    float64  `json:"discountPercentage"`
	Rating      float64  `json:"rating"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Thumbnail   string   `json:"thumbnail"`
	Images      []string `json:"images"`
}

var (
	ErrNotFound    = errors.New("catalog product not found")
	ErrBadStatus   = errors.New("catalog bad status")
	ErrUnavailable = errors.New("catalog unavailable")
)

type Client struct {
	BaseURL string
	Client  *http.Client
}

func NewClient(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) GetProduct(ctx context.Context, id int) (Product, error) {
	var p Product
	if err := c.get(ctx, fmt.Sprintf("%s/products/%d", c.BaseURL, id), &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

type listResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

// List fetches up to limit products; limit <= 0 leaves paging to the
// catalog's defaults.
func (c *Client) List(ctx context.Context, limit int) ([]Product, error) {
	u := c.BaseURL + "/products"
	if limit > 0 {
		u = fmt.Sprintf("%s?limit=%d", u, limit)
	}

	var lr listResponse
	if err := c.get(ctx, u, &lr); err != nil {
		return nil, err
	}
	return lr.Products, nil
}

// ListCategory fetches up to limit products in one category.
func (c *Client) ListCategory(ctx context.Context, category string, limit int) ([]Product, error) {
	u := fmt.Sprintf("%s/products/category/%s", c.BaseURL, url.PathEscape(category))
	if limit > 0 {
		u = fmt.Sprintf("%s?limit=%d", u, limit)
	}

	var lr listResponse
	if err := c.get(ctx, u, &lr); err != nil {
		return nil, err
	}
	return lr.Products, nil
}

func (c *Client) get(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		// Timeouts, refused connections and DNS failures all read the
		// same to the caller: the catalog cannot be reached right now.
		return ErrUnavailable
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
