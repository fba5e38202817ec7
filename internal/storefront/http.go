package storefront

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Shopfront/internal/cart"
	"Shopfront/internal/catalog"
	"Shopfront/internal/compare"
	"Shopfront/internal/recent"
	"Shopfront/internal/review"
	"Shopfront/internal/storage"
	"Shopfront/pkg/kit"
)

// Server exposes the state engine to UI collaborators. Handlers only
// dispatch intents and return snapshots; all invariants live in the
// stores.
type Server struct {
	Cart    *cart.Store
	Compare *compare.Store
	Reviews *review.Store
	Recent  *recent.Store
	Catalog *catalog.Client
	KV      storage.Adapter
	Log     *zap.Logger

	persistFailures *prometheus.CounterVec
}

const maxBodyBytes = 1 << 20

type addCartReq struct {
	ID           int    `json:"id"`
	Size         string `json:"size"`
	Quantity     int    `json:"quantity"`
	Mode         string `json:"mode,omitempty"`
	EnforceStock bool   `json:"enforceStock,omitempty"`
}

type setQuantityReq struct {
	Quantity   int `json:"quantity"`
	StockLimit int `json:"stockLimit,omitempty"`
}

type addReviewReq struct {
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (s *Server) getCart(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Cart.Snapshot())
}

func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	size, ok := cart.ParseSize(req.Size)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "bad size", map[string]any{"size": req.Size})
		return
	}

	var mode cart.Mode
	switch req.Mode {
	case "", "merge":
		mode = cart.Merge
	case "replace":
		mode = cart.Replace
	default:
		kit.WriteError(w, r, http.StatusBadRequest, "bad mode", map[string]any{"mode": req.Mode})
		return
	}

	p, err := s.Catalog.GetProduct(r.Context(), req.ID)
	if err != nil {
		s.writeCatalogError(w, r, err, req.ID)
		return
	}

	ceiling := 0
	if req.EnforceStock {
		ceiling = p.Stock
	}

	st, perr := s.Cart.AddOrUpdate(cart.Line{
		ProductID: p.ID,
		Title:     p.Title,
		UnitPrice: p.Price,
		Size:      size,
		Quantity:  req.Quantity,
		Image:     p.Thumbnail,
	}, mode, ceiling)

	s.writeMutation(w, http.StatusOK, "cart", st, perr)
}

func (s *Server) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	id, size, ok := cartLineParams(w, r)
	if !ok {
		return
	}

	var req setQuantityReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	st, perr := s.Cart.SetQuantity(id, size, req.Quantity, req.StockLimit)
	s.writeMutation(w, http.StatusOK, "cart", st, perr)
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, size, ok := cartLineParams(w, r)
	if !ok {
		return
	}

	st, perr := s.Cart.Remove(id, size)
	s.writeMutation(w, http.StatusOK, "cart", st, perr)
}

func (s *Server) clearCart(w http.ResponseWriter, _ *http.Request) {
	st, perr := s.Cart.Clear()
	s.writeMutation(w, http.StatusOK, "cart", st, perr)
}

func (s *Server) getCompare(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Compare.Snapshot())
}

func (s *Server) addCompare(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	p, err := s.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		s.writeCatalogError(w, r, err, id)
		return
	}

	outcome, st, perr := s.Compare.Add(compare.Entry{
		ProductID:   p.ID,
		Title:       p.Title,
		Brand:       p.Brand,
		Price:       p.Price,
		Discount:    p.Discount,
		Rating:      p.Rating,
		Stock:       p.Stock,
		Category:    p.Category,
		Description: p.Description,
		Thumbnail:   p.Thumbnail,
	})

	status := http.StatusCreated
	if outcome != compare.Added {
		// Rejections are deliberate no-ops, reported so the UI can
		// tell "already there" from "no room left".
		status = http.StatusConflict
	}
	s.writeOutcome(w, status, outcome, st, perr)
}

func (s *Server) removeCompare(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	st, perr := s.Compare.Remove(id)
	s.writeMutation(w, http.StatusOK, "compare", st, perr)
}

func (s *Server) clearCompare(w http.ResponseWriter, _ *http.Request) {
	st, perr := s.Compare.Clear()
	s.writeMutation(w, http.StatusOK, "compare", st, perr)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	p, err := s.Catalog.GetProduct(r.Context(), id)
	if err == catalog.ErrNotFound {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	if err != nil {
		s.writeCatalogError(w, r, err, id)
		return
	}

	// Viewing a product is what feeds the recently-viewed strip.
	if _, perr := s.Recent.Touch(p.ID); perr != nil {
		s.countPersistFailure("recent")
	}

	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			kit.WriteError(w, r, http.StatusBadRequest, "bad limit", nil)
			return
		}
		limit = n
	}

	var (
		ps  []catalog.Product
		err error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		ps, err = s.Catalog.ListCategory(r.Context(), category, limit)
	} else {
		ps, err = s.Catalog.List(r.Context(), limit)
	}
	if err != nil {
		s.writeCatalogError(w, r, err, 0)
		return
	}

	kit.WriteJSON(w, http.StatusOK, ps)
}

func (s *Server) getRecent(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Recent.List())
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Reviews.List(id))
}

func (s *Server) addReview(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	var req addReviewReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	rv, err := s.Reviews.Add(id, req.Name, req.Rating, req.Comment)
	switch {
	case errors.Is(err, review.ErrBadRating), errors.Is(err, review.ErrEmptyField):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	case err != nil:
		s.Log.Error("store review failed", zap.Error(err), zap.Int("product_id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, rv)
}

// mutationResponse carries the post-mutation snapshot. PersistWarning
// is set when the change took effect in memory but did not reach
// storage; the UI should warn that it is session-only.
type mutationResponse struct {
	State          any    `json:"state"`
	Outcome        string `json:"outcome,omitempty"`
	PersistWarning string `json:"persist_warning,omitempty"`
}

func (s *Server) writeMutation(w http.ResponseWriter, status int, store string, state any, perr error) {
	resp := mutationResponse{State: state}
	if perr != nil {
		s.countPersistFailure(store)
		resp.PersistWarning = perr.Error()
	}
	kit.WriteJSON(w, status, resp)
}

func (s *Server) writeOutcome(w http.ResponseWriter, status int, outcome compare.Outcome, state any, perr error) {
	resp := mutationResponse{State: state, Outcome: outcome.String()}
	if perr != nil {
		s.countPersistFailure("compare")
		resp.PersistWarning = perr.Error()
	}
	kit.WriteJSON(w, status, resp)
}

func (s *Server) writeCatalogError(w http.ResponseWriter, r *http.Request, err error, id int) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		kit.WriteError(w, r, http.StatusBadRequest, "unknown product", map[string]any{"id": id})
	case errors.Is(err, catalog.ErrUnavailable):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
	default:
		if s.Log != nil {
			s.Log.Warn("catalog error", zap.Error(err), zap.Int("product_id", id))
		}
		kit.WriteError(w, r, http.StatusBadGateway, "catalog error", nil)
	}
}

func (s *Server) countPersistFailure(store string) {
	if s.persistFailures != nil {
		s.persistFailures.WithLabelValues(store).Inc()
	}
}

func cartLineParams(w http.ResponseWriter, r *http.Request) (int, cart.Size, bool) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return 0, "", false
	}
	size, ok := cart.ParseSize(chi.URLParam(r, "size"))
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "bad size", map[string]any{"size": chi.URLParam(r, "size")})
		return 0, "", false
	}
	return id, size, true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad "+name, nil)
		return 0, false
	}
	return v, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}
