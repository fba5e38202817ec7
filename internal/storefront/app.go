package storefront

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"Shopfront/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// ReviewLimit/ReviewLimitWindow throttle review posting per IP;
	// zero values fall back to the defaults below.
	ReviewLimit       int
	ReviewLimitWindow int
}

const (
	defaultReviewLimit  = 5
	defaultReviewWindow = 60
)

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	setupMiddleware(r, deps)

	if deps.Registry != nil {
		s.persistFailures = newPersistFailures(deps.Registry)
	}
	setupMetricsEndpoint(r, deps)

	r.Mount("/", s.routes(deps))
	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))

	if deps.Registry != nil {
		metrics := kit.NewMetrics(deps.Registry)
		r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))
	}
}

func setupMetricsEndpoint(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil || !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func newPersistFailures(reg *prometheus.Registry) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopfront_persist_failures_total",
			Help: "Mutations whose write-through to storage failed",
		},
		[]string{"store"},
	)
	reg.MustRegister(c)
	return c
}

func (s *Server) routes(deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	// Adapters bound their own ping timeouts, so this stays a direct call.
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := s.KV.Ping(); err != nil {
			if s.Log != nil {
				s.Log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/cart", func(rr chi.Router) {
		rr.Get("/", s.getCart)
		rr.Delete("/", s.clearCart)
		rr.Post("/items", s.addCartItem)
		rr.Put("/items/{id}/{size}", s.setCartQuantity)
		rr.Delete("/items/{id}/{size}", s.removeCartItem)
	})

	r.Route("/compare", func(rr chi.Router) {
		rr.Get("/", s.getCompare)
		rr.Delete("/", s.clearCompare)
		rr.Post("/{id}", s.addCompare)
		rr.Delete("/{id}", s.removeCompare)
	})

	reviewLimit := deps.ReviewLimit
	if reviewLimit <= 0 {
		reviewLimit = defaultReviewLimit
	}
	reviewWindow := deps.ReviewLimitWindow
	if reviewWindow <= 0 {
		reviewWindow = defaultReviewWindow
	}
	reviewLimiter := kit.NewIPRateLimiter(reviewLimit, reviewWindow)

	r.Route("/products", func(rr chi.Router) {
		rr.Get("/", s.listProducts)
		rr.Get("/{id}", s.getProduct)
		rr.Get("/{id}/reviews", s.listReviews)
		rr.With(reviewLimiter.Middleware).Post("/{id}/reviews", s.addReview)
	})

	r.Get("/recent", s.getRecent)

	return r
}
