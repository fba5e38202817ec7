package main

import (
	"io"
	stdlog "log"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Shopfront/internal/cart"
	"Shopfront/internal/catalog"
	"Shopfront/internal/compare"
	"Shopfront/internal/config"
	"Shopfront/internal/recent"
	"Shopfront/internal/review"
	"Shopfront/internal/storefront"
	"Shopfront/pkg/kit"
)

func main() {
	service := "storefront"

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("config: %v", err)
	}

	log := kit.NewLogger(service, cfg.Debug)
	defer func() { _ = log.Sync() }()

	kv, err := cfg.OpenStorage()
	if err != nil {
		log.Fatal("open storage", zap.Error(err))
	}
	if c, ok := kv.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	s := &storefront.Server{
		Cart:    cart.NewStore(kv, log),
		Compare: compare.NewStore(kv, log),
		Reviews: review.NewStore(kv, log),
		Recent:  recent.NewStore(kv, log),
		Catalog: catalog.NewClient(cfg.CatalogURL),
		KV:      kv,
		Log:     log,
	}

	h := storefront.NewHandler(s, storefront.HTTPDeps{
		Log:      log,
		Service:  service,
		Registry: prometheus.NewRegistry(),

		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,

		ReviewLimit:       cfg.ReviewRateLimit,
		ReviewLimitWindow: cfg.ReviewRateWindow,
	})

	if err := kit.RunHTTPServer(cfg.Addr, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
