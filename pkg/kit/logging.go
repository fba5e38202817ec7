package kit

import "go.uber.org/zap"

// NewLogger builds a service-scoped logger. debug switches to the
// human-readable development encoder.
func NewLogger(service string, debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.InitialFields = map[string]any{"service": service}
	l, _ := cfg.Build()
	return l
}
