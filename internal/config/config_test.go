package config

import "testing"

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.Storage != "file" {
		t.Fatalf("Storage = %q", cfg.Storage)
	}
	if cfg.ReviewRateLimit != 5 || cfg.ReviewRateWindow != 60 {
		t.Fatalf("review limits: %+v", cfg)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("ADDR", ":9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage != "memory" || cfg.Addr != ":9999" {
		t.Fatalf("overrides ignored: %+v", cfg)
	}

	kv, err := cfg.OpenStorage()
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	if err := kv.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestUnknownBackend(t *testing.T) {
	cfg := Config{Storage: "postgres"}
	if _, err := cfg.OpenStorage(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
