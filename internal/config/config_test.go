package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}

	if cfg.AppEnv != EnvDev {
		t.Fatalf("expected dev env, got %s", cfg.AppEnv)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected http addr %s", cfg.HTTPAddr)
	}
	if cfg.SnapshotBackend != SnapshotBackendFile {
		t.Fatalf("expected file snapshot backend, got %s", cfg.SnapshotBackend)
	}
	if len(cfg.SyncCountries) == 0 {
		t.Fatalf("sync countries must default to a non-empty list")
	}
	if cfg.AcceptThreshold != 0.8 || cfg.ReviewThreshold != 0.6 || cfg.VerifyThreshold != 0.9 {
		t.Fatalf("unexpected threshold defaults: %f %f %f",
			cfg.AcceptThreshold, cfg.ReviewThreshold, cfg.VerifyThreshold)
	}
	if cfg.IncrementalLookAhead != 168*time.Hour {
		t.Fatalf("unexpected look-ahead default %v", cfg.IncrementalLookAhead)
	}
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	if _, err := Load(); err == nil {
		t.Fatalf("expected invalid APP_ENV to fail")
	}
}

func TestLoadRejectsBadThresholds(t *testing.T) {
	t.Setenv("MATCH_REVIEW_THRESHOLD", "0.95")
	if _, err := Load(); err == nil {
		t.Fatalf("review threshold above accept must fail")
	}
}

func TestLoadRequiresAPIKeyWhenProviderEnabled(t *testing.T) {
	t.Setenv("SPORTSFEED_ENABLED", "true")
	t.Setenv("SPORTSFEED_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatalf("enabled provider without api key must fail")
	}
}

func TestLoadRejectsUnknownSnapshotBackend(t *testing.T) {
	t.Setenv("SNAPSHOT_BACKEND", "redis")
	if _, err := Load(); err == nil {
		t.Fatalf("unknown snapshot backend must fail")
	}
}
