package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "PATHSTORE_URL", "WORKER_COUNT", "JOB_TTL", "STATS_WINDOW", "DESCRIPTOR_DIR", "DEFAULT_CHUNK_OVERLAP"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != time.Hour || cfg.StatsWindow != time.Hour {
		t.Errorf("expected hour ttl and window, got %v and %v", cfg.JobTTL, cfg.StatsWindow)
	}
	if cfg.DescriptorDir != "descriptors" {
		t.Errorf("expected descriptors dir, got %q", cfg.DescriptorDir)
	}
	if cfg.PublishingEnabled() {
		t.Error("expected publishing disabled without PATHSTORE_URL")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("JOB_TTL", "15m")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("DEFAULT_CHUNK_OVERLAP", "0")
	t.Setenv("PATHSTORE_URL", "http://pathstore:8080")

	cfg := Load()
	if cfg.WorkerCount != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != 15*time.Minute {
		t.Errorf("expected 15m ttl, got %v", cfg.JobTTL)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Errorf("expected 1024 upload bytes, got %d", cfg.MaxUploadBytes)
	}
	if cfg.DefaultChunkOverlap != 0 {
		t.Errorf("expected zero overlap to be kept, got %d", cfg.DefaultChunkOverlap)
	}
	if !cfg.PublishingEnabled() {
		t.Error("expected publishing enabled")
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "lots")
	t.Setenv("JOB_TTL", "-5m")
	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("expected fallback of 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected fallback ttl, got %v", cfg.JobTTL)
	}
}

func TestValidate(t *testing.T) {
	base := Config{DocgraphAPIKey: "k", DefaultChunkSize: 1500, DefaultChunkOverlap: 200}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing api key", func(c *Config) { c.DocgraphAPIKey = "" }, true},
		{"pathstore without key", func(c *Config) { c.PathstoreURL = "http://x" }, true},
		{"pathstore with key", func(c *Config) { c.PathstoreURL = "http://x"; c.PathstoreAPIKey = "p" }, false},
		{"overlap too large", func(c *Config) { c.DefaultChunkOverlap = 1500 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
