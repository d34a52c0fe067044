package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Batch.Size != 50 {
		t.Errorf("Batch.Size = %d, want 50", cfg.Batch.Size)
	}
	if cfg.Batch.Interval != 500*time.Millisecond {
		t.Errorf("Batch.Interval = %v, want 500ms", cfg.Batch.Interval)
	}
	if cfg.Segmenter.Shards != 16 {
		t.Errorf("Segmenter.Shards = %d, want 16", cfg.Segmenter.Shards)
	}
	if cfg.BM25.K1 != 1.2 || cfg.BM25.B != 0.75 {
		t.Errorf("BM25 = %+v, want k1=1.2 b=0.75", cfg.BM25)
	}
	if cfg.Kafka.Topics.PostingEvents != "posting-events" {
		t.Errorf("posting events topic = %q", cfg.Kafka.Topics.PostingEvents)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: 9000\nbatch:\n  size: 100\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("SE_BATCH_SIZE", "25")
	t.Setenv("SE_POSTGRES_HOST", "db.internal")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000 from file", cfg.Server.Port)
	}
	// Environment wins over the file.
	if cfg.Batch.Size != 25 {
		t.Errorf("Batch.Size = %d, want 25 from env", cfg.Batch.Size)
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Errorf("Postgres.Host = %q, want env override", cfg.Postgres.Host)
	}
	// Untouched sections keep their defaults.
	if cfg.Search.DefaultLimit != 10 {
		t.Errorf("Search.DefaultLimit = %d, want 10", cfg.Search.DefaultLimit)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("Load of missing file did not error")
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "localhost", Port: 5432,
		User: "u", Password: "p", Database: "d", SSLMode: "disable",
	}
	want := "host=localhost port=5432 user=u password=p dbname=d sslmode=disable"
	if got := p.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
