package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Vault: VaultConfig{
			MasterKeyHex: strings.Repeat("ab", 32),
		},
		Ingest: IngestConfig{ChunkSize: 1000, ChunkOverlap: 200},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_MissingMasterKey(t *testing.T) {
	cfg := validConfig()
	cfg.Vault.MasterKeyHex = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing master key")
	}
}

func TestValidate_BadMasterKey(t *testing.T) {
	cfg := validConfig()

	cfg.Vault.MasterKeyHex = "not-hex"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-hex master key")
	}

	cfg.Vault.MasterKeyHex = "abcd" // 2 bytes
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for short master key")
	}
}

func TestValidate_OverlapExceedsChunkSize(t *testing.T) {
	cfg := validConfig()
	cfg.Ingest.ChunkSize = 100
	cfg.Ingest.ChunkOverlap = 100

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for overlap >= chunk size")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Model.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Model.Dimensions)
	}
	if cfg.Worker.StopGraceSec != 5 {
		t.Errorf("expected StopGraceSec=5, got %d", cfg.Worker.StopGraceSec)
	}
	if cfg.Ingest.ChunkSize != 1000 {
		t.Errorf("expected ChunkSize=1000, got %d", cfg.Ingest.ChunkSize)
	}
	if cfg.Ingest.ChunkOverlap != 200 {
		t.Errorf("expected ChunkOverlap=200, got %d", cfg.Ingest.ChunkOverlap)
	}
	if cfg.Ingest.HNSWM != 16 {
		t.Errorf("expected HNSWM=16, got %d", cfg.Ingest.HNSWM)
	}
	if cfg.Ingest.HNSWEFConstruct != 200 {
		t.Errorf("expected HNSWEFConstruct=200, got %d", cfg.Ingest.HNSWEFConstruct)
	}
	if cfg.Query.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Query.TopK)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 5, WriteTimeoutSec: 15, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Ingest:   IngestConfig{ChunkSize: 500, ChunkOverlap: 50, PoolSize: 8},
		Query:    QueryConfig{TopK: 3},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 5 {
		t.Errorf("expected ReadTimeoutSec=5, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Ingest.ChunkSize != 500 {
		t.Errorf("expected ChunkSize=500, got %d", cfg.Ingest.ChunkSize)
	}
	if cfg.Ingest.PoolSize != 8 {
		t.Errorf("expected PoolSize=8, got %d", cfg.Ingest.PoolSize)
	}
	if cfg.Query.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.Query.TopK)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RAGFLEET_TEST_PORT", "9090")

	in := []byte("port: ${RAGFLEET_TEST_PORT}\nhost: ${RAGFLEET_TEST_HOST:-localhost}")
	out := string(expandEnvVars(in))

	if out != "port: 9090\nhost: localhost" {
		t.Errorf("unexpected expansion: %q", out)
	}
}
