package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the ragfleet service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Model    ModelConfig    `yaml:"model"`
	Worker   WorkerConfig   `yaml:"worker"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Query    QueryConfig    `yaml:"query"`
	Vault    VaultConfig    `yaml:"vault"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// ModelConfig holds embedding and generation model settings.
type ModelConfig struct {
	BaseURL         string `yaml:"base_url"` // empty uses the provider default
	EmbeddingModel  string `yaml:"embedding_model"`
	GenerationModel string `yaml:"generation_model"`
	Dimensions      int    `yaml:"dimensions"`
	TimeoutSec      int    `yaml:"timeout_sec"`
}

// WorkerConfig holds worker lifecycle settings.
type WorkerConfig struct {
	StopGraceSec       int `yaml:"stop_grace_sec"`
	SpawnTimeoutSec    int `yaml:"spawn_timeout_sec"`
	RespawnConcurrency int `yaml:"respawn_concurrency"`
}

// IngestConfig holds document ingestion settings.
type IngestConfig struct {
	MaxArchiveBytes int64 `yaml:"max_archive_bytes"`
	MaxFileBytes    int64 `yaml:"max_file_bytes"`
	ChunkSize       int   `yaml:"chunk_size"`
	ChunkOverlap    int   `yaml:"chunk_overlap"`
	PoolSize        int   `yaml:"pool_size"`
	HNSWM           int   `yaml:"hnsw_m"`
	HNSWEFConstruct int   `yaml:"hnsw_ef_construction"`
}

// QueryConfig holds retrieval settings.
type QueryConfig struct {
	TopK             int `yaml:"top_k"`
	MaxContextChars  int `yaml:"max_context_chars"`
	MaxQuestionChars int `yaml:"max_question_chars"`
}

// VaultConfig holds credential encryption settings.
type VaultConfig struct {
	MasterKeyHex string `yaml:"master_key_hex"` // 64 hex chars (32 bytes)
}

// MasterKey decodes the configured master key.
func (v VaultConfig) MasterKey() ([]byte, error) {
	key, err := hex.DecodeString(v.MasterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("vault.master_key_hex is not valid hex: %w", err)
	}
	return key, nil
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Model.EmbeddingModel == "" {
		c.Model.EmbeddingModel = "text-embedding-3-small"
	}
	if c.Model.GenerationModel == "" {
		c.Model.GenerationModel = "gpt-4o-mini"
	}
	if c.Model.Dimensions <= 0 {
		c.Model.Dimensions = 1536
	}
	if c.Model.TimeoutSec <= 0 {
		c.Model.TimeoutSec = 60
	}
	if c.Worker.StopGraceSec <= 0 {
		c.Worker.StopGraceSec = 5
	}
	if c.Worker.SpawnTimeoutSec <= 0 {
		c.Worker.SpawnTimeoutSec = 30
	}
	if c.Worker.RespawnConcurrency <= 0 {
		c.Worker.RespawnConcurrency = 16
	}
	if c.Ingest.MaxArchiveBytes <= 0 {
		c.Ingest.MaxArchiveBytes = 50 << 20
	}
	if c.Ingest.MaxFileBytes <= 0 {
		c.Ingest.MaxFileBytes = 10 << 20
	}
	if c.Ingest.ChunkSize <= 0 {
		c.Ingest.ChunkSize = 1000
	}
	if c.Ingest.ChunkOverlap <= 0 {
		c.Ingest.ChunkOverlap = 200
	}
	if c.Ingest.PoolSize <= 0 {
		c.Ingest.PoolSize = 4
	}
	if c.Ingest.HNSWM <= 0 {
		c.Ingest.HNSWM = 16
	}
	if c.Ingest.HNSWEFConstruct <= 0 {
		c.Ingest.HNSWEFConstruct = 200
	}
	if c.Query.TopK <= 0 {
		c.Query.TopK = 5
	}
	if c.Query.MaxContextChars <= 0 {
		c.Query.MaxContextChars = 12000
	}
	if c.Query.MaxQuestionChars <= 0 {
		c.Query.MaxQuestionChars = 4000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Vault.MasterKeyHex == "" {
		return fmt.Errorf("vault.master_key_hex is required")
	}
	key, err := c.Vault.MasterKey()
	if err != nil {
		return err
	}
	if len(key) != 32 {
		return fmt.Errorf("vault.master_key_hex must decode to 32 bytes, got %d", len(key))
	}
	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf(
			"ingest.chunk_overlap must be smaller than ingest.chunk_size, got %d >= %d",
			c.Ingest.ChunkOverlap, c.Ingest.ChunkSize,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
