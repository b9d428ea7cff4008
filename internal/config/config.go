package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/nidhogg/mnemo/internal/embedding"
)

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig     `json:"server"`
	Embedding embedding.Config `json:"embedding"`
	Memory    MemoryConfig     `json:"memory"`
	Mirror    MirrorConfig     `json:"mirror"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

// MemoryConfig holds the semantic memory store settings.
type MemoryConfig struct {
	MaxRecords     int     `json:"max_records"`
	DecayDays      float64 `json:"decay_days"`
	ShortTermPairs int     `json:"short_term_pairs"`
	EmbedTimeoutMS int     `json:"embed_timeout_ms"`
	IndexPath      string  `json:"index_path"`
	RecordsPath    string  `json:"records_path"`
}

// MirrorConfig selects the metadata mirror backend.
type MirrorConfig struct {
	Backend  string `json:"backend"` // "file", "redis" or "" for none
	Path     string `json:"path"`
	RedisURL string `json:"redis_url"`
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file, substitutes environment variable
// references, and applies defaults for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Substitute ${VAR} and ${VAR:default} with environment values.
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	var cfg Config
	if err := json.Unmarshal([]byte(resolved), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Embedding.Dimension == 0 {
		c.Embedding.Dimension = 768
	}
	if c.Memory.MaxRecords == 0 {
		c.Memory.MaxRecords = 1000
	}
	if c.Memory.DecayDays == 0 {
		c.Memory.DecayDays = 90
	}
	if c.Memory.ShortTermPairs == 0 {
		c.Memory.ShortTermPairs = 10
	}
	if c.Memory.EmbedTimeoutMS == 0 {
		c.Memory.EmbedTimeoutMS = 5000
	}
	if c.Memory.IndexPath == "" {
		c.Memory.IndexPath = "data/memory_index.bin"
	}
	if c.Memory.RecordsPath == "" {
		c.Memory.RecordsPath = "data/memory_records.json"
	}
	if c.Mirror.Backend == "file" && c.Mirror.Path == "" {
		c.Mirror.Path = "data/memory_metadata.json"
	}
}
