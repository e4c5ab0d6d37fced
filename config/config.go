// Package config holds process configuration: service settings resolved from
// the environment (optionally overridden by a subtrans.yaml file) and the
// immutable tuning artifact produced by the offline parameter tuner.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Service holds process-level settings: where to listen, which backend to
// call, and which model to ask for. Resolved once at startup.
type Service struct {
	// Port is the HTTP API listen port.
	Port int `yaml:"port"`
	// BackendHost and BackendPort locate the Ollama-style backend.
	BackendHost string `yaml:"backend_host"`
	BackendPort int    `yaml:"backend_port"`
	// Model is the backend model identifier.
	Model string `yaml:"model"`
	// Encoding is the token-counting encoding identifier, passed through to
	// the injected token counter.
	Encoding string `yaml:"encoding"`
	// SafeChunkTokens is the per-chunk token budget for document chunking.
	SafeChunkTokens int `yaml:"safe_chunk_tokens"`
	// RequestTimeout bounds each backend call.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// LogLevel controls server log verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// BackendURL returns the backend's generate endpoint base.
func (s Service) BackendURL() string {
	return fmt.Sprintf("http://%s:%d", s.BackendHost, s.BackendPort)
}

// Load resolves service settings from environment variables with fixed
// fallbacks. If path is non-empty and the file exists, its values override
// the environment-derived ones.
func Load(path string) (Service, error) {
	svc := Service{
		Port:            envInt("SUBTRANS_PORT", 8000),
		BackendHost:     envStr("OLLAMA_HOST", "ollama"),
		BackendPort:     envInt("OLLAMA_PORT", 11434),
		Model:           envStr("OLLAMA_MODEL", "tibellium/towerinstruct-mistral"),
		Encoding:        envStr("SUBTRANS_ENCODING", "cl100k_base"),
		SafeChunkTokens: envInt("SUBTRANS_CHUNK_TOKENS", 256),
		RequestTimeout:  envDuration("SUBTRANS_TIMEOUT", 120*time.Second),
		LogLevel:        envStr("SUBTRANS_LOG_LEVEL", "info"),
	}

	if path == "" {
		return svc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return svc, nil
		}
		return svc, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &svc); err != nil {
		return svc, fmt.Errorf("parsing %s: %w", path, err)
	}
	return svc, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
