package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"SUBTRANS_PORT", "OLLAMA_HOST", "OLLAMA_PORT", "OLLAMA_MODEL",
		"SUBTRANS_ENCODING", "SUBTRANS_CHUNK_TOKENS", "SUBTRANS_TIMEOUT",
		"SUBTRANS_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	svc, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if svc.Port != 8000 {
		t.Errorf("Port = %d, want 8000", svc.Port)
	}
	if svc.BackendHost != "ollama" || svc.BackendPort != 11434 {
		t.Errorf("backend = %s:%d", svc.BackendHost, svc.BackendPort)
	}
	if svc.Model != "tibellium/towerinstruct-mistral" {
		t.Errorf("Model = %q", svc.Model)
	}
	if svc.SafeChunkTokens != 256 {
		t.Errorf("SafeChunkTokens = %d", svc.SafeChunkTokens)
	}
	if svc.RequestTimeout != 120*time.Second {
		t.Errorf("RequestTimeout = %v", svc.RequestTimeout)
	}
	if svc.BackendURL() != "http://ollama:11434" {
		t.Errorf("BackendURL = %q", svc.BackendURL())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "localhost")
	t.Setenv("OLLAMA_PORT", "12345")
	t.Setenv("SUBTRANS_TIMEOUT", "30s")

	svc, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if svc.BackendURL() != "http://localhost:12345" {
		t.Errorf("BackendURL = %q", svc.BackendURL())
	}
	if svc.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v", svc.RequestTimeout)
	}
}

func TestLoad_YAMLFileOverridesEnv(t *testing.T) {
	t.Setenv("OLLAMA_MODEL", "env-model")

	path := filepath.Join(t.TempDir(), "subtrans.yaml")
	if err := os.WriteFile(path, []byte("model: file-model\nport: 9000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if svc.Model != "file-model" {
		t.Errorf("Model = %q, want file-model", svc.Model)
	}
	if svc.Port != 9000 {
		t.Errorf("Port = %d, want 9000", svc.Port)
	}
	// Values absent from the file keep their env/default resolution.
	if svc.BackendHost != "ollama" {
		t.Errorf("BackendHost = %q", svc.BackendHost)
	}
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Errorf("missing file should fall back to env defaults, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// LoadTuning
// ---------------------------------------------------------------------------

func TestLoadTuning_MissingFileReturnsDefaults(t *testing.T) {
	tun, err := LoadTuning(filepath.Join(t.TempDir(), "optimal_config.json"))
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}
	if tun != DefaultTuning() {
		t.Errorf("got %+v, want defaults", tun)
	}
}

func TestLoadTuning_ReadsArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "optimal_config.json")
	artifact := `{"temperature":0.2,"top_p":0.9,"top_k":40,"repeat_penalty":1.1,"max_tokens":2048,"chunk_size":5,"prompt_template":"stand_authority"}`
	if err := os.WriteFile(path, []byte(artifact), 0o644); err != nil {
		t.Fatal(err)
	}

	tun, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}
	if tun.Temperature != 0.2 || tun.TopK != 40 || tun.ChunkSize != 5 {
		t.Errorf("got %+v", tun)
	}
}

func TestLoadTuning_RejectsBrokenArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "optimal_config.json")
	if err := os.WriteFile(path, []byte(`{"max_tokens":0}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tun, err := LoadTuning(path)
	if err == nil {
		t.Error("expected error for zeroed max_tokens")
	}
	if tun != DefaultTuning() {
		t.Errorf("broken artifact should fall back to defaults, got %+v", tun)
	}
}

func TestLoadTuning_GarbageJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "optimal_config.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTuning(path); err == nil {
		t.Error("expected parse error")
	}
}
