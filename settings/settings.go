// Package settings provides file-backed storage for subtrans user settings.
//
// Everything lives in the XDG data directory:
//
//	$XDG_DATA_HOME/subtrans/  (default: ~/.local/share/subtrans/)
//
// Files stored:
//   - auth.json     — API keys for OpenAI-compatible backends
//   - prompts.json  — prompt template overrides
//   - tuning.json   — sampling parameter overrides
//
// auth.json is written with 0600 permissions.
//
// Lookup order for API keys:
//  1. --api-key flag (highest priority)
//  2. SUBTRANS_API_KEY environment variable
//  3. This store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dataDirName = "subtrans"
	authFile    = "auth.json"
)

// Credential is one stored backend credential.
type Credential struct {
	Key     string `json:"key"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// Store holds credentials keyed by backend ID.
type Store map[string]*Credential

// ---------------------------------------------------------------------------
// File paths
// ---------------------------------------------------------------------------

// dataDir respects $XDG_DATA_HOME and falls back to ~/.local/share.
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

// DataDir returns the subtrans data directory path.
func DataDir() (string, error) {
	return dataDir()
}

func authPath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, authFile), nil
}

// AuthFilePath returns the auth.json path for display purposes.
func AuthFilePath() string {
	p, err := authPath()
	if err != nil {
		return ""
	}
	return p
}

// PromptsFilePath returns the prompts.json path.
func PromptsFilePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompts.json"), nil
}

// TuningFilePath returns the tuning.json path.
func TuningFilePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tuning.json"), nil
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk. A missing or unreadable file
// yields an empty store.
func Load() Store {
	path, err := authPath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return make(Store)
	}
	if store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := authPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Get / Set / Remove
// ---------------------------------------------------------------------------

// GetAPIKey retrieves the stored API key for a backend, or "" if absent.
func GetAPIKey(backendID string) string {
	if c := Load()[backendID]; c != nil {
		return c.Key
	}
	return ""
}

// GetBaseURL retrieves the stored base URL for a backend, or "" if absent.
func GetBaseURL(backendID string) string {
	if c := Load()[backendID]; c != nil {
		return c.BaseURL
	}
	return ""
}

// SetAPIKey stores an API key for a backend (upsert).
func SetAPIKey(backendID, key string) error {
	return SetAPIKeyWithBaseURL(backendID, key, "")
}

// SetAPIKeyWithBaseURL stores an API key and custom endpoint URL.
func SetAPIKeyWithBaseURL(backendID, key, baseURL string) error {
	store := Load()
	store[backendID] = &Credential{Key: key, BaseURL: baseURL}
	return Save(store)
}

// Remove deletes the credential for a backend.
func Remove(backendID string) error {
	store := Load()
	if _, ok := store[backendID]; !ok {
		return nil
	}
	delete(store, backendID)
	return Save(store)
}

// RemoveAll removes the credential file.
func RemoveAll() error {
	path, err := authPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
