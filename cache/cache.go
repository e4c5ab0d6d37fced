// Package cache implements a small translation memory: translated
// fragments are stored keyed by language pair and an MD5 digest of the
// source text, so re-running a file only sends new or changed lines to
// the backend.
//
// The cache file lives in the subtrans data directory as subtrans.cache.
package cache

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileName is the default cache file name.
const FileName = "subtrans.cache"

// Version is the cache file format version.
const Version = 1

// Memory is the on-disk translation memory.
type Memory struct {
	Version int                          `yaml:"version"`
	Entries map[string]map[string]string `yaml:"entries"` // lang pair -> md5(source) -> translation

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// Load reads the cache from the given directory. A missing file yields an
// empty cache.
func Load(dir string) (*Memory, error) {
	path := filepath.Join(dir, FileName)
	m := &Memory{
		Version: Version,
		Entries: make(map[string]map[string]string),
		path:    path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	m.path = path

	if m.Entries == nil {
		m.Entries = make(map[string]map[string]string)
	}

	return m, nil
}

// Save writes the cache to disk.
func (m *Memory) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.path == "" {
		return fmt.Errorf("cache path not set")
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", m.path, err)
	}

	return nil
}

// Path returns the cache file path.
func (m *Memory) Path() string {
	return m.path
}

// Hash computes the MD5 hex digest of a source string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// Pair builds the language-pair key.
func Pair(sourceLang, targetLang string) string {
	return sourceLang + ">" + targetLang
}

// Get looks up a cached translation for a source text.
func (m *Memory) Get(pair, source string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, ok := m.Entries[pair]
	if !ok {
		return "", false
	}
	tr, ok := entries[Hash(source)]
	return tr, ok
}

// Put records a translation for a source text.
func (m *Memory) Put(pair, source, translation string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Entries[pair] == nil {
		m.Entries[pair] = make(map[string]string)
	}
	m.Entries[pair][Hash(source)] = translation
}

// PutBatch records translations for aligned source/translation slices.
// Entries whose translation equals the source are skipped: the pipeline
// passes originals through on failure, and caching those would freeze the
// failure.
func (m *Memory) PutBatch(pair string, sources, translations []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Entries[pair] == nil {
		m.Entries[pair] = make(map[string]string)
	}
	for i, src := range sources {
		if i >= len(translations) || translations[i] == src {
			continue
		}
		m.Entries[pair][Hash(src)] = translations[i]
	}
}

// RemovePair drops all entries for a language pair.
func (m *Memory) RemovePair(pair string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Entries, pair)
}

// Stats returns the number of language pairs and total cached entries.
func (m *Memory) Stats() (pairs, entries int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pairs = len(m.Entries)
	for _, e := range m.Entries {
		entries += len(e)
	}
	return pairs, entries
}
