package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashDeterministic(t *testing.T) {
	h1 := Hash("hello world")
	h2 := Hash("hello world")
	if h1 != h2 {
		t.Errorf("Hash not deterministic: %s != %s", h1, h2)
	}
	h3 := Hash("different")
	if h1 == h3 {
		t.Errorf("Hash collision: %s == %s", h1, h3)
	}
}

func TestLoadNonExistent(t *testing.T) {
	m, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error for non-existent file: %v", err)
	}
	if m.Version != Version {
		t.Errorf("Version = %d, want %d", m.Version, Version)
	}
	if len(m.Entries) != 0 {
		t.Errorf("Entries not empty: %v", m.Entries)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	pair := Pair("en", "pt-br")
	m.Put(pair, "Hello", "Olá")
	m.Put(pair, "Goodbye", "Adeus")
	m.Put(Pair("en", "es"), "Hello", "Hola")

	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, FileName)); os.IsNotExist(err) {
		t.Fatalf("cache file not created")
	}

	m2, err := Load(dir)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}

	if got, ok := m2.Get(pair, "Hello"); !ok || got != "Olá" {
		t.Fatalf("Get(Hello) = %q, %v", got, ok)
	}
	if got, ok := m2.Get(Pair("en", "es"), "Hello"); !ok || got != "Hola" {
		t.Fatalf("Get(es, Hello) = %q, %v", got, ok)
	}
	if _, ok := m2.Get(pair, "Unknown"); ok {
		t.Fatal("expected miss for unknown source")
	}
}

func TestPutBatchSkipsPassThrough(t *testing.T) {
	m, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	pair := Pair("en", "pt-br")
	sources := []string{"Hello", "Failed line", "Goodbye"}
	translations := []string{"Olá", "Failed line", "Adeus"}

	m.PutBatch(pair, sources, translations)

	if _, ok := m.Get(pair, "Failed line"); ok {
		t.Fatal("pass-through entry must not be cached")
	}
	if got, ok := m.Get(pair, "Goodbye"); !ok || got != "Adeus" {
		t.Fatalf("Get(Goodbye) = %q, %v", got, ok)
	}

	pairs, entries := m.Stats()
	if pairs != 1 || entries != 2 {
		t.Fatalf("Stats() = %d, %d", pairs, entries)
	}
}

func TestRemovePair(t *testing.T) {
	m, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	pair := Pair("en", "pt-br")
	m.Put(pair, "Hello", "Olá")
	m.RemovePair(pair)

	if _, ok := m.Get(pair, "Hello"); ok {
		t.Fatal("expected pair removed")
	}
}

func TestLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(":\tnope"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected parse error")
	}
}
