package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Tuning is the backend parameter set produced by the offline evolutionary
// tuner. It is loaded once at process start and treated as read-only for the
// lifetime of every translation run; pipelines receive it by value.
type Tuning struct {
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p"`
	TopK           int     `json:"top_k"`
	RepeatPenalty  float64 `json:"repeat_penalty"`
	MaxTokens      int     `json:"max_tokens"`
	ChunkSize      int     `json:"chunk_size"`
	PromptTemplate string  `json:"prompt_template"`
}

// DefaultTuning returns the fixed fallback parameter set used when no tuning
// artifact is present.
func DefaultTuning() Tuning {
	return Tuning{
		Temperature:    0.05,
		TopP:           0.95,
		TopK:           20,
		RepeatPenalty:  1.15,
		MaxTokens:      4000,
		ChunkSize:      10,
		PromptTemplate: "stand_authority",
	}
}

// LoadTuning reads the tuning artifact from path. A missing file is not an
// error: the defaults are returned, matching the artifact's role as an
// optional optimization.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("reading tuning artifact: %w", err)
	}

	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parsing tuning artifact %s: %w", path, err)
	}

	// Partial artifacts keep defaults for absent fields, but zeroed fields
	// written explicitly would break sampling; reject obvious nonsense.
	if t.MaxTokens <= 0 || t.ChunkSize < 0 {
		return DefaultTuning(), fmt.Errorf("tuning artifact %s has invalid budget values", path)
	}
	if t.PromptTemplate == "" {
		t.PromptTemplate = DefaultTuning().PromptTemplate
	}
	return t, nil
}
