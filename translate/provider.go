package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Provider kinds. Ollama is the native backend; OpenAI covers any
// chat-completions-compatible endpoint.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Provider describes an LLM backend endpoint.
type Provider struct {
	ID      string
	Name    string
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func (p Provider) effectiveTimeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return 120 * time.Second
}

func (p Provider) kind() string {
	if p.ID == "" {
		return ProviderOllama
	}
	return p.ID
}

// OllamaProvider builds a Provider for a local or remote Ollama instance.
func OllamaProvider(baseURL, model string, timeout time.Duration) Provider {
	return Provider{
		ID:      ProviderOllama,
		Name:    "Ollama",
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Timeout: timeout,
	}
}

// OpenAIProvider builds a Provider for an OpenAI-compatible endpoint.
func OpenAIProvider(baseURL, apiKey, model string, timeout time.Duration) Provider {
	return Provider{
		ID:      ProviderOpenAI,
		Name:    "OpenAI-compatible",
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		Timeout: timeout,
	}
}

// generate performs a single non-streaming completion request and returns
// the raw response text. Transient failures (transport errors, non-2xx)
// come back as *transientError so the retry loop can distinguish them.
func (p Provider) generate(ctx context.Context, prompt string, params sampling) (string, error) {
	endpoint, body, err := p.buildRequest(prompt, params)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.kind() == ProviderOpenAI && p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	client := &http.Client{Timeout: p.effectiveTimeout()}
	resp, err := client.Do(req)
	if err != nil {
		return "", &transientError{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", &transientError{err: err}
	}

	if resp.StatusCode != http.StatusOK {
		// Any non-success status is worth another attempt: Ollama answers
		// 404 while a model is still loading.
		err := fmt.Errorf("%s returned status %d: %s", p.Name, resp.StatusCode, truncate(string(data), 200))
		return "", &transientError{err: err}
	}

	return p.extractResponseText(data)
}

func (p Provider) buildRequest(prompt string, params sampling) (string, []byte, error) {
	switch p.kind() {
	case ProviderOpenAI:
		payload := map[string]any{
			"model": p.Model,
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
			"temperature": params.Temperature,
			"top_p":       params.TopP,
			"max_tokens":  params.NumPredict,
			"stream":      false,
		}
		body, err := json.Marshal(payload)
		return p.BaseURL + "/v1/chat/completions", body, err
	default:
		payload := map[string]any{
			"model":  p.Model,
			"prompt": prompt,
			"stream": false,
			"options": map[string]any{
				"temperature":    params.Temperature,
				"top_p":          params.TopP,
				"top_k":          params.TopK,
				"repeat_penalty": params.RepeatPenalty,
				"num_predict":    params.NumPredict,
			},
		}
		body, err := json.Marshal(payload)
		return p.BaseURL + "/api/generate", body, err
	}
}

func (p Provider) extractResponseText(data []byte) (string, error) {
	switch p.kind() {
	case ProviderOpenAI:
		var parsed struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(data, &parsed); err != nil {
			return "", fmt.Errorf("decoding %s response: %w", p.Name, err)
		}
		if len(parsed.Choices) == 0 {
			return "", fmt.Errorf("%s response has no choices", p.Name)
		}
		return parsed.Choices[0].Message.Content, nil
	default:
		var parsed struct {
			Response string `json:"response"`
			Error    string `json:"error"`
		}
		if err := json.Unmarshal(data, &parsed); err != nil {
			return "", fmt.Errorf("decoding %s response: %w", p.Name, err)
		}
		if parsed.Error != "" {
			return "", fmt.Errorf("%s error: %s", p.Name, parsed.Error)
		}
		return parsed.Response, nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
