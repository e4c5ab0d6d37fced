// Package translate implements the subtitle translation pipeline: parse the
// document into fragments and a structure map, pack fragments into
// token-budgeted chunks, send each chunk to the LLM backend with retry and
// response cleaning, and reinsert the results into the original markup.
//
// The pipeline degrades instead of failing: a chunk whose backend calls are
// exhausted passes its original fragments through, so the output is always a
// structurally valid document. The only errors surfaced by the entry points
// are context cancellation.
package translate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/subtrans/subtrans/cache"
	"github.com/subtrans/subtrans/chunk"
	"github.com/subtrans/subtrans/config"
	"github.com/subtrans/subtrans/guard"
	"github.com/subtrans/subtrans/srt"
)

// DetectFunc reports the language code of a text. The real detector is an
// external collaborator; the default assumes English.
type DetectFunc func(text string) string

// Options controls a translation run. The zero value plus a Provider is
// usable; effective* methods supply the defaults.
type Options struct {
	// Provider is the backend configuration.
	Provider Provider
	// Tuning is the immutable sampling parameter set. Zero value means
	// config.DefaultTuning().
	Tuning config.Tuning
	// Encoding is the token-counting encoding identifier.
	Encoding string
	// TokenBudget is the per-chunk token budget for the token-based chunker.
	// Ignored when Tuning.ChunkSize > 0 (count-based override).
	TokenBudget int
	// Counter estimates token costs; nil means chunk.Estimate.
	Counter chunk.Counter
	// Detect resolves a missing source language; nil assumes "en".
	Detect DetectFunc
	// Prompts overrides the built-in prompt templates; nil means defaults.
	Prompts *PromptSet
	// Cache is an optional translation memory consulted before the
	// backend; new translations are recorded into it.
	Cache *cache.Memory
	// MaxRetries is the number of attempts per backend call. Default: 3.
	MaxRetries int
	// RequestDelay is the pause between successive chunk calls, a throttle
	// for the backend rather than a correctness requirement.
	RequestDelay time.Duration
	// MaxConcurrent enables bounded-concurrency chunk processing when > 1.
	// Results are reassembled by chunk index, so ordering is unaffected.
	MaxConcurrent int

	// OnLog emits progress messages.
	OnLog func(format string, args ...any)
	// OnError emits degraded-outcome messages.
	OnError func(format string, args ...any)
	// OnProgress is called after each chunk completes with done/total
	// fragment counts.
	OnProgress func(done, total int)
	// Verbose enables detailed logging.
	Verbose bool
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) effectiveTuning() config.Tuning {
	if o.Tuning == (config.Tuning{}) {
		return config.DefaultTuning()
	}
	return o.Tuning
}

func (o *Options) effectiveMaxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return 3
}

func (o *Options) effectiveTokenBudget() int {
	if o.TokenBudget > 0 {
		return o.TokenBudget
	}
	return 256
}

func (o *Options) effectiveCounter() chunk.Counter {
	if o.Counter != nil {
		return o.Counter
	}
	return chunk.Estimate
}

func (o *Options) effectiveDetect() DetectFunc {
	if o.Detect != nil {
		return o.Detect
	}
	return func(string) string { return "en" }
}

func (o *Options) prompts() *PromptSet {
	if o.Prompts != nil {
		return o.Prompts
	}
	return PromptsFor(o.effectiveTuning().PromptTemplate)
}

// ---------------------------------------------------------------------------
// Document pipeline
// ---------------------------------------------------------------------------

// TranslateDocument runs the full structured pipeline on a subtitle
// document. Malformed blocks are dropped, untranslatable blocks pass
// through, and chunks whose backend calls fail on every retry keep their
// original text. The returned document is always structurally valid; the
// error is non-nil only on context cancellation.
func TranslateDocument(ctx context.Context, document, sourceLang, targetLang string, opts Options) (string, error) {
	fragments, sm := srt.Parse(document)
	if len(fragments) == 0 {
		opts.log("no translatable text found")
		return document, nil
	}

	opts.log("extracted %d text segments from %d subtitle blocks", len(fragments), len(sm))

	translations, err := translateFragments(ctx, fragments, sourceLang, targetLang, opts)
	if err != nil {
		return document, err
	}

	return srt.Reconstruct(translations, sm), nil
}

// translateFragments translates a fragment list, preserving length and
// order. Cached fragments are filled in first; only the misses go through
// the chunked backend path.
func translateFragments(ctx context.Context, fragments []string, sourceLang, targetLang string, opts Options) ([]string, error) {
	if opts.Cache == nil {
		return translatePending(ctx, fragments, sourceLang, targetLang, opts)
	}

	pair := cache.Pair(sourceLang, targetLang)
	out := make([]string, len(fragments))

	var (
		pending    []string
		pendingIdx []int
	)
	for i, f := range fragments {
		if tr, ok := opts.Cache.Get(pair, f); ok {
			out[i] = tr
			continue
		}
		pendingIdx = append(pendingIdx, i)
		pending = append(pending, f)
	}

	if hits := len(fragments) - len(pending); hits > 0 {
		opts.log("%d of %d fragments served from cache", hits, len(fragments))
	}
	if len(pending) == 0 {
		return out, nil
	}

	translated, err := translatePending(ctx, pending, sourceLang, targetLang, opts)
	if err != nil {
		return nil, err
	}

	opts.Cache.PutBatch(pair, pending, translated)
	for j, i := range pendingIdx {
		out[i] = translated[j]
	}
	return out, nil
}

// translatePending runs the chunked backend path over a fragment list.
// Failed chunks keep their original fragments.
func translatePending(ctx context.Context, fragments []string, sourceLang, targetLang string, opts Options) ([]string, error) {
	tuning := opts.effectiveTuning()

	var chunks []chunk.Chunk
	if tuning.ChunkSize > 0 {
		chunks = chunk.BySize(fragments, tuning.ChunkSize)
	} else {
		chunks = chunk.ByTokens(fragments, opts.effectiveTokenBudget(), opts.Encoding, opts.effectiveCounter())
	}

	opts.log("processing %d fragments in %d chunks", len(fragments), len(chunks))

	out := make([]string, len(fragments))
	if opts.MaxConcurrent > 1 {
		if err := translateChunksParallel(ctx, chunks, out, sourceLang, targetLang, opts); err != nil {
			return nil, err
		}
		return out, nil
	}

	done := 0
	for i, c := range chunks {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		translated := translateChunk(ctx, c.Fragments, sourceLang, targetLang, opts)
		copy(out[c.Start:], translated)

		done += len(c.Fragments)
		if opts.OnProgress != nil {
			opts.OnProgress(done, len(fragments))
		}

		if i < len(chunks)-1 && opts.RequestDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.RequestDelay):
			}
		}
	}

	return out, nil
}

// translateChunksParallel runs chunks on a bounded worker pool. Each chunk
// writes into its own slice range, so no locking is needed beyond the
// semaphore; the output is position-stable by construction.
func translateChunksParallel(ctx context.Context, chunks []chunk.Chunk, out []string, sourceLang, targetLang string, opts Options) error {
	sem := make(chan struct{}, opts.MaxConcurrent)
	var wg sync.WaitGroup

	for i, c := range chunks {
		if ctx.Err() != nil {
			break
		}

		if i > 0 && opts.RequestDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(opts.RequestDelay):
			}
		}

		sem <- struct{}{}
		wg.Add(1)

		go func(c chunk.Chunk) {
			defer func() {
				<-sem
				wg.Done()
			}()
			copy(out[c.Start:], translateChunk(ctx, c.Fragments, sourceLang, targetLang, opts))
		}(c)
	}

	wg.Wait()
	return ctx.Err()
}

// translateChunk sends one chunk to the backend and reconciles the cleaned
// response against the input. On exhausted retries the original fragments
// come back unchanged, a degraded outcome rather than an error.
func translateChunk(ctx context.Context, fragments []string, sourceLang, targetLang string, opts Options) []string {
	prompt := opts.prompts().DocumentPrompt(fragments, sourceLang, targetLang)

	raw, err := callBackend(ctx, opts.Provider, prompt, samplingFor(opts, prompt, chunkPredictCap), opts.effectiveMaxRetries(), &opts)
	if err != nil {
		opts.logError("chunk of %d fragments failed after retries, passing originals through: %v", len(fragments), err)
		return fragments
	}

	return Reconcile(CleanResponse(raw), fragments)
}

// ---------------------------------------------------------------------------
// Plain-text pipeline
// ---------------------------------------------------------------------------

// TranslatePlainText translates a document that does not have subtitle-block
// shape: proper nouns are quote-protected, the whole text goes out in one
// backend call, and the protection is removed from the response. Failure
// degrades to the original text.
func TranslatePlainText(ctx context.Context, text, sourceLang, targetLang string, opts Options) (string, error) {
	if len(strings.TrimSpace(text)) < 2 {
		return text, nil
	}

	marked, positions := guard.Protect(text)
	prompt := opts.prompts().PlainTextPrompt(marked, sourceLang, targetLang)

	raw, err := callBackend(ctx, opts.Provider, prompt, samplingFor(opts, prompt, plainPredictCap), opts.effectiveMaxRetries(), &opts)
	if err != nil {
		if ctx.Err() != nil {
			return text, ctx.Err()
		}
		opts.logError("plain-text translation failed, returning original: %v", err)
		return text, nil
	}

	translated := strings.TrimSpace(raw)
	translated = translationPrefix.ReplaceAllString(translated, "")
	translated = strings.TrimSpace(translated)
	if translated == "" {
		return text, nil
	}

	return guard.Unprotect(translated, positions), nil
}

// Translate routes a text to the document pipeline when it has
// subtitle-block shape and to the plain-text pipeline otherwise. Source
// language is detected when empty.
func Translate(ctx context.Context, text, sourceLang, targetLang string, opts Options) (string, error) {
	if sourceLang == "" {
		sourceLang = opts.effectiveDetect()(text)
	}
	if targetLang == "" {
		targetLang = "pt-br"
	}

	if srt.IsDocument(text) {
		opts.log("subtitle document detected, using structured pipeline")
		return TranslateDocument(ctx, text, sourceLang, targetLang, opts)
	}
	opts.log("plain text detected, translating directly")
	return TranslatePlainText(ctx, text, sourceLang, targetLang, opts)
}

// ---------------------------------------------------------------------------
// Sampling parameters
// ---------------------------------------------------------------------------

// Prediction caps per call shape, matching the budget the corresponding
// prompt leaves for output.
const (
	chunkPredictCap  = 4096
	plainPredictCap  = 500
	legacyPredictCap = 4096
)

// sampling is the options record sent with every backend request.
type sampling struct {
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	TopK          int     `json:"top_k"`
	RepeatPenalty float64 `json:"repeat_penalty"`
	NumPredict    int     `json:"num_predict"`
}

// samplingFor derives the per-call sampling record from the tuning set,
// leaving room for the prompt inside the model's token budget.
func samplingFor(opts Options, prompt string, limit int) sampling {
	tuning := opts.effectiveTuning()
	promptTokens := opts.effectiveCounter()(prompt, opts.Encoding)

	predict := tuning.MaxTokens - promptTokens - 100
	if predict > limit {
		predict = limit
	}
	if predict < 1 {
		predict = 1
	}

	return sampling{
		Temperature:   tuning.Temperature,
		TopP:          tuning.TopP,
		TopK:          tuning.TopK,
		RepeatPenalty: tuning.RepeatPenalty,
		NumPredict:    predict,
	}
}
