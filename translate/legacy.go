package translate

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/subtrans/subtrans/chunk"
)

// Legacy path: the whole document is sent through the model, timing lines
// included, and the model is trusted to echo the structure back. Kept for
// comparison runs against the structured pipeline; the structured path is
// the default for a reason.

var (
	srtMarkers   = regexp.MustCompile(`(?s)---START SRT---\s*(.*?)\s*---END SRT---`)
	legacyNoise  = regexp.MustCompile("(?i)^\\s*(?:here is|sure[,!]?|certainly[,!]?|```(?:srt)?).*$")
	blockDivider = regexp.MustCompile(`\n\s*\n`)
)

// TranslateLegacy translates a subtitle document by sending whole blocks,
// timing lines and all, to the backend. Chunks that fail keep their
// original blocks. The error is non-nil only on context cancellation.
func TranslateLegacy(ctx context.Context, document, sourceLang, targetLang string, opts Options) (string, error) {
	blocks := splitBlocks(document)
	if len(blocks) == 0 {
		return document, nil
	}

	chunks := chunkBlocks(blocks, opts)
	opts.log("legacy mode: %d blocks in %d chunks", len(blocks), len(chunks))

	out := make([]string, 0, len(blocks))
	for i, group := range chunks {
		select {
		case <-ctx.Done():
			return document, ctx.Err()
		default:
		}

		sub := strings.Join(group, "\n\n")
		prompt := opts.prompts().LegacyPrompt(sub, sourceLang, targetLang)

		raw, err := callBackend(ctx, opts.Provider, prompt, samplingFor(opts, prompt, legacyPredictCap), opts.effectiveMaxRetries(), &opts)
		if err != nil {
			if ctx.Err() != nil {
				return document, ctx.Err()
			}
			opts.logError("legacy chunk %d failed, keeping originals: %v", i+1, err)
			out = append(out, group...)
			continue
		}

		translated := extractLegacyDocument(raw)
		if translated == "" {
			out = append(out, group...)
			continue
		}
		out = append(out, splitBlocks(translated)...)

		if i < len(chunks)-1 && opts.RequestDelay > 0 {
			select {
			case <-ctx.Done():
				return document, ctx.Err()
			case <-time.After(opts.RequestDelay):
			}
		}
	}

	return strings.Join(out, "\n\n") + "\n", nil
}

func splitBlocks(document string) []string {
	var blocks []string
	for _, b := range blockDivider.Split(strings.TrimSpace(document), -1) {
		b = strings.TrimSpace(b)
		if b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// chunkBlocks groups whole blocks under the token budget minus the prompt
// safety margin, never splitting a block.
func chunkBlocks(blocks []string, opts Options) [][]string {
	count := opts.effectiveCounter()
	budget := opts.effectiveTokenBudget() - chunk.DefaultSafetyMargin
	if budget < 1 {
		budget = 1
	}

	var (
		chunks  [][]string
		current []string
		used    int
	)
	for _, b := range blocks {
		cost := count(b, opts.Encoding)
		if len(current) > 0 && used+cost > budget {
			chunks = append(chunks, current)
			current = nil
			used = 0
		}
		current = append(current, b)
		used += cost
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// extractLegacyDocument pulls the translated document out of the response,
// between the markers when the model kept them, otherwise from the first
// line that looks like a subtitle sequence number.
func extractLegacyDocument(raw string) string {
	if m := srtMarkers.FindStringSubmatch(raw); m != nil {
		return m[1]
	}

	lines := strings.Split(raw, "\n")
	start := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || legacyNoise.MatchString(trimmed) {
			continue
		}
		if isSequenceNumber(trimmed) {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	kept := lines[start:]
	for len(kept) > 0 {
		last := strings.TrimSpace(kept[len(kept)-1])
		if last == "" || legacyNoise.MatchString(last) {
			kept = kept[:len(kept)-1]
			continue
		}
		break
	}
	return strings.Join(kept, "\n")
}

func isSequenceNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
