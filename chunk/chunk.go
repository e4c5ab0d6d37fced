// Package chunk groups translatable fragments into token-budgeted batches
// for backend submission. Token costs are estimates: the backend's real
// tokenizer is not available locally, so a byte-based heuristic is used by
// default and callers may inject a more accurate counter.
package chunk

// DefaultSafetyMargin is subtracted from the model budget before packing so
// that the instructional preamble and numbering overhead fit alongside the
// fragments themselves.
const DefaultSafetyMargin = 200

// Counter estimates the token cost of a text for a given model encoding.
// The encoding identifier is advisory; the default counter ignores it.
type Counter func(text, encoding string) int

// Estimate is the default Counter: roughly 4 bytes per token, minimum 1
// for non-empty text.
func Estimate(text, encoding string) int {
	if len(text) == 0 {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}

// Chunk is a contiguous sub-range of the fragment list. Start is the index
// of Fragments[0] in the original list, so results can be reassembled by
// position regardless of processing order.
type Chunk struct {
	Start     int
	Fragments []string
}

// ByTokens packs fragments into chunks whose cumulative estimated cost does
// not exceed budget - DefaultSafetyMargin. Fragments are never split: a
// fragment whose standalone cost already exceeds the effective budget is
// emitted as its own chunk (flushing any pending chunk first) and left for
// the backend call to succeed or degrade on.
func ByTokens(fragments []string, budget int, encoding string, count Counter) []Chunk {
	if len(fragments) == 0 {
		return nil
	}
	if count == nil {
		count = Estimate
	}

	effective := budget - DefaultSafetyMargin
	if effective < 1 {
		effective = 1
	}

	var chunks []Chunk
	var current []string
	currentStart := 0
	currentCost := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, Chunk{Start: currentStart, Fragments: current})
			current = nil
			currentCost = 0
		}
	}

	for i, frag := range fragments {
		cost := count(frag, encoding)

		if cost > effective {
			flush()
			chunks = append(chunks, Chunk{Start: i, Fragments: []string{frag}})
			continue
		}

		if currentCost+cost > effective {
			flush()
		}
		if len(current) == 0 {
			currentStart = i
		}
		current = append(current, frag)
		currentCost += cost
	}
	flush()

	return chunks
}

// BySize packs fragments into chunks of at most size elements, preserving
// order. size <= 0 yields a single chunk. This is the count-based override
// used when the tuning artifact pins a chunk size instead of a token budget.
func BySize(fragments []string, size int) []Chunk {
	if len(fragments) == 0 {
		return nil
	}
	if size <= 0 || size >= len(fragments) {
		return []Chunk{{Start: 0, Fragments: fragments}}
	}
	var chunks []Chunk
	for i := 0; i < len(fragments); i += size {
		end := i + size
		if end > len(fragments) {
			end = len(fragments)
		}
		chunks = append(chunks, Chunk{Start: i, Fragments: fragments[i:end]})
	}
	return chunks
}
