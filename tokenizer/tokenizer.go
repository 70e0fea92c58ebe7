// Package tokenizer turns query strings into the gram keys that name index
// shards.
//
// Queries are cut into non-overlapping chunks of GramSize code points. The
// index builder records every 1- and 2-code-point substring at every offset,
// so chunk i, which starts at code point i*GramSize, can be looked up
// directly and chained to chunk i-1 by a position shift of exactly GramSize.
package tokenizer

// DefaultGramSize is the gram length used by the index builder.
const DefaultGramSize = 2

// Tokenize splits query into consecutive chunks of gramSize code points.
// The last chunk may be shorter. An empty query yields a nil slice.
// A gramSize <= 0 selects DefaultGramSize.
func Tokenize(query string, gramSize int) []string {
	if query == "" {
		return nil
	}
	if gramSize <= 0 {
		gramSize = DefaultGramSize
	}

	runes := []rune(query)
	chunks := make([]string, 0, (len(runes)+gramSize-1)/gramSize)
	for start := 0; start < len(runes); start += gramSize {
		end := min(start+gramSize, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
