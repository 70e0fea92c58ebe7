package tokenizer

// Parser normalizes a raw query into the word that is tokenized and searched.
//
// Implementations can add quoting or operators later; the search executor
// only depends on this interface.
type Parser interface {
	Parse(query string) (string, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(query string) (string, error)

func (f ParserFunc) Parse(query string) (string, error) { return f(query) }

// Identity returns the query unchanged.
var Identity Parser = ParserFunc(func(query string) (string, error) { return query, nil })
