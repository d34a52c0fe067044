// Package segment implements the indexing pipeline's producer side: text
// tokenization, position extraction, posting event emission, and the shard
// scheduler that drives a bounded worker pool over the document source.
package segment

import "strings"

// Tokenizer turns text into an ordered sequence of token strings. The
// linguistic algorithm behind it is an external capability; implementations
// here are thin adapters.
type Tokenizer interface {
	Tokenize(text string) []string
}

// WhitespaceTokenizer lower-cases the text and splits it on whitespace runs.
// It is the default segmentation backend; a dictionary-based segmenter can be
// swapped in behind the Tokenizer interface.
type WhitespaceTokenizer struct{}

func (WhitespaceTokenizer) Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
