package segment

import (
	"reflect"
	"sort"
	"strings"
	"testing"
)

func TestExtractPositions(t *testing.T) {
	got := ExtractPositions([]string{"the", "cat", "sat", "on", "the", "mat"})
	want := map[string][]int{
		"the": {0, 4},
		"cat": {1},
		"sat": {2},
		"on":  {3},
		"mat": {5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractPositions = %v, want %v", got, want)
	}
}

func TestExtractPositionsSkipsBlankTokens(t *testing.T) {
	got := ExtractPositions([]string{"a", "", "b", "  ", "c"})
	want := map[string][]int{"a": {0}, "b": {1}, "c": {2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractPositions = %v, want %v", got, want)
	}
}

// Positions across all tokens must form a permutation of 0..k-1 where k is
// the number of non-blank tokens.
func TestExtractPositionsPermutation(t *testing.T) {
	tokens := []string{"x", "y", "x", "", "z", "y", "x"}
	result := ExtractPositions(tokens)

	var all []int
	for _, positions := range result {
		all = append(all, positions...)
	}
	sort.Ints(all)

	if len(all) != 6 {
		t.Fatalf("got %d positions, want 6", len(all))
	}
	for i, pos := range all {
		if pos != i {
			t.Errorf("positions %v are not a permutation of 0..5", all)
			break
		}
	}
}

func TestExtractPositionsDeterministic(t *testing.T) {
	tokens := []string{"b", "a", "b", "c", "a"}
	first := ExtractPositions(tokens)
	second := ExtractPositions(tokens)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same input produced different mappings: %v vs %v", first, second)
	}
}

func TestExtractPositionsEmpty(t *testing.T) {
	if got := ExtractPositions(nil); len(got) != 0 {
		t.Errorf("ExtractPositions(nil) = %v, want empty", got)
	}
}

func TestWhitespaceTokenizer(t *testing.T) {
	tok := WhitespaceTokenizer{}
	got := tok.Tokenize("The  Quick\tbrown\nFox")
	want := []string{"the", "quick", "brown", "fox"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
	if got := tok.Tokenize("   "); len(got) != 0 {
		t.Errorf("Tokenize(blank) = %v, want empty", got)
	}
}

func BenchmarkTokenizeAndExtract(b *testing.B) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 100)
	tok := WhitespaceTokenizer{}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ExtractPositions(tok.Tokenize(text))
	}
}
