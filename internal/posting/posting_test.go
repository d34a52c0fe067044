package posting

import (
	"reflect"
	"testing"
)

func TestDecodePositions(t *testing.T) {
	got := DecodePositions("1:3,2:5,3:2")
	want := map[int][]int{1: {3}, 2: {5}, 3: {2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DecodePositions = %v, want %v", got, want)
	}
}

func TestDecodePositionsLeadingComma(t *testing.T) {
	got := DecodePositions(",1:3,2:5")
	want := map[int][]int{1: {3}, 2: {5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DecodePositions = %v, want %v", got, want)
	}
}

func TestDecodePositionsSkipsMalformed(t *testing.T) {
	cases := []struct {
		in   string
		want map[int][]int
	}{
		{"1:x,2:5", map[int][]int{2: {5}}},
		{"1:2:3,2:5", map[int][]int{2: {5}}},
		{"abc,2:5", map[int][]int{2: {5}}},
		{",,2:5,", map[int][]int{2: {5}}},
		{"", map[int][]int{}},
	}
	for _, tc := range cases {
		got := DecodePositions(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("DecodePositions(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDecodePositionsMultipleOccurrences(t *testing.T) {
	got := DecodePositions("7:0,7:4,9:1")
	want := map[int][]int{7: {0, 4}, 9: {1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DecodePositions = %v, want %v", got, want)
	}
	if tf := TermFrequencies(got)[7]; tf != 2 {
		t.Errorf("term frequency for doc 7 = %d, want 2", tf)
	}
	if df := DocumentFrequency(got); df != 2 {
		t.Errorf("document frequency = %d, want 2", df)
	}
}

func TestEncodeEntriesRoundTrip(t *testing.T) {
	events := []Event{
		{Term: "cat", DocumentID: 1, Position: 0},
		{Term: "cat", DocumentID: 2, Position: 4},
	}
	encoded := EncodeEntries(events)
	if encoded != "1:0,2:4" {
		t.Fatalf("EncodeEntries = %q, want %q", encoded, "1:0,2:4")
	}
	decoded := DecodePositions(encoded)
	want := map[int][]int{1: {0}, 2: {4}}
	if !reflect.DeepEqual(decoded, want) {
		t.Errorf("decoded = %v, want %v", decoded, want)
	}
}
