package segment

import "strings"

// ExtractPositions maps each distinct token to the ordered list of its
// zero-based positions in the token sequence. Position counts only non-empty
// tokens: blank tokens are skipped and do not consume a position slot.
func ExtractPositions(tokens []string) map[string][]int {
	result := make(map[string][]int)
	pos := 0
	for _, tok := range tokens {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		result[tok] = append(result[tok], pos)
		pos++
	}
	return result
}
