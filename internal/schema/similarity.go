package schema

import (
	"strings"
	"unicode/utf8"
)

// Levenshtein returns the edit distance between a and b, counting runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// editSimilarity is (maxLen - distance) / maxLen, in [0, 1].
func editSimilarity(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1
	}
	return float64(maxLen-Levenshtein(a, b)) / float64(maxLen)
}

// Winkler prefix bonus: up to prefixLimit shared leading runes, each
// closing prefixScale of the remaining gap.
const (
	prefixLimit = 4
	prefixScale = 0.1
)

// Similarity scores two field names in [0, 1], ignoring case.
//
// The base score is the edit similarity (maxLen - distance) / maxLen. A
// shared prefix raises it Winkler style, so middle_name and middle_initial
// score 0.74 where the plain ratio is 0.57. Names with nothing in common at
// the start keep the plain ratio.
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	score := editSimilarity(a, b)
	return score + float64(commonPrefix(a, b, prefixLimit))*prefixScale*(1-score)
}

func commonPrefix(a, b string, limit int) int {
	ra, rb := []rune(a), []rune(b)
	n := 0
	for n < limit && n < len(ra) && n < len(rb) && ra[n] == rb[n] {
		n++
	}
	return n
}
