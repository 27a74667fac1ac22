package search

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const minSignificantTokens = 2

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "with": {}, "by": {},
}

// QueryTokens lowercases the query and keeps distinct words longer than two
// characters that are not stop words.
func QueryTokens(query string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if utf8.RuneCountInString(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop || seen[word] {
			continue
		}
		seen[word] = true
		tokens = append(tokens, word)
	}
	return tokens
}

// RequiredTokens is max(2, ceil(0.7*n)), computed in integers.
func RequiredTokens(n int) int {
	required := (7*n + 9) / 10
	if required < minSignificantTokens {
		required = minSignificantTokens
	}
	return required
}

// KeywordScore scores how closely the query tokens co-occur in text. A word
// counts as an occurrence when it contains the token. ok is false when too few
// tokens are present or they are spread too far apart.
func KeywordScore(text string, tokens []string) (score float64, ok bool) {
	words := strings.Fields(strings.ToLower(text))

	positions := make([][]int, 0, len(tokens))
	for _, token := range tokens {
		var found []int
		for i, w := range words {
			if strings.Contains(w, token) {
				found = append(found, i)
			}
		}
		if len(found) > 0 {
			positions = append(positions, found)
		}
	}

	if len(positions) < RequiredTokens(len(tokens)) {
		return 0, false
	}

	score = SpanScore(MinimumSpan(positions))
	if score == 0 {
		return 0, false
	}
	if len(positions) == len(tokens) {
		score = math.Min(1.0, score*1.2)
	}
	return score, true
}

// SpanScore maps a word span to a proximity score; 0 means too scattered.
func SpanScore(span int) float64 {
	switch {
	case span <= 15:
		return 1.0
	case span <= 30:
		return 0.7
	case span <= 45:
		return 0.4
	}
	return 0
}

type occurrence struct {
	pos  int
	list int
}

// MinimumSpan returns the smallest max-min distance of a window holding one
// position from every list. It equals the minimum over the cartesian product
// of the lists, found with a sliding window instead of enumeration.
func MinimumSpan(positions [][]int) int {
	var all []occurrence
	for li, list := range positions {
		for _, p := range list {
			all = append(all, occurrence{pos: p, list: li})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].pos != all[j].pos {
			return all[i].pos < all[j].pos
		}
		return all[i].list < all[j].list
	})

	counts := make([]int, len(positions))
	covered := 0
	best := math.MaxInt
	left := 0
	for right := range all {
		if counts[all[right].list] == 0 {
			covered++
		}
		counts[all[right].list]++

		for covered == len(positions) {
			if span := all[right].pos - all[left].pos; span < best {
				best = span
			}
			counts[all[left].list]--
			if counts[all[left].list] == 0 {
				covered--
			}
			left++
		}
	}
	return best
}
