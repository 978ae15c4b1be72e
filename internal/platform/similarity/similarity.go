// Package similarity scores how likely two normalized names refer to the same
// real-world entity.
package similarity

import "strings"

const (
	tokenWeight = 0.6
	editWeight  = 0.4

	// Two tokens count as overlapping when their own edit similarity reaches
	// this bar, so "internazionale" and "internacionale" still intersect.
	tokenMatchFloor = 0.85
)

// Score combines token-set overlap with normalized edit distance into a value
// in [0,1]. Inputs are expected to be normalized keys; equal non-empty inputs
// always score 1.0.
func Score(a, b string) float64 {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	return tokenWeight*tokenOverlap(a, b) + editWeight*editSimilarity(a, b)
}

// tokenOverlap is a Jaccard index where near-identical tokens, not only equal
// ones, count toward the intersection.
func tokenOverlap(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	matchedB := make([]bool, len(tokensB))
	intersection := 0
	for _, tokenA := range tokensA {
		for idx, tokenB := range tokensB {
			if matchedB[idx] {
				continue
			}
			if tokenA == tokenB || editSimilarity(tokenA, tokenB) >= tokenMatchFloor {
				matchedB[idx] = true
				intersection++
				break
			}
		}
	}

	union := len(tokensA) + len(tokensB) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

func editSimilarity(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}

	return 1 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein computes edit distance with a two-row DP table.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(curr[j-1]+1, minInt(prev[j]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func minInt(left, right int) int {
	if left < right {
		return left
	}
	return right
}
