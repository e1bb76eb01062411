package election

import (
	"regexp"
	"strings"
)

var sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

// wordsOf tokenizes s into lowercased alphabetic words of length >= 3 (spec
// §4.5's literal definition — not a general Unicode segmenter, since the
// spec pins the exact token shape the tests assume).
func wordsOf(s string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() >= 3 {
			words = append(words, strings.ToLower(cur.String()))
		}
		cur.Reset()
	}
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return words
}

// relevance scores |words(prompt) ∩ words(response)| / |words(prompt)|.
func relevance(prompt, response string) float64 {
	promptWords := wordsOf(prompt)
	if len(promptWords) == 0 {
		return 0.5
	}
	set := make(map[string]struct{}, len(promptWords))
	for _, w := range promptWords {
		set[w] = struct{}{}
	}
	respSet := make(map[string]struct{})
	for _, w := range wordsOf(response) {
		respSet[w] = struct{}{}
	}
	var hits int
	for w := range set {
		if _, ok := respSet[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(set))
}

// coherence combines sentence-length structure with sentence count (spec
// §4.5).
func coherence(response string) float64 {
	var sentences []string
	for _, s := range sentenceSplitRe.Split(response, -1) {
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return 0
	}

	total := 0
	for _, s := range sentences {
		total += len(strings.Fields(s))
	}
	avgWords := float64(total) / float64(len(sentences))

	var lengthScore float64
	switch {
	case avgWords <= 5:
		lengthScore = 0.5
	case avgWords <= 10:
		lengthScore = 0.7
	case avgWords <= 25:
		lengthScore = 1.0
	case avgWords <= 40:
		lengthScore = 0.8
	default:
		lengthScore = 0.6
	}

	structureScore := float64(len(sentences)) / 5
	if structureScore > 1 {
		structureScore = 1
	}

	return 0.6*lengthScore + 0.4*structureScore
}

// completeness scores response length relative to prompt length (spec
// §4.5).
func completeness(prompt, response string) float64 {
	promptWords := len(strings.Fields(prompt))
	if promptWords == 0 {
		promptWords = 1
	}
	ratio := float64(len(strings.Fields(response))) / float64(promptWords)

	switch {
	case ratio < 0.5:
		return 0.3
	case ratio < 1:
		return 0.5
	case ratio < 2:
		return 0.7
	case ratio <= 5:
		return 1.0
	case ratio <= 10:
		return 0.9
	default:
		return 0.7
	}
}

// latencyScore is max(0, 1 - latency_s/30) (spec §4.5).
func latencyScore(latencySeconds float64) float64 {
	s := 1 - latencySeconds/30
	if s < 0 {
		return 0
	}
	return s
}

// costNormalizer is the open-question constant spec §9 says to preserve
// as-is for parity: avg_cost / 0.01.
const costNormalizer = 0.01

// costScore derives a cost metric from performance history; unknown cost
// (no history) scores neutrally at 0.5 (spec §4.5).
func costScore(avgCost float64, known bool) float64 {
	if !known {
		return 0.5
	}
	s := 1 - avgCost/costNormalizer
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
