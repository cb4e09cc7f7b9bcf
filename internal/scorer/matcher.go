// Package scorer implements listing alignment scoring against prepared
// preference criteria, plus the preferred-area location bonus.
package scorer

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/homescout/listings-cli/internal/config"
	"github.com/homescout/listings-cli/internal/criteria"
)

// MatchType records which rule class produced a hit.
type MatchType string

const (
	MatchPrimary MatchType = "primary"
	MatchSynonym MatchType = "synonym"
	MatchFuzzy   MatchType = "fuzzy"
)

// Hit is the diagnostic record for one criterion that matched.
type Hit struct {
	CriterionKey   string    `json:"criterion_key"`
	MatchedPattern string    `json:"matched_pattern"`
	MatchType      MatchType `json:"match_type"`
	Confidence     float64   `json:"confidence"`
}

// matchCriterion evaluates one prepared criterion against the searchable
// text. Rules are scanned in order and the first match wins; when no rule
// matches, the raw primary pattern is tried as a fuzzy target. The second
// return value is false when the criterion missed entirely.
func matchCriterion(text string, pc criteria.PreparedCriterion, cfg config.ScoringConfig) (Hit, bool) {
	if text == "" {
		return Hit{}, false
	}

	for i := range pc.Rules {
		r := &pc.Rules[i]
		if !r.Matches(text) {
			continue
		}
		h := Hit{
			CriterionKey:   pc.Key,
			MatchedPattern: r.Source,
			MatchType:      MatchPrimary,
			Confidence:     cfg.PrimaryConfidence,
		}
		if r.Origin == criteria.OriginSynonym {
			h.MatchType = MatchSynonym
			h.Confidence = cfg.SynonymConfidence
		}
		return h, true
	}

	if pc.PrimaryPattern != "" {
		if sim := bestSimilarity(pc.PrimaryPattern, text); sim >= cfg.FuzzyMinScore {
			return Hit{
				CriterionKey:   pc.Key,
				MatchedPattern: pc.PrimaryPattern,
				MatchType:      MatchFuzzy,
				Confidence:     cfg.FuzzyConfidence,
			}, true
		}
	}

	return Hit{}, false
}

// bestSimilarity slides a word window the size of the pattern across the
// text and returns the highest normalized Levenshtein similarity found.
// Whole-text similarity would never clear the threshold for a short
// pattern inside a long description, so the comparison is windowed.
func bestSimilarity(pattern, text string) float64 {
	p := strings.ToLower(strings.TrimSpace(pattern))
	words := strings.Fields(text)
	if p == "" || len(words) == 0 {
		return 0
	}

	n := len(strings.Fields(p))
	if n == 0 {
		return 0
	}
	if n > len(words) {
		n = len(words)
	}

	params := levenshtein.NewParams()
	var best float64
	for i := 0; i+n <= len(words); i++ {
		window := strings.Join(words[i:i+n], " ")
		if sim := levenshtein.Similarity(window, p, params); sim > best {
			best = sim
		}
	}
	return best
}
