package scorer

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/homescout/listings-cli/internal/config"
	"github.com/homescout/listings-cli/internal/criteria"
	"github.com/homescout/listings-cli/internal/model"
)

// AlignmentScore is the scoring result for one listing.
type AlignmentScore struct {
	// AlignmentScore is the normalized 0-100 weighted match score.
	AlignmentScore float64 `json:"alignment_score"`
	// MissingMusts lists must-have criteria that had no hit.
	MissingMusts []string `json:"missing_musts"`
	// MatchedCriteriaKeys lists criteria with at least one hit.
	MatchedCriteriaKeys []string `json:"matched_criteria_keys"`
	// DetailedHits holds one diagnostic entry per matched criterion.
	DetailedHits []Hit `json:"detailed_hits"`
	// LocationBonus is the preferred-area bonus, reported separately and
	// not folded into AlignmentScore.
	LocationBonus float64 `json:"location_bonus"`
}

// ScoreListing evaluates every prepared criterion against the listing's
// searchable text and computes the location bonus. It is a total function:
// empty text or an empty criteria set yields a zero score, never an error.
func ScoreListing(listing model.Listing, prepared []criteria.PreparedCriterion, scoring config.ScoringConfig, geo config.GeoConfig) AlignmentScore {
	text := searchableText(listing)
	if text == "" {
		zap.L().Warn("scorer: no searchable text for listing",
			zap.String("zpid", listing.ZPID),
		)
	}

	result := AlignmentScore{
		MissingMusts:        []string{},
		MatchedCriteriaKeys: []string{},
		DetailedHits:        []Hit{},
	}

	var weightedHits, totalPossible float64
	for _, pc := range prepared {
		totalPossible += pc.Weight

		hit, ok := matchCriterion(text, pc, scoring)
		if !ok {
			if pc.Must {
				result.MissingMusts = append(result.MissingMusts, pc.Key)
			}
			continue
		}

		weightedHits += pc.Weight * hit.Confidence
		result.MatchedCriteriaKeys = append(result.MatchedCriteriaKeys, pc.Key)
		result.DetailedHits = append(result.DetailedHits, hit)

		zap.L().Debug("scorer: criterion hit",
			zap.String("zpid", listing.ZPID),
			zap.String("key", pc.Key),
			zap.String("match_type", string(hit.MatchType)),
			zap.String("matched_pattern", hit.MatchedPattern),
			zap.Float64("contribution", pc.Weight*hit.Confidence),
		)
	}

	var score float64
	if totalPossible > 0 {
		score = (weightedHits / totalPossible) * 100
	}
	result.AlignmentScore = round2(score)
	result.LocationBonus = round2(locationBonus(listing.Latitude, listing.Longitude, listing.ZipCode, geo))

	return result
}

// searchableText lowercases and joins the description and feature list
// with a separating space.
func searchableText(l model.Listing) string {
	desc := strings.ToLower(l.Description)
	features := strings.ToLower(strings.Join(l.Features, " "))
	return strings.TrimSpace(desc + " " + features)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
