// Package engine implements the matching and fraud-risk core: per-attribute
// similarity computation between lost and found reports, the two match
// scoring profiles, the fraud heuristics, candidate search over stored item
// features, and the combined claim analyses exposed over the API.
package engine

import "math"

// SimilarityVector holds the six per-attribute similarity components, each
// clamped to [0,1]. Image is 0 when no image pair was available; that means
// "no evidence", not "no match".
type SimilarityVector struct {
	Text              float64 `json:"text_similarity"`
	Category          float64 `json:"category_similarity"`
	LocationText      float64 `json:"location_similarity"`
	LocationProximity float64 `json:"location_proximity"`
	Time              float64 `json:"time_similarity"`
	Image             float64 `json:"image_similarity"`
}

// Components returns the vector in classifier feature order.
func (v SimilarityVector) Components() []float64 {
	return []float64{v.Text, v.Category, v.LocationText, v.LocationProximity, v.Time, v.Image}
}

// Aux carries the auxiliary measurements produced alongside the vector.
// Pointers are nil when the underlying inputs were missing or unparseable.
type Aux struct {
	DistanceKm      *float64 `json:"distance_km"`
	TimeToClaimDays *int     `json:"time_to_claim_days"`
	LostDayOfWeek   *int     `json:"lost_day_of_week"`
	FoundDayOfWeek  *int     `json:"found_day_of_week"`
}

// FraudAssessment is the outcome of a fraud heuristic run.
type FraudAssessment struct {
	FraudScore float64  `json:"fraud_score"`
	RiskLevel  string   `json:"risk_level"`
	Indicators []string `json:"indicators"`
	Confidence float64  `json:"confidence"`

	// MatchAnalysis is populated by the pairwise heuristic only.
	MatchAnalysis *MatchAnalysis `json:"match_analysis,omitempty"`
}

// MatchAnalysis is the percentage breakdown attached to pairwise fraud scoring.
type MatchAnalysis struct {
	OverallMatchScore     float64 `json:"overall_match_score"`
	NameSimilarity        float64 `json:"name_similarity"`
	DescriptionSimilarity float64 `json:"description_similarity"`
	CategorySimilarity    float64 `json:"category_similarity"`
	LocationSimilarity    float64 `json:"location_similarity"`
	DateSimilarity        float64 `json:"date_similarity"`
}

// ConfidenceResult is the outcome of the match-confidence scoring profile.
type ConfidenceResult struct {
	MatchScore      float64             `json:"match_score"`
	ConfidenceLevel string              `json:"confidence_level"`
	Breakdown       ConfidenceBreakdown `json:"breakdown"`
}

// ConfidenceBreakdown is the per-attribute percentage breakdown emitted by
// the confidence profile. ImageSimilarity is nil when no image evidence
// contributed.
type ConfidenceBreakdown struct {
	NameSimilarity        float64  `json:"name_similarity"`
	DescriptionSimilarity float64  `json:"description_similarity"`
	CategorySimilarity    float64  `json:"category_similarity"`
	LocationSimilarity    float64  `json:"location_similarity"`
	DateSimilarity        float64  `json:"date_similarity"`
	ImageSimilarity       *float64 `json:"image_similarity"`
}

// FraudAnalysis is the human-readable summary derived from a fraud score.
type FraudAnalysis struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	RecommendedAction string `json:"recommended_action"`
}

// RiskLevel maps a fraud score to its risk tier. The thresholds are exact:
// scores of 20, 50 and 80 land in the higher tier.
func RiskLevel(fraudScore float64) string {
	switch {
	case fraudScore < 20:
		return "Low"
	case fraudScore < 50:
		return "Medium"
	case fraudScore < 80:
		return "High"
	default:
		return "Critical"
	}
}

// AnalysisFor returns the recommended handling for a fraud score.
func AnalysisFor(fraudScore float64) FraudAnalysis {
	switch RiskLevel(fraudScore) {
	case "Low":
		return FraudAnalysis{
			Status:            "low_risk",
			Message:           "Item appears legitimate with low fraud indicators",
			RecommendedAction: "approve",
		}
	case "Medium":
		return FraudAnalysis{
			Status:            "moderate_risk",
			Message:           "Item has some fraud indicators, verification recommended",
			RecommendedAction: "verify",
		}
	case "High":
		return FraudAnalysis{
			Status:            "high_risk",
			Message:           "Item shows significant fraud indicators, manual review required",
			RecommendedAction: "manual_review",
		}
	default:
		return FraudAnalysis{
			Status:            "critical_risk",
			Message:           "Item shows critical fraud indicators, reject or thorough investigation required",
			RecommendedAction: "reject",
		}
	}
}

// capped bounds an accumulated penalty at max.
func capped(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}

// clamp01 bounds a similarity component to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// round1 rounds to one decimal place, matching the score precision exposed
// over the API.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
