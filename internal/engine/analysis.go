package engine

import (
	"context"
	"fmt"

	"github.com/retreivo/matchengine/pkg/types"
)

// Analyzer combines the similarity engine, scorer profiles and fraud
// heuristics into the claim-level analyses exposed over the API.
type Analyzer struct {
	similarity *SimilarityEngine
	fraud      *FraudEngine
}

// NewAnalyzer creates an analyzer over the given engines.
func NewAnalyzer(similarity *SimilarityEngine, fraud *FraudEngine) *Analyzer {
	return &Analyzer{
		similarity: similarity,
		fraud:      fraud,
	}
}

// HubNotes is the moderation summary attached to claim analyses for the hub
// dashboard.
type HubNotes struct {
	MatchConfidence      string   `json:"match_confidence"`
	FraudRisk            string   `json:"fraud_risk"`
	KeyIndicators        []string `json:"key_indicators"`
	VerificationRequired bool     `json:"verification_required"`
	ImageAvailable       bool     `json:"image_available,omitempty"`
}

// ClaimAnalysis is the result of AnalyzeClaim.
type ClaimAnalysis struct {
	FraudAnalysis   FraudAssessment  `json:"fraud_analysis"`
	MatchAnalysis   ConfidenceResult `json:"match_analysis"`
	ImageSimilarity *float64         `json:"image_similarity"`
	Recommendation  string           `json:"recommendation"`
	HubNotes        HubNotes         `json:"hub_notes"`
}

// AnalyzeClaim scores a specific claim: pairwise fraud heuristic plus the
// confidence match profile, with image similarity folded in when both
// reports carry images.
func (a *Analyzer) AnalyzeClaim(ctx context.Context, lost, found types.Item, history *types.UserHistory) ClaimAnalysis {
	imageSim := a.similarity.imageSimilarity(ctx, lost, found)

	fraudResult := a.fraud.ScorePair(lost, found, history)
	matchResult := ConfidenceScore(lost, found, imageSim)

	var recommendation string
	switch {
	case matchResult.MatchScore >= 80 && fraudResult.FraudScore < 20:
		recommendation = "Strong Match - Recommend Approval"
	case matchResult.MatchScore >= 60 && fraudResult.FraudScore < 40:
		recommendation = "Good Match - Recommend Approval with Verification"
	case matchResult.MatchScore >= 40 && fraudResult.FraudScore < 60:
		recommendation = "Possible Match - Requires Manual Review"
	case matchResult.MatchScore >= 20:
		recommendation = "Weak Match - Requires Detailed Verification"
	default:
		recommendation = "No Match - Recommend Rejection"
	}

	analysis := ClaimAnalysis{
		FraudAnalysis:  fraudResult,
		MatchAnalysis:  matchResult,
		Recommendation: recommendation,
		HubNotes: HubNotes{
			MatchConfidence:      fmt.Sprintf("%s (%.1f%%)", matchResult.ConfidenceLevel, matchResult.MatchScore),
			FraudRisk:            fmt.Sprintf("%s Risk (%.0f/100)", fraudResult.RiskLevel, fraudResult.FraudScore),
			KeyIndicators:        fraudResult.Indicators,
			VerificationRequired: fraudResult.FraudScore >= 30 || matchResult.MatchScore < 70,
			ImageAvailable:       imageSim > 0,
		},
	}
	if imageSim > 0 {
		imagePct := round1(imageSim * 100)
		analysis.ImageSimilarity = &imagePct
	}

	return analysis
}

// PairFraudAnalysis groups the per-side and overall fraud results produced
// by MatchLostFound.
type PairFraudAnalysis struct {
	LostItemFraud     FraudAssessment `json:"lost_item_fraud"`
	FoundItemFraud    FraudAssessment `json:"found_item_fraud"`
	OverallFraudScore float64         `json:"overall_fraud_score"`
	OverallRiskLevel  string          `json:"overall_risk_level"`
}

// PairMatch is the result of MatchLostFound.
type PairMatch struct {
	MatchResult    ConfidenceResult  `json:"match_result"`
	FraudAnalysis  PairFraudAnalysis `json:"fraud_analysis"`
	Recommendation string            `json:"recommendation"`
	HubNotes       HubNotes          `json:"hub_notes"`
}

// MatchLostFound scores a pair with the confidence profile and runs the
// content heuristic on each side; the overall fraud score is the worse of
// the two.
func (a *Analyzer) MatchLostFound(ctx context.Context, lost, found types.Item, history *types.UserHistory) PairMatch {
	imageSim := a.similarity.imageSimilarity(ctx, lost, found)

	matchResult := ConfidenceScore(lost, found, imageSim)

	lostFraud := a.fraud.ScoreItem(lost, history)
	foundFraud := a.fraud.ScoreItem(found, history)

	overallScore := lostFraud.FraudScore
	if foundFraud.FraudScore > overallScore {
		overallScore = foundFraud.FraudScore
	}

	var recommendation string
	switch {
	case matchResult.MatchScore >= 70 && overallScore < 30:
		recommendation = "Strong Match - Recommend Approval"
	case matchResult.MatchScore >= 50 && overallScore < 50:
		recommendation = "Possible Match - Requires Verification"
	case matchResult.MatchScore >= 30:
		recommendation = "Weak Match - Manual Review Required"
	default:
		recommendation = "No Match - Reject"
	}

	return PairMatch{
		MatchResult: matchResult,
		FraudAnalysis: PairFraudAnalysis{
			LostItemFraud:     lostFraud,
			FoundItemFraud:    foundFraud,
			OverallFraudScore: overallScore,
			OverallRiskLevel:  overallRiskLevel(overallScore),
		},
		Recommendation: recommendation,
		HubNotes: HubNotes{
			MatchConfidence:      fmt.Sprintf("%s (%.1f%%)", matchResult.ConfidenceLevel, matchResult.MatchScore),
			FraudRisk:            fmt.Sprintf("%s Risk (%.0f/100)", overallRiskLevel(overallScore), overallScore),
			KeyIndicators:        append(append([]string{}, lostFraud.Indicators...), foundFraud.Indicators...),
			VerificationRequired: overallScore >= 30 || matchResult.MatchScore < 70,
		},
	}
}

// overallRiskLevel is the coarser tiering used for combined pair risk:
// the boundary scores land in the higher tier at 20, 50 and 80, with the
// thresholds tested from the top down.
func overallRiskLevel(score float64) string {
	switch {
	case score >= 80:
		return "Critical"
	case score >= 50:
		return "High"
	case score >= 20:
		return "Medium"
	default:
		return "Low"
	}
}

// Comparison is the result of CompareItems.
type Comparison struct {
	MatchScore       float64               `json:"match_score"`
	FraudProbability float64               `json:"fraud_probability"`
	ConfidenceLevel  string                `json:"confidence_level"`
	Explanation      ComparisonExplanation `json:"explanation"`
	Vector           SimilarityVector      `json:"features"`
	Aux              Aux                   `json:"aux"`
}

// ComparisonExplanation is the human-readable breakdown of a comparison.
type ComparisonExplanation struct {
	MatchFactors          map[string]float64 `json:"match_factors"`
	FraudIndicators       map[string]string  `json:"fraud_indicators"`
	Recommendation        string             `json:"recommendation"`
	KeySupportingEvidence []string           `json:"key_supporting_evidence"`
}

// CompareItems runs the full similarity vector, the weighted score and the
// classifier probability for a pair, with explanation lines for reviewers.
func (a *Analyzer) CompareItems(ctx context.Context, lost, found types.Item) Comparison {
	vector, aux := a.similarity.Compute(ctx, lost, found)
	matchScore := WeightedScore(vector)
	fraudProb := a.fraud.Probability(ctx, vector)

	evidence := []string{
		fmt.Sprintf("Text similarity: %.1f%%", vector.Text*100),
		fmt.Sprintf("Category similarity: %.1f%%", vector.Category*100),
		fmt.Sprintf("Location similarity: %.1f%%", vector.LocationText*100),
	}
	if aux.DistanceKm != nil {
		evidence = append(evidence, fmt.Sprintf("Location proximity: %.1f%% (~%.2f km)", vector.LocationProximity*100, *aux.DistanceKm))
	} else {
		evidence = append(evidence, fmt.Sprintf("Location proximity: %.1f%%", vector.LocationProximity*100))
	}
	if aux.TimeToClaimDays != nil {
		evidence = append(evidence, fmt.Sprintf("Time proximity: %.1f%% (%d days)", vector.Time*100, *aux.TimeToClaimDays))
	} else {
		evidence = append(evidence, fmt.Sprintf("Time proximity: %.1f%%", vector.Time*100))
	}
	if vector.Image > 0 {
		evidence = append(evidence, fmt.Sprintf("Image similarity: %.1f%%", vector.Image*100))
	} else {
		evidence = append(evidence, "Image similarity: N/A (image not provided or features unavailable)")
	}

	recommendation := "REVIEW"
	if matchScore >= 90 && fraudProb*100 < 10 {
		recommendation = "APPROVE_MATCH"
	}

	return Comparison{
		MatchScore:       matchScore,
		FraudProbability: round1(fraudProb * 100),
		ConfidenceLevel:  comparisonConfidence(matchScore),
		Vector:           vector,
		Aux:              aux,
		Explanation: ComparisonExplanation{
			MatchFactors: map[string]float64{
				"text_similarity":    round1(vector.Text * 100),
				"image_similarity":   round1(vector.Image * 100),
				"location_proximity": round1(vector.LocationProximity * 100),
				"time_alignment":     round1(vector.Time * 100),
				"category_match":     round1(vector.Category * 100),
			},
			FraudIndicators: map[string]string{
				"user_behavior_risk":   "unknown",
				"timing_anomaly":       timingAnomaly(aux),
				"location_consistency": locationConsistency(vector.LocationProximity),
				"description_quality":  descriptionQuality(vector.Text),
				"historical_patterns":  "unknown",
			},
			Recommendation:        recommendation,
			KeySupportingEvidence: evidence,
		},
	}
}

func comparisonConfidence(score float64) string {
	switch {
	case score >= 90:
		return "very_high"
	case score >= 70:
		return "high"
	case score >= 50:
		return "medium"
	default:
		return "low"
	}
}

func timingAnomaly(aux Aux) string {
	if aux.TimeToClaimDays != nil && *aux.TimeToClaimDays <= 30 {
		return "none"
	}
	return "possible"
}

func locationConsistency(proximity float64) string {
	switch {
	case proximity >= 0.7:
		return "high"
	case proximity >= 0.4:
		return "medium"
	default:
		return "low"
	}
}

func descriptionQuality(textSim float64) string {
	if textSim >= 0.6 {
		return "good"
	}
	return "average"
}
