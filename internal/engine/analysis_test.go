package engine

import (
	"context"
	"math"
	"testing"

	"github.com/retreivo/matchengine/pkg/types"
)

func newTestAnalyzer(imageEmbedder *stubImageEmbedder) *Analyzer {
	var similarity *SimilarityEngine
	if imageEmbedder != nil {
		similarity = NewSimilarityEngine(nil, imageEmbedder)
	} else {
		similarity = NewSimilarityEngine(nil, nil)
	}
	return NewAnalyzer(similarity, NewFraudEngine(nil, nil))
}

func consistentPair() (types.Item, types.Item) {
	lost := testReport(types.ItemTypeLost, "blue notebook", "stationery", "spiral bound notebook with a torn corner", "main street cafe", "2025-03-10")
	found := testReport(types.ItemTypeFound, "blue notebook", "stationery", "spiral bound notebook with a torn corner", "main street cafe", "2025-03-10")
	return lost, found
}

func disjointPair() (types.Item, types.Item) {
	lost := testReport(types.ItemTypeLost, "aaaa", "bbbb", "cccc", "dddd", "2025-01-01")
	found := testReport(types.ItemTypeFound, "zzzz", "yyyy", "xxxx", "wwww", "2025-02-10")
	return lost, found
}

// TestAnalyzeClaim_StrongMatch verifies the approval path for a clean,
// consistent claim
func TestAnalyzeClaim_StrongMatch(t *testing.T) {
	analyzer := newTestAnalyzer(nil)
	lost, found := consistentPair()

	analysis := analyzer.AnalyzeClaim(context.Background(), lost, found, nil)
	if analysis.MatchAnalysis.MatchScore != 100.0 {
		t.Errorf("expected match score 100.0, got %f", analysis.MatchAnalysis.MatchScore)
	}
	if analysis.FraudAnalysis.FraudScore != 0.0 {
		t.Errorf("expected fraud score 0.0, got %f", analysis.FraudAnalysis.FraudScore)
	}
	if analysis.Recommendation != "Strong Match - Recommend Approval" {
		t.Errorf("unexpected recommendation: %s", analysis.Recommendation)
	}
	if analysis.ImageSimilarity != nil {
		t.Errorf("expected nil image similarity without images, got %f", *analysis.ImageSimilarity)
	}

	notes := analysis.HubNotes
	if notes.MatchConfidence != "Very High (100.0%)" {
		t.Errorf("unexpected match confidence note: %s", notes.MatchConfidence)
	}
	if notes.FraudRisk != "Low Risk (0/100)" {
		t.Errorf("unexpected fraud risk note: %s", notes.FraudRisk)
	}
	if notes.VerificationRequired {
		t.Error("expected no verification for a clean strong match")
	}
	if notes.ImageAvailable {
		t.Error("expected image_available false without images")
	}
}

// TestAnalyzeClaim_NoMatch verifies the rejection path for an inconsistent claim
func TestAnalyzeClaim_NoMatch(t *testing.T) {
	analyzer := newTestAnalyzer(nil)
	lost, found := disjointPair()

	analysis := analyzer.AnalyzeClaim(context.Background(), lost, found, nil)
	if analysis.Recommendation != "No Match - Recommend Rejection" {
		t.Errorf("unexpected recommendation: %s", analysis.Recommendation)
	}
	if !analysis.HubNotes.VerificationRequired {
		t.Error("expected verification for an inconsistent claim")
	}
	if len(analysis.HubNotes.KeyIndicators) == 0 {
		t.Error("expected fraud indicators in hub notes")
	}
}

// TestAnalyzeClaim_WithImages verifies image evidence reaches the score and
// the hub notes
func TestAnalyzeClaim_WithImages(t *testing.T) {
	embedder := &stubImageEmbedder{vectors: map[string][]float32{
		"img-lost":  {1, 0},
		"img-found": {1, 0},
	}}
	analyzer := newTestAnalyzer(embedder)
	lost, found := consistentPair()
	lost.Image = "img-lost"
	found.Image = "img-found"

	analysis := analyzer.AnalyzeClaim(context.Background(), lost, found, nil)
	if analysis.ImageSimilarity == nil || *analysis.ImageSimilarity != 100.0 {
		t.Errorf("expected image similarity 100.0, got %v", analysis.ImageSimilarity)
	}
	if !analysis.HubNotes.ImageAvailable {
		t.Error("expected image_available true")
	}
	// The image-weighted confidence profile on a perfect pair still sums to 100.
	if analysis.MatchAnalysis.MatchScore != 100.0 {
		t.Errorf("expected match score 100.0, got %f", analysis.MatchAnalysis.MatchScore)
	}
}

// TestMatchLostFound_StrongMatch verifies the pair-level approval path
func TestMatchLostFound_StrongMatch(t *testing.T) {
	analyzer := newTestAnalyzer(nil)
	lost, found := consistentPair()

	match := analyzer.MatchLostFound(context.Background(), lost, found, nil)
	if match.MatchResult.MatchScore != 100.0 {
		t.Errorf("expected match score 100.0, got %f", match.MatchResult.MatchScore)
	}
	if match.FraudAnalysis.OverallFraudScore != 0.0 {
		t.Errorf("expected overall fraud 0.0, got %f", match.FraudAnalysis.OverallFraudScore)
	}
	if match.FraudAnalysis.OverallRiskLevel != "Low" {
		t.Errorf("expected Low risk, got %s", match.FraudAnalysis.OverallRiskLevel)
	}
	if match.Recommendation != "Strong Match - Recommend Approval" {
		t.Errorf("unexpected recommendation: %s", match.Recommendation)
	}
	if match.HubNotes.VerificationRequired {
		t.Error("expected no verification for a clean strong match")
	}
}

// TestMatchLostFound_OverallFraudIsWorstSide verifies the overall score takes
// the riskier side
func TestMatchLostFound_OverallFraudIsWorstSide(t *testing.T) {
	analyzer := newTestAnalyzer(nil)
	lost, found := consistentPair()
	// Make the found side suspicious: short description and vague location.
	found.Description = "abc"
	found.Location = "unknown"

	match := analyzer.MatchLostFound(context.Background(), lost, found, nil)
	if match.FraudAnalysis.LostItemFraud.FraudScore != 0.0 {
		t.Errorf("expected clean lost side, got %f", match.FraudAnalysis.LostItemFraud.FraudScore)
	}
	if match.FraudAnalysis.FoundItemFraud.FraudScore != 15.0 {
		t.Errorf("expected found side 15.0, got %f", match.FraudAnalysis.FoundItemFraud.FraudScore)
	}
	if match.FraudAnalysis.OverallFraudScore != 15.0 {
		t.Errorf("expected overall 15.0, got %f", match.FraudAnalysis.OverallFraudScore)
	}
	if len(match.HubNotes.KeyIndicators) != 2 {
		t.Errorf("expected both sides' indicators merged, got %v", match.HubNotes.KeyIndicators)
	}
}

// TestMatchLostFound_NoMatch verifies the rejection path
func TestMatchLostFound_NoMatch(t *testing.T) {
	analyzer := newTestAnalyzer(nil)
	lost, found := disjointPair()

	match := analyzer.MatchLostFound(context.Background(), lost, found, nil)
	if match.MatchResult.MatchScore != 0.0 {
		t.Errorf("expected match score 0.0, got %f", match.MatchResult.MatchScore)
	}
	if match.Recommendation != "No Match - Reject" {
		t.Errorf("unexpected recommendation: %s", match.Recommendation)
	}
}

// TestOverallRiskLevel_Boundaries verifies the coarser pair-level tiering
func TestOverallRiskLevel_Boundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0, "Low"},
		{19.9, "Low"},
		{20, "Medium"},
		{49.9, "Medium"},
		{50, "High"},
		{79.9, "High"},
		{80, "Critical"},
	}
	for _, tc := range cases {
		if got := overallRiskLevel(tc.score); got != tc.want {
			t.Errorf("overallRiskLevel(%f): expected %s, got %s", tc.score, tc.want, got)
		}
	}
}

// TestCompareItems verifies the full comparison payload without ports
func TestCompareItems(t *testing.T) {
	analyzer := newTestAnalyzer(nil)
	lost, found := consistentPair()
	lost.Lat, lost.Lng = floatPtr(40.0), floatPtr(-74.0)
	found.Lat, found.Lng = floatPtr(40.0), floatPtr(-74.0)

	comparison := analyzer.CompareItems(context.Background(), lost, found)
	// Identical text, category, location, date and position; no image:
	// 35 + 10 + 10 + 10 + 10 = 75.
	if math.Abs(comparison.MatchScore-75.0) > 0.001 {
		t.Errorf("expected match score 75.0, got %f", comparison.MatchScore)
	}
	// No classifier configured: maximal uncertainty.
	if comparison.FraudProbability != 50.0 {
		t.Errorf("expected fraud probability 50.0, got %f", comparison.FraudProbability)
	}
	if comparison.ConfidenceLevel != "high" {
		t.Errorf("expected high confidence, got %s", comparison.ConfidenceLevel)
	}
	if comparison.Explanation.Recommendation != "REVIEW" {
		t.Errorf("expected REVIEW, got %s", comparison.Explanation.Recommendation)
	}

	factors := comparison.Explanation.MatchFactors
	if factors["text_similarity"] != 100.0 {
		t.Errorf("expected text factor 100.0, got %f", factors["text_similarity"])
	}
	if factors["image_similarity"] != 0.0 {
		t.Errorf("expected image factor 0.0, got %f", factors["image_similarity"])
	}

	indicators := comparison.Explanation.FraudIndicators
	if indicators["timing_anomaly"] != "none" {
		t.Errorf("expected no timing anomaly, got %s", indicators["timing_anomaly"])
	}
	if indicators["location_consistency"] != "high" {
		t.Errorf("expected high location consistency, got %s", indicators["location_consistency"])
	}
	if indicators["description_quality"] != "good" {
		t.Errorf("expected good description quality, got %s", indicators["description_quality"])
	}
	if indicators["user_behavior_risk"] != "unknown" {
		t.Errorf("expected unknown behavior risk, got %s", indicators["user_behavior_risk"])
	}

	// Missing image evidence is called out explicitly.
	foundNA := false
	for _, line := range comparison.Explanation.KeySupportingEvidence {
		if line == "Image similarity: N/A (image not provided or features unavailable)" {
			foundNA = true
		}
	}
	if !foundNA {
		t.Errorf("expected N/A image evidence line, got %v", comparison.Explanation.KeySupportingEvidence)
	}
}

// TestCompareItems_TimingAnomaly verifies a large date gap flags the
// timing indicator
func TestCompareItems_TimingAnomaly(t *testing.T) {
	analyzer := newTestAnalyzer(nil)
	lost, found := consistentPair()
	lost.Date = "2025-01-01"
	found.Date = "2025-03-01"

	comparison := analyzer.CompareItems(context.Background(), lost, found)
	if comparison.Explanation.FraudIndicators["timing_anomaly"] != "possible" {
		t.Errorf("expected possible timing anomaly, got %s", comparison.Explanation.FraudIndicators["timing_anomaly"])
	}
	if comparison.Aux.TimeToClaimDays == nil || *comparison.Aux.TimeToClaimDays != 59 {
		t.Errorf("expected 59 day gap, got %v", comparison.Aux.TimeToClaimDays)
	}
}
