package engine

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/retreivo/matchengine/internal/ports"
	"github.com/retreivo/matchengine/pkg/types"
)

// FraudEngine runs the two fraud heuristics: content-only scoring of a
// single report, and pairwise discrepancy scoring of a lost/found pair.
// Both are pure point accumulators capped at 100; the optional classifier
// port refines a pairwise probability separately and never gates either
// heuristic.
type FraudEngine struct {
	rules      *Rules
	classifier ports.FraudClassifier
}

// NewFraudEngine creates a fraud engine with the given rules and optional
// classifier port. A nil rules pointer selects the defaults.
func NewFraudEngine(rules *Rules, classifier ports.FraudClassifier) *FraudEngine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &FraudEngine{
		rules:      rules,
		classifier: classifier,
	}
}

// ScoreItem applies the content-only heuristic to a single report.
func (f *FraudEngine) ScoreItem(item types.Item, history *types.UserHistory) FraudAssessment {
	var indicators []string
	total := 0.0

	description := strings.ToLower(item.Description)
	name := strings.ToLower(item.Name)

	keywordMatches := 0
	for _, keyword := range f.rules.SuspiciousKeywords {
		if strings.Contains(description, keyword) || strings.Contains(name, keyword) {
			keywordMatches++
		}
	}
	if keywordMatches > 3 {
		indicators = append(indicators, fmt.Sprintf("Multiple suspicious keywords detected (%d)", keywordMatches))
		total += capped(float64(keywordMatches)*5, 25)
	}

	if len(description) < 10 {
		indicators = append(indicators, "Very short description")
		total += 10
	} else if len(description) > 500 {
		indicators = append(indicators, "Excessively long description")
		total += 5
	}

	if maxWordRepetition(description) > 3 {
		indicators = append(indicators, "Repetitive text detected")
		total += 15
	}

	if f.isVagueLocation(item.Location) {
		indicators = append(indicators, "Missing or vague location")
		total += 5
	}

	if f.hasGenericPhrase(description) {
		indicators = append(indicators, "Generic description detected")
		total += 8
	}

	total += f.historyPoints(history, &indicators)

	return f.assess(total, indicators, nil)
}

// ScorePair applies the pairwise discrepancy heuristic to a lost/found pair.
func (f *FraudEngine) ScorePair(lost, found types.Item, history *types.UserHistory) FraudAssessment {
	var indicators []string
	total := 0.0

	nameSim := TextSimilarity(lost.Name, found.Name)
	descSim := TextSimilarity(lost.Description, found.Description)
	categorySim := TextSimilarity(lost.Category, found.Category)
	locationSim := TextSimilarity(lost.Location, found.Location)
	dateSim := dateSimilarity(lost, found)

	overallMatch := nameSim*0.3 +
		descSim*0.25 +
		categorySim*0.2 +
		locationSim*0.15 +
		dateSim*0.1

	switch {
	case overallMatch < 0.3:
		indicators = append(indicators, "Very low similarity between lost and found items")
		total += 40
	case overallMatch < 0.5:
		indicators = append(indicators, "Low similarity between lost and found items")
		total += 25
	case overallMatch < 0.7:
		indicators = append(indicators, "Moderate similarity - requires verification")
		total += 10
	}

	if nameSim < 0.2 && descSim < 0.2 {
		indicators = append(indicators, "Name and description don't match")
		total += 30
	}
	if categorySim < 0.5 {
		indicators = append(indicators, "Category mismatch")
		total += 15
	}
	if locationSim < 0.3 {
		indicators = append(indicators, "Location mismatch")
		total += 10
	}

	if days, ok := dateGapDays(lost, found); ok {
		if days > 30 {
			indicators = append(indicators, "Large time gap between lost and found dates")
			total += 20
		} else if days > 14 {
			indicators = append(indicators, "Significant time gap between lost and found dates")
			total += 10
		}
	}

	combinedDesc := strings.ToLower(lost.Description) + " " + strings.ToLower(found.Description)

	patternMatches := 0
	for _, keyword := range f.rules.PairKeywords {
		if strings.Contains(combinedDesc, keyword) {
			patternMatches++
		}
	}
	if patternMatches > 2 {
		indicators = append(indicators, fmt.Sprintf("Multiple suspicious keywords detected (%d)", patternMatches))
		total += capped(float64(patternMatches)*5, 20)
	}

	if f.hasGenericPhrase(combinedDesc) {
		indicators = append(indicators, "Generic description detected")
		total += 8
	}

	total += f.historyPoints(history, &indicators)

	analysis := &MatchAnalysis{
		OverallMatchScore:     round1(overallMatch * 100),
		NameSimilarity:        round1(nameSim * 100),
		DescriptionSimilarity: round1(descSim * 100),
		CategorySimilarity:    round1(categorySim * 100),
		LocationSimilarity:    round1(locationSim * 100),
		DateSimilarity:        round1(dateSim * 100),
	}

	return f.assess(total, indicators, analysis)
}

// Probability consults the classifier port for a fraud probability over the
// similarity vector. A missing or failing classifier yields 0.5 (maximal
// uncertainty), never an error.
func (f *FraudEngine) Probability(ctx context.Context, vector SimilarityVector) float64 {
	if f.classifier == nil {
		return 0.5
	}

	probability, err := f.classifier.Probability(ctx, vector.Components())
	if err != nil {
		log.Printf("engine: fraud classifier failed, defaulting to 0.5: %v", err)
		return 0.5
	}
	return probability
}

// historyPoints accumulates the user-history rules shared by both heuristics.
func (f *FraudEngine) historyPoints(history *types.UserHistory, indicators *[]string) float64 {
	if history == nil {
		return 0
	}

	total := 0.0
	if history.RecentClaims > 5 {
		*indicators = append(*indicators, fmt.Sprintf("High number of recent claims (%d)", history.RecentClaims))
		total += capped(float64(history.RecentClaims)*3, 20)
	}
	if history.SimilarClaims > 2 {
		*indicators = append(*indicators, fmt.Sprintf("Multiple similar claims (%d)", history.SimilarClaims))
		total += capped(float64(history.SimilarClaims)*5, 15)
	}
	return total
}

func (f *FraudEngine) isVagueLocation(location string) bool {
	location = strings.ToLower(strings.TrimSpace(location))
	if location == "" {
		return true
	}
	for _, vague := range f.rules.VagueLocations {
		if location == vague {
			return true
		}
	}
	return false
}

func (f *FraudEngine) hasGenericPhrase(text string) bool {
	for _, phrase := range f.rules.GenericPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// assess caps the point total at 100 and fills in the derived fields.
func (f *FraudEngine) assess(total float64, indicators []string, analysis *MatchAnalysis) FraudAssessment {
	score := capped(total, 100)
	if indicators == nil {
		indicators = []string{}
	}
	return FraudAssessment{
		FraudScore:    score,
		RiskLevel:     RiskLevel(score),
		Indicators:    indicators,
		Confidence:    100 - score,
		MatchAnalysis: analysis,
	}
}

// dateGapDays returns the absolute day gap between the two report dates.
func dateGapDays(lost, found types.Item) (int, bool) {
	aux := Aux{}
	timeSimilarity(lost, found, &aux)
	if aux.TimeToClaimDays == nil {
		return 0, false
	}
	return *aux.TimeToClaimDays, true
}

// maxWordRepetition returns the highest occurrence count of any single word.
func maxWordRepetition(text string) int {
	counts := make(map[string]int)
	max := 0
	for _, word := range strings.Fields(text) {
		counts[word]++
		if counts[word] > max {
			max = counts[word]
		}
	}
	return max
}
