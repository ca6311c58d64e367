package engine

import "github.com/retreivo/matchengine/pkg/types"

// Two scoring profiles coexist and stay independent: the weighted profile
// operates on the similarity vector with emphasis on text and image, the
// confidence profile re-scores the raw attribute pairs with its own weight
// tables. Callers depend on each separately, so they are never unified.

// Weighted profile weights. They sum to 1.0.
const (
	weightText              = 0.35
	weightImage             = 0.25
	weightCategory          = 0.10
	weightLocationText      = 0.10
	weightLocationProximity = 0.10
	weightTime              = 0.10
)

// WeightedScore combines a similarity vector into a match score in [0,100]
// with one decimal of precision.
func WeightedScore(vector SimilarityVector) float64 {
	score := vector.Text*weightText +
		vector.Image*weightImage +
		vector.Category*weightCategory +
		vector.LocationText*weightLocationText +
		vector.LocationProximity*weightLocationProximity +
		vector.Time*weightTime
	return round1(score * 100.0)
}

// ConfidenceScore applies the match-confidence profile to the raw attribute
// pairs. Image similarity participates at weight 0.15 when evidence is
// present; otherwise the name/description weights absorb its share.
func ConfidenceScore(lost, found types.Item, imageSimilarity float64) ConfidenceResult {
	nameSim := TextSimilarity(lost.Name, found.Name)
	descSim := TextSimilarity(lost.Description, found.Description)
	categorySim := TextSimilarity(lost.Category, found.Category)
	locationSim := TextSimilarity(lost.Location, found.Location)
	dateSim := dateSimilarity(lost, found)

	var score float64
	breakdown := ConfidenceBreakdown{
		NameSimilarity:        round1(nameSim * 100),
		DescriptionSimilarity: round1(descSim * 100),
		CategorySimilarity:    round1(categorySim * 100),
		LocationSimilarity:    round1(locationSim * 100),
		DateSimilarity:        round1(dateSim * 100),
	}

	if imageSimilarity > 0 {
		score = (nameSim*0.25 +
			descSim*0.25 +
			categorySim*0.15 +
			locationSim*0.10 +
			dateSim*0.10 +
			imageSimilarity*0.15) * 100
		imagePct := round1(imageSimilarity * 100)
		breakdown.ImageSimilarity = &imagePct
	} else {
		score = (nameSim*0.35 +
			descSim*0.35 +
			categorySim*0.15 +
			locationSim*0.10 +
			dateSim*0.05) * 100
	}

	return ConfidenceResult{
		MatchScore:      round1(score),
		ConfidenceLevel: confidenceLevel(score),
		Breakdown:       breakdown,
	}
}

// confidenceLevel labels a confidence-profile score.
func confidenceLevel(score float64) string {
	switch {
	case score >= 85:
		return "Very High"
	case score >= 70:
		return "High"
	case score >= 50:
		return "Medium"
	case score >= 30:
		return "Low"
	default:
		return "Very Low"
	}
}

// dateSimilarity is the 30-day linear decay over the raw date fields,
// without aux reporting. Missing or malformed dates score 0.
func dateSimilarity(lost, found types.Item) float64 {
	aux := Aux{}
	return timeSimilarity(lost, found, &aux)
}
