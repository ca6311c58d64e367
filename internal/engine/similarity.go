package engine

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/retreivo/matchengine/internal/ports"
	"github.com/retreivo/matchengine/pkg/types"
)

// earthRadiusKm is the great-circle radius used for geo proximity.
const earthRadiusKm = 6371.0

// proximityDecayKm is the distance at which geo proximity decays to zero.
const proximityDecayKm = 5.0

// timeDecayDays is the date gap at which time similarity decays to zero.
const timeDecayDays = 30.0

// SimilarityEngine computes per-attribute similarities between a lost and a
// found report. Embedding ports are optional; a nil or failing port degrades
// the affected component to its documented fallback instead of erroring.
type SimilarityEngine struct {
	textEmbedder  ports.TextEmbedder
	imageEmbedder ports.ImageEmbedder
}

// NewSimilarityEngine creates a similarity engine with the given ports.
// Either port may be nil.
func NewSimilarityEngine(textEmbedder ports.TextEmbedder, imageEmbedder ports.ImageEmbedder) *SimilarityEngine {
	return &SimilarityEngine{
		textEmbedder:  textEmbedder,
		imageEmbedder: imageEmbedder,
	}
}

// Compute produces the similarity vector and auxiliary measurements for a
// lost/found pair. It never fails: every dependency error is logged and
// replaced by that component's fallback value.
func (e *SimilarityEngine) Compute(ctx context.Context, lost, found types.Item) (SimilarityVector, Aux) {
	vector := SimilarityVector{
		Text:         e.textSimilarity(ctx, lost, found),
		Category:     clamp01(TextSimilarity(lost.Category, found.Category)),
		LocationText: clamp01(TextSimilarity(lost.Location, found.Location)),
	}

	aux := Aux{}
	vector.Time = timeSimilarity(lost, found, &aux)
	vector.LocationProximity = geoProximity(lost, found, &aux)
	vector.Image = e.imageSimilarity(ctx, lost, found)

	return vector, aux
}

// textSimilarity compares the combined name+description strings through the
// embedding port, falling back to lexical similarity when the port is
// missing or fails.
func (e *SimilarityEngine) textSimilarity(ctx context.Context, lost, found types.Item) float64 {
	lostText := lost.CombinedText()
	foundText := found.CombinedText()

	if e.textEmbedder != nil && lostText != "" && foundText != "" {
		lostVec, err := e.textEmbedder.EmbedText(ctx, lostText)
		if err == nil {
			foundVec, err := e.textEmbedder.EmbedText(ctx, foundText)
			if err == nil {
				return clamp01(CosineSimilarity(lostVec, foundVec))
			}
			log.Printf("engine: text embedding failed, using lexical fallback: %v", err)
		} else {
			log.Printf("engine: text embedding failed, using lexical fallback: %v", err)
		}
	}

	return clamp01(TextSimilarity(lostText, foundText))
}

// imageSimilarity compares the image payloads through the image port. It
// contributes only when both sides carry an image and both extractions
// succeed; any failure scores 0.
func (e *SimilarityEngine) imageSimilarity(ctx context.Context, lost, found types.Item) float64 {
	if e.imageEmbedder == nil || lost.Image == "" || found.Image == "" {
		return 0.0
	}

	lostVec, err := e.imageEmbedder.EmbedImage(ctx, lost.Image)
	if err != nil {
		log.Printf("engine: image embedding failed for lost item: %v", err)
		return 0.0
	}
	foundVec, err := e.imageEmbedder.EmbedImage(ctx, found.Image)
	if err != nil {
		log.Printf("engine: image embedding failed for found item: %v", err)
		return 0.0
	}

	return clamp01(CosineSimilarity(lostVec, foundVec))
}

// timeSimilarity computes the 30-day linear date-gap decay and fills the
// temporal aux fields. Missing or unparseable dates score 0 and leave the
// aux fields nil.
func timeSimilarity(lost, found types.Item, aux *Aux) float64 {
	lostDate, lostOK := lost.ParseDate()
	foundDate, foundOK := found.ParseDate()
	if !lostOK || !foundOK {
		return 0.0
	}

	daysDiff := int(math.Abs(lostDate.Sub(foundDate).Hours() / 24))
	lostDOW := mondayBasedWeekday(lostDate)
	foundDOW := mondayBasedWeekday(foundDate)

	aux.TimeToClaimDays = &daysDiff
	aux.LostDayOfWeek = &lostDOW
	aux.FoundDayOfWeek = &foundDOW

	return clamp01(1.0 - float64(daysDiff)/timeDecayDays)
}

// mondayBasedWeekday numbers days Monday=0 through Sunday=6, the convention
// downstream analytics consumers expect in the aux fields.
func mondayBasedWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// geoProximity computes the haversine distance decay when both sides carry
// coordinates, filling the distance aux field. Missing coordinates score 0
// with a nil distance.
func geoProximity(lost, found types.Item, aux *Aux) float64 {
	if !lost.HasCoordinates() || !found.HasCoordinates() {
		return 0.0
	}

	distanceKm := haversineKm(*lost.Lat, *lost.Lng, *found.Lat, *found.Lng)
	aux.DistanceKm = &distanceKm

	return clamp01(1.0 - math.Min(distanceKm/proximityDecayKm, 1.0))
}

// haversineKm returns the great-circle distance between two coordinates.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dlat := radians(lat2 - lat1)
	dlng := radians(lng2 - lng1)

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dlng/2)*math.Sin(dlng/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return earthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
