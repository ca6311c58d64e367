package engine

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/retreivo/matchengine/internal/ports"
	"github.com/retreivo/matchengine/internal/storage"
	"github.com/retreivo/matchengine/pkg/types"
)

// matchThreshold is the minimum percentage score for a candidate to appear
// in search results.
const matchThreshold = 30.0

// maxMatchResults caps metadata search results.
const maxMatchResults = 10

// Searcher retrieves candidate matches for a query report from the feature
// repository. Queries of one type always search records of the opposite type.
type Searcher struct {
	features      storage.FeatureStore
	imageEmbedder ports.ImageEmbedder
}

// NewSearcher creates a searcher over the given feature store.
// The image embedder may be nil; image-driven search then degrades to
// metadata-only scoring.
func NewSearcher(features storage.FeatureStore, imageEmbedder ports.ImageEmbedder) *Searcher {
	return &Searcher{
		features:      features,
		imageEmbedder: imageEmbedder,
	}
}

// MatchResult is a scored candidate from metadata search.
type MatchResult struct {
	ItemID                int64    `json:"item_id"`
	Name                  string   `json:"name"`
	Category              string   `json:"category"`
	Description           string   `json:"description"`
	Location              string   `json:"location"`
	Date                  string   `json:"date"`
	MatchScore            float64  `json:"match_score"`
	ImageSimilarity       *float64 `json:"image_similarity"`
	MetadataSimilarity    float64  `json:"metadata_similarity"`
	NameSimilarity        float64  `json:"name_similarity"`
	DescriptionSimilarity float64  `json:"description_similarity"`
	CategorySimilarity    float64  `json:"category_similarity"`
	LocationSimilarity    float64  `json:"location_similarity"`
}

// ImageResult is a scored candidate from image search.
type ImageResult struct {
	ItemID          int64   `json:"item_id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Description     string  `json:"description"`
	Location        string  `json:"location"`
	Date            string  `json:"date"`
	SimilarityScore float64 `json:"similarity_score"`
	MatchConfidence string  `json:"match_confidence"`
}

// NextStep returns the suggested handling for the best match score:
// approve_online at 80+, request_verification at 50+, reject below.
func NextStep(bestScore float64) string {
	switch {
	case bestScore >= 80:
		return "approve_online"
	case bestScore >= 50:
		return "request_verification"
	default:
		return "reject"
	}
}

// MatchItem scores the query report against all stored records of the
// opposite type. Metadata similarity weights name 0.4, description 0.3,
// category 0.2, location 0.1; when both the query and a record carry image
// features, the blended score weights image 0.7 and metadata 0.3. Results
// below the threshold are dropped, the rest sorted descending and capped.
func (s *Searcher) MatchItem(ctx context.Context, query types.Item) ([]MatchResult, error) {
	records, err := s.features.ListByType(ctx, query.Type.Opposite())
	if err != nil {
		return nil, fmt.Errorf("engine: failed to load candidates: %w", err)
	}

	var queryVector []float32
	if query.Image != "" && s.imageEmbedder != nil {
		queryVector, err = s.imageEmbedder.EmbedImage(ctx, query.Image)
		if err != nil {
			log.Printf("engine: query image embedding failed, metadata-only matching: %v", err)
			queryVector = nil
		}
	}

	var results []MatchResult
	for _, record := range records {
		nameSim := TextSimilarity(query.Name, record.Name)
		descSim := TextSimilarity(query.Description, record.Description)
		categorySim := TextSimilarity(query.Category, record.Category)
		locationSim := TextSimilarity(query.Location, record.Location)

		metadataSim := nameSim*0.4 + descSim*0.3 + categorySim*0.2 + locationSim*0.1

		imageSim := 0.0
		if queryVector != nil && len(record.ImageFeatures) > 0 {
			storedVector, err := DecodeVector(record.ImageFeatures)
			if err != nil {
				log.Printf("engine: skipping corrupt feature blob for item %d: %v", record.ItemID, err)
			} else {
				imageSim = clamp01(CosineSimilarity(queryVector, storedVector))
			}
		}

		var score float64
		if imageSim > 0 {
			score = (imageSim*0.7 + metadataSim*0.3) * 100
		} else {
			score = metadataSim * 100
		}

		if score < matchThreshold {
			continue
		}

		result := MatchResult{
			ItemID:                record.ItemID,
			Name:                  record.Name,
			Category:              record.Category,
			Description:           record.Description,
			Location:              record.Location,
			Date:                  record.Date,
			MatchScore:            round1(score),
			MetadataSimilarity:    round1(metadataSim * 100),
			NameSimilarity:        round1(nameSim * 100),
			DescriptionSimilarity: round1(descSim * 100),
			CategorySimilarity:    round1(categorySim * 100),
			LocationSimilarity:    round1(locationSim * 100),
		}
		if imageSim > 0 {
			imagePct := round1(imageSim * 100)
			result.ImageSimilarity = &imagePct
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})
	if len(results) > maxMatchResults {
		results = results[:maxMatchResults]
	}

	return results, nil
}

// SearchByImage embeds the query image and ranks stored records of the
// opposite type by feature cosine similarity. When the backing store offers
// native vector search, candidates come from it; otherwise the store is
// scanned and blobs decoded.
func (s *Searcher) SearchByImage(ctx context.Context, itemType types.ItemType, image string, limit int) ([]ImageResult, error) {
	if s.imageEmbedder == nil {
		return nil, fmt.Errorf("%w: image search requires an image embedder", storage.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 10
	}

	queryVector, err := s.imageEmbedder.EmbedImage(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to extract features from query image: %w", err)
	}

	searchType := itemType.Opposite()

	var records []storage.FeatureRecord
	if vs, ok := s.features.(storage.VectorSearcher); ok {
		records, err = vs.NearestByVector(ctx, searchType, queryVector, limit*4)
	} else {
		records, err = s.features.ListByType(ctx, searchType)
	}
	if err != nil {
		return nil, fmt.Errorf("engine: failed to load candidates: %w", err)
	}

	var results []ImageResult
	for _, record := range records {
		if len(record.ImageFeatures) == 0 {
			continue
		}
		storedVector, err := DecodeVector(record.ImageFeatures)
		if err != nil {
			log.Printf("engine: skipping corrupt feature blob for item %d: %v", record.ItemID, err)
			continue
		}

		score := clamp01(CosineSimilarity(queryVector, storedVector)) * 100
		if score < matchThreshold {
			continue
		}

		results = append(results, ImageResult{
			ItemID:          record.ItemID,
			Name:            record.Name,
			Category:        record.Category,
			Description:     record.Description,
			Location:        record.Location,
			Date:            record.Date,
			SimilarityScore: round1(score),
			MatchConfidence: imageConfidence(score),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})
	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

func imageConfidence(score float64) string {
	switch {
	case score >= 80:
		return "High"
	case score >= 60:
		return "Medium"
	default:
		return "Low"
	}
}
