package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/retreivo/matchengine/internal/config"
	"github.com/retreivo/matchengine/internal/engine"
	"github.com/retreivo/matchengine/internal/ports"
	"github.com/retreivo/matchengine/internal/storage"
	"github.com/retreivo/matchengine/pkg/types"
)

// APIHandlers contains HTTP handlers for the REST API.
type APIHandlers struct {
	features      storage.FeatureStore
	claims        storage.ClaimStore
	analyzer      *engine.Analyzer
	fraud         *engine.FraudEngine
	searcher      *engine.Searcher
	imageEmbedder ports.ImageEmbedder
	config        *config.Config
	hub           *ClaimEventHub
}

// APIDeps bundles the dependencies the handlers operate over.
type APIDeps struct {
	Features      storage.FeatureStore
	Claims        storage.ClaimStore
	Analyzer      *engine.Analyzer
	Fraud         *engine.FraudEngine
	Searcher      *engine.Searcher
	ImageEmbedder ports.ImageEmbedder
	Hub           *ClaimEventHub
}

// NewAPIHandlers creates a new APIHandlers instance.
func NewAPIHandlers(deps APIDeps, cfg *config.Config) *APIHandlers {
	return &APIHandlers{
		features:      deps.Features,
		claims:        deps.Claims,
		analyzer:      deps.Analyzer,
		fraud:         deps.Fraud,
		searcher:      deps.Searcher,
		imageEmbedder: deps.ImageEmbedder,
		config:        cfg,
		hub:           deps.Hub,
	}
}

// Health handles GET /health - liveness plus stored item counts.
func (h *APIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	lost, err := h.features.CountByType(r.Context(), types.ItemTypeLost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage unavailable", err)
		return
	}
	found, err := h.features.CountByType(r.Context(), types.ItemTypeFound)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage unavailable", err)
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:     "healthy",
		LostItems:  lost,
		FoundItems: found,
	})
}

// CompareItems handles POST /api/compare-items - full similarity vector,
// weighted match score and classifier probability for a pair.
func (h *APIHandlers) CompareItems(w http.ResponseWriter, r *http.Request) {
	var req PairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	if err := requirePair(req); err != nil {
		respondError(w, http.StatusBadRequest, "lost_item and found_item are required", err)
		return
	}

	comparison := h.analyzer.CompareItems(r.Context(), req.LostItem, req.FoundItem)
	respondJSON(w, http.StatusOK, comparison)
}

// MatchLostFound handles POST /api/match-lost-found - confidence-profile
// match scoring with per-side fraud analysis.
func (h *APIHandlers) MatchLostFound(w http.ResponseWriter, r *http.Request) {
	var req PairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	if err := requirePair(req); err != nil {
		respondError(w, http.StatusBadRequest, "lost_item and found_item are required", err)
		return
	}

	match := h.analyzer.MatchLostFound(r.Context(), req.LostItem, req.FoundItem, req.UserHistory)
	respondJSON(w, http.StatusOK, match)
}

// AnalyzeClaimFraud handles POST /api/analyze-claim-fraud - claim-level
// analysis combining pairwise fraud scoring with the match profile.
func (h *APIHandlers) AnalyzeClaimFraud(w http.ResponseWriter, r *http.Request) {
	var req PairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	if err := requirePair(req); err != nil {
		respondError(w, http.StatusBadRequest, "lost_item and found_item are required", err)
		return
	}

	analysis := h.analyzer.AnalyzeClaim(r.Context(), req.LostItem, req.FoundItem, req.UserHistory)
	respondJSON(w, http.StatusOK, analysis)
}

// DetectFraud handles POST /api/detect-fraud - content-only fraud scoring
// of a single report.
func (h *APIHandlers) DetectFraud(w http.ResponseWriter, r *http.Request) {
	var req DetectFraudRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	assessment := h.fraud.ScoreItem(req.Item, req.UserHistory)
	respondJSON(w, http.StatusOK, DetectFraudResponse{
		FraudAssessment: assessment,
		Analysis:        engine.AnalysisFor(assessment.FraudScore),
	})
}

// StoreItem handles POST /api/store-item - persist a report's metadata and
// image features for later candidate search.
func (h *APIHandlers) StoreItem(w http.ResponseWriter, r *http.Request) {
	var req StoreItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}
	if req.Item.ID == 0 {
		respondError(w, http.StatusBadRequest, "item id is required", nil)
		return
	}
	if !req.Item.Type.IsValid() {
		respondError(w, http.StatusBadRequest, "item type must be lost or found", nil)
		return
	}

	record := &storage.FeatureRecord{
		ItemID:      req.Item.ID,
		ItemType:    req.Item.Type,
		Name:        req.Item.Name,
		Category:    req.Item.Category,
		Description: req.Item.Description,
		Location:    req.Item.Location,
		Date:        req.Item.Date,
	}

	// Feature extraction is best-effort: a missing port or a failed
	// extraction stores the record without features.
	if req.Item.Image != "" && h.imageEmbedder != nil {
		vector, err := h.imageEmbedder.EmbedImage(r.Context(), req.Item.Image)
		if err != nil {
			log.Printf("handlers: image feature extraction failed for item %d: %v", req.Item.ID, err)
		} else if len(vector) > 0 {
			record.ImageFeatures = engine.EncodeVector(vector)
			record.Vector = vector
		}
	}

	if err := h.features.Upsert(r.Context(), record); err != nil {
		respondStorageError(w, "failed to store item", err)
		return
	}

	respondJSON(w, http.StatusOK, StoreItemResponse{
		Success:       true,
		ItemID:        record.ItemID,
		FeaturesSaved: len(record.ImageFeatures) > 0,
	})
}

// MatchItem handles POST /api/match-item - rank stored reports of the
// opposite type against the query.
func (h *APIHandlers) MatchItem(w http.ResponseWriter, r *http.Request) {
	var req MatchItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}
	if !req.Item.Type.IsValid() {
		respondError(w, http.StatusBadRequest, "item type must be lost or found", nil)
		return
	}

	matches, err := h.searcher.MatchItem(r.Context(), req.Item)
	if err != nil {
		respondStorageError(w, "failed to match item", err)
		return
	}

	resp := MatchItemResponse{
		Matches:      matches,
		TotalMatches: len(matches),
	}
	if len(matches) > 0 {
		resp.BestScore = matches[0].MatchScore
	}
	resp.NextStep = engine.NextStep(resp.BestScore)

	respondJSON(w, http.StatusOK, resp)
}

// SearchByImage handles POST /api/search-by-image - rank stored reports of
// the opposite type by image feature similarity.
func (h *APIHandlers) SearchByImage(w http.ResponseWriter, r *http.Request) {
	var req SearchByImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}
	if !req.ItemType.IsValid() {
		respondError(w, http.StatusBadRequest, "item type must be lost or found", nil)
		return
	}
	if req.Image == "" {
		respondError(w, http.StatusBadRequest, "image is required", nil)
		return
	}

	results, err := h.searcher.SearchByImage(r.Context(), req.ItemType, req.Image, req.Limit)
	if err != nil {
		respondStorageError(w, "image search failed", err)
		return
	}

	respondJSON(w, http.StatusOK, SearchByImageResponse{
		Results: results,
		Total:   len(results),
	})
}

// CreateClaim handles POST /api/claims - open a pending claim on an item
// pair, scoring it when the item payloads accompany the request.
func (h *APIHandlers) CreateClaim(w http.ResponseWriter, r *http.Request) {
	var req CreateClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}
	if req.LostItemID == 0 || req.FoundItemID == 0 || req.ClaimerUserID == 0 {
		respondError(w, http.StatusBadRequest, "lost_item_id, found_item_id and claimer_user_id are required", nil)
		return
	}

	claim := &storage.Claim{
		LostItemID:    req.LostItemID,
		FoundItemID:   req.FoundItemID,
		ClaimerUserID: req.ClaimerUserID,
		Status:        storage.ClaimPending,
	}

	if req.LostItem != nil && req.FoundItem != nil {
		// The ledger stores the weighted-profile score; the confidence
		// profile stays exclusive to the match endpoints.
		comparison := h.analyzer.CompareItems(r.Context(), *req.LostItem, *req.FoundItem)
		fraudResult := h.fraud.ScorePair(*req.LostItem, *req.FoundItem, req.UserHistory)
		claim.MatchScore = &comparison.MatchScore
		claim.FraudScore = &fraudResult.FraudScore
	}

	created, err := h.claims.Create(r.Context(), claim)
	if err != nil {
		respondStorageError(w, "failed to create claim", err)
		return
	}

	h.broadcastClaimEvent("claim_created", created)
	respondJSON(w, http.StatusCreated, toClaimResponse(created))
}

// GetClaim handles GET /api/claims/{id}.
func (h *APIHandlers) GetClaim(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid claim id", err)
		return
	}

	claim, err := h.claims.Get(r.Context(), id)
	if err != nil {
		respondStorageError(w, "failed to get claim", err)
		return
	}
	respondJSON(w, http.StatusOK, toClaimResponse(claim))
}

// ClaimStatus handles GET /api/claims/status - pending-claim state of an
// item pair.
func (h *APIHandlers) ClaimStatus(w http.ResponseWriter, r *http.Request) {
	lostID := parseInt64(r.URL.Query().Get("lost_item_id"), 0)
	foundID := parseInt64(r.URL.Query().Get("found_item_id"), 0)
	if lostID == 0 || foundID == 0 {
		respondError(w, http.StatusBadRequest, "lost_item_id and found_item_id are required", nil)
		return
	}

	status, err := h.claims.GetPairStatus(r.Context(), lostID, foundID)
	if err != nil {
		respondStorageError(w, "failed to get claim status", err)
		return
	}

	resp := PairStatusResponse{
		Claimed:            status.Claimed,
		TotalPendingClaims: status.TotalPendingClaims,
	}
	if status.Claimed {
		resp.ClaimerUserID = &status.ClaimerUserID
		date := status.ClaimDate.Format(time.RFC3339)
		resp.ClaimDate = &date
	}
	respondJSON(w, http.StatusOK, resp)
}

// UpdateClaim handles POST /api/claims/update - move a claim to a new status.
func (h *APIHandlers) UpdateClaim(w http.ResponseWriter, r *http.Request) {
	var req UpdateClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}
	if req.ClaimID == 0 {
		respondError(w, http.StatusBadRequest, "claim_id is required", nil)
		return
	}

	status := storage.ClaimStatus(req.Status)
	if !status.IsValid() {
		respondError(w, http.StatusBadRequest, "status must be pending, approved or rejected", nil)
		return
	}

	updated, err := h.claims.UpdateStatus(r.Context(), req.ClaimID, status)
	if err != nil {
		respondStorageError(w, "failed to update claim", err)
		return
	}

	h.broadcastClaimEvent("claim_updated", updated)
	respondJSON(w, http.StatusOK, toClaimResponse(updated))
}

// broadcastClaimEvent pushes a claim lifecycle event to hub subscribers.
func (h *APIHandlers) broadcastClaimEvent(eventType string, claim *storage.Claim) {
	if h.hub == nil {
		return
	}
	h.hub.Broadcast(ClaimEvent{
		Type:        eventType,
		ClaimID:     claim.ID,
		LostItemID:  claim.LostItemID,
		FoundItemID: claim.FoundItemID,
		Status:      string(claim.Status),
		MatchScore:  claim.MatchScore,
		FraudScore:  claim.FraudScore,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}

// itemPresent reports whether a pair request actually carried an item.
// Decoding an absent JSON field leaves a zero-value Item behind, which
// would otherwise be scored as a maximally suspicious empty report.
func itemPresent(item types.Item) bool {
	return item.Name != "" || item.Description != ""
}

// requirePair validates that both sides of a pair request are present.
func requirePair(req PairRequest) error {
	if !itemPresent(req.LostItem) || !itemPresent(req.FoundItem) {
		return fmt.Errorf("%w: lost_item and found_item are required", storage.ErrInvalidInput)
	}
	return nil
}

func toClaimResponse(claim *storage.Claim) ClaimResponse {
	return ClaimResponse{
		ClaimID:       claim.ID,
		LostItemID:    claim.LostItemID,
		FoundItemID:   claim.FoundItemID,
		ClaimerUserID: claim.ClaimerUserID,
		Status:        string(claim.Status),
		CreatedAt:     claim.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     claim.UpdatedAt.Format(time.RFC3339),
		MatchScore:    claim.MatchScore,
		FraudScore:    claim.FraudScore,
	}
}

// Helper functions

// parseInt64 parses an int64 from a string, returning defaultValue if
// parsing fails.
func parseInt64(s string, defaultValue int64) int64 {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondStorageError maps storage sentinel errors to HTTP status codes.
func respondStorageError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, message, err)
	case errors.Is(err, storage.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, storage.ErrConflict):
		respondError(w, http.StatusConflict, message, err)
	default:
		respondError(w, http.StatusInternalServerError, message, err)
	}
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent; nothing more to do than log.
		log.Printf("handlers: failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}

	respondJSON(w, statusCode, errResp)
}
