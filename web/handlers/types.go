package handlers

import (
	"github.com/retreivo/matchengine/internal/engine"
	"github.com/retreivo/matchengine/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthResponse is the response format for GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	LostItems  int    `json:"lost_items"`
	FoundItems int    `json:"found_items"`
}

// PairRequest is the request body shared by the pair-scoring endpoints.
type PairRequest struct {
	LostItem    types.Item         `json:"lost_item"`
	FoundItem   types.Item         `json:"found_item"`
	UserHistory *types.UserHistory `json:"user_history,omitempty"`
}

// DetectFraudRequest is the request body for POST /api/detect-fraud.
type DetectFraudRequest struct {
	Item        types.Item         `json:"item"`
	UserHistory *types.UserHistory `json:"user_history,omitempty"`
}

// DetectFraudResponse pairs the heuristic result with its recommended handling.
type DetectFraudResponse struct {
	engine.FraudAssessment
	Analysis engine.FraudAnalysis `json:"analysis"`
}

// StoreItemRequest is the request body for POST /api/store-item.
type StoreItemRequest struct {
	Item types.Item `json:"item"`
}

// StoreItemResponse reports the stored record.
type StoreItemResponse struct {
	Success       bool  `json:"success"`
	ItemID        int64 `json:"item_id"`
	FeaturesSaved bool  `json:"features_saved"`
}

// MatchItemRequest is the request body for POST /api/match-item.
type MatchItemRequest struct {
	Item types.Item `json:"item"`
}

// MatchItemResponse carries the ranked candidates for a query report.
type MatchItemResponse struct {
	Matches      []engine.MatchResult `json:"matches"`
	TotalMatches int                  `json:"total_matches"`
	BestScore    float64              `json:"best_score"`
	NextStep     string               `json:"next_step"`
}

// SearchByImageRequest is the request body for POST /api/search-by-image.
type SearchByImageRequest struct {
	ItemType types.ItemType `json:"item_type"`
	Image    string         `json:"image"`
	Limit    int            `json:"limit,omitempty"`
}

// SearchByImageResponse carries the ranked image-search candidates.
type SearchByImageResponse struct {
	Results []engine.ImageResult `json:"results"`
	Total   int                  `json:"total"`
}

// CreateClaimRequest is the request body for POST /api/claims. The item
// payloads are optional; when both are present the claim is scored at
// creation time.
type CreateClaimRequest struct {
	LostItemID    int64              `json:"lost_item_id"`
	FoundItemID   int64              `json:"found_item_id"`
	ClaimerUserID int64              `json:"claimer_user_id"`
	LostItem      *types.Item        `json:"lost_item,omitempty"`
	FoundItem     *types.Item        `json:"found_item,omitempty"`
	UserHistory   *types.UserHistory `json:"user_history,omitempty"`
}

// ClaimResponse is the wire form of a claim record.
type ClaimResponse struct {
	ClaimID       int64    `json:"claim_id"`
	LostItemID    int64    `json:"lost_item_id"`
	FoundItemID   int64    `json:"found_item_id"`
	ClaimerUserID int64    `json:"claimer_user_id"`
	Status        string   `json:"status"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
	MatchScore    *float64 `json:"match_score"`
	FraudScore    *float64 `json:"fraud_score"`
}

// UpdateClaimRequest is the request body for POST /api/claims/update.
type UpdateClaimRequest struct {
	ClaimID int64  `json:"claim_id"`
	Status  string `json:"status"`
}

// PairStatusResponse is the response format for GET /api/claims/status.
type PairStatusResponse struct {
	Claimed            bool    `json:"claimed"`
	ClaimerUserID      *int64  `json:"claimer_user_id"`
	ClaimDate          *string `json:"claim_date"`
	TotalPendingClaims int     `json:"total_pending_claims"`
}
