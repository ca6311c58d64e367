// Package types defines the shared domain types for the Retreivo match engine:
// lost/found item reports, user claim history, and claim records exchanged
// between the HTTP layer, the scoring engine, and storage.
package types

import (
	"strings"
	"time"
)

// ItemType distinguishes lost reports from found reports.
type ItemType string

const (
	ItemTypeLost  ItemType = "lost"
	ItemTypeFound ItemType = "found"
)

// IsValid reports whether the item type is one of the known values.
func (t ItemType) IsValid() bool {
	return t == ItemTypeLost || t == ItemTypeFound
}

// Opposite returns the item type to search against: lost queries search
// found items and vice versa.
func (t ItemType) Opposite() ItemType {
	if t == ItemTypeLost {
		return ItemTypeFound
	}
	return ItemTypeLost
}

// DateLayout is the calendar date format carried by item reports.
const DateLayout = "2006-01-02"

// Item is a single lost or found report as submitted by the owning
// application. Items are treated as immutable inputs by the engine.
type Item struct {
	ID          int64    `json:"id,omitempty"`
	Type        ItemType `json:"type,omitempty"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Location    string   `json:"location"`

	// Date is a calendar date in YYYY-MM-DD form. Unparseable or missing
	// dates degrade time similarity to 0.0 rather than failing.
	Date string `json:"date,omitempty"`

	// Lat/Lng are optional coordinates. Both sides of a pair need them for
	// geo proximity to contribute.
	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`

	// Image is an opaque image payload (base64 or data URL) handed to the
	// image-feature port. The engine never decodes it itself.
	Image string `json:"image,omitempty"`
}

// CombinedText returns the name and description joined for text embedding,
// matching how reports are compared as free text.
func (i Item) CombinedText() string {
	return strings.TrimSpace(i.Name + " " + i.Description)
}

// ParseDate parses the item's calendar date. The boolean is false when the
// date is missing or malformed.
func (i Item) ParseDate() (time.Time, bool) {
	if i.Date == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, i.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// HasCoordinates reports whether both latitude and longitude are present.
func (i Item) HasCoordinates() bool {
	return i.Lat != nil && i.Lng != nil
}

// UserHistory summarises a claimer's recent activity for the fraud
// heuristics. Zero values mean "no history available".
type UserHistory struct {
	// RecentClaims is the number of claims the user opened recently.
	RecentClaims int `json:"recent_claims"`

	// SimilarClaims is the number of previous claims resembling this one.
	SimilarClaims int `json:"similar_claims"`
}
