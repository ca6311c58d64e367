package engine

import (
	"math"
	"testing"
)

// TestTextSimilarity_ExactMatch verifies identical strings score 1.0
// regardless of case and surrounding whitespace
func TestTextSimilarity_ExactMatch(t *testing.T) {
	if got := TextSimilarity("Red Backpack", "red backpack"); got != 1.0 {
		t.Errorf("expected 1.0 for case-insensitive exact match, got %f", got)
	}
	if got := TextSimilarity("  red backpack  ", "red backpack"); got != 1.0 {
		t.Errorf("expected 1.0 for trimmed exact match, got %f", got)
	}
}

// TestTextSimilarity_EmptyInput verifies empty input on either side scores 0
func TestTextSimilarity_EmptyInput(t *testing.T) {
	if got := TextSimilarity("", "red backpack"); got != 0.0 {
		t.Errorf("expected 0.0 for empty left side, got %f", got)
	}
	if got := TextSimilarity("red backpack", ""); got != 0.0 {
		t.Errorf("expected 0.0 for empty right side, got %f", got)
	}
	if got := TextSimilarity("   ", "   "); got != 0.0 {
		t.Errorf("expected 0.0 for whitespace-only input, got %f", got)
	}
}

// TestTextSimilarity_Containment verifies substring containment scores a flat 0.7
func TestTextSimilarity_Containment(t *testing.T) {
	if got := TextSimilarity("backpack", "red backpack with zipper"); got != 0.7 {
		t.Errorf("expected 0.7 for containment, got %f", got)
	}
	if got := TextSimilarity("red backpack with zipper", "backpack"); got != 0.7 {
		t.Errorf("expected containment to be symmetric, got %f", got)
	}
}

// TestTextSimilarity_Symmetry verifies the blended measure is symmetric
func TestTextSimilarity_Symmetry(t *testing.T) {
	ab := TextSimilarity("black leather wallet", "leather wallet black color")
	ba := TextSimilarity("leather wallet black color", "black leather wallet")
	if math.Abs(ab-ba) > 0.001 {
		t.Errorf("expected symmetric similarity, got %f vs %f", ab, ba)
	}
}

// TestTextSimilarity_Bounds verifies the blend stays inside [0,1]
func TestTextSimilarity_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"red backpack", "silver ring"},
		{"iphone 13 pro", "samsung galaxy"},
		{"abc", "xyz"},
	}
	for _, pair := range pairs {
		got := TextSimilarity(pair[0], pair[1])
		if got < 0.0 || got > 1.0 {
			t.Errorf("similarity out of range for %q vs %q: %f", pair[0], pair[1], got)
		}
	}
}

// TestTextSimilarity_DisjointStrings verifies strings with no shared
// characters score 0
func TestTextSimilarity_DisjointStrings(t *testing.T) {
	if got := TextSimilarity("aaaa", "zzzz"); got != 0.0 {
		t.Errorf("expected 0.0 for disjoint strings, got %f", got)
	}
}

// TestTextSimilarity_NonAlphanumericDegradesToJaccard verifies symbol-only
// input falls back to word-set overlap
func TestTextSimilarity_NonAlphanumericDegradesToJaccard(t *testing.T) {
	got := TextSimilarity("*** !!!", "*** ???")
	want := JaccardSimilarity("*** !!!", "*** ???")
	if math.Abs(got-want) > 0.001 {
		t.Errorf("expected Jaccard fallback %f, got %f", want, got)
	}
}

// TestJaccardSimilarity verifies word-set overlap arithmetic
func TestJaccardSimilarity(t *testing.T) {
	// {red, backpack} vs {red, wallet}: intersection 1, union 3
	got := JaccardSimilarity("red backpack", "red wallet")
	if math.Abs(got-1.0/3.0) > 0.001 {
		t.Errorf("expected 1/3, got %f", got)
	}

	if got := JaccardSimilarity("red backpack", "red backpack"); got != 1.0 {
		t.Errorf("expected 1.0 for identical word sets, got %f", got)
	}
	if got := JaccardSimilarity("", "red backpack"); got != 0.0 {
		t.Errorf("expected 0.0 for empty word set, got %f", got)
	}
}
