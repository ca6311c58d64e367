package engine

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultRules verifies the built-in lists are populated
func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	if len(rules.SuspiciousKeywords) == 0 {
		t.Error("expected default suspicious keywords")
	}
	if len(rules.PairKeywords) == 0 {
		t.Error("expected default pair keywords")
	}
	if len(rules.GenericPhrases) == 0 {
		t.Error("expected default generic phrases")
	}
	if len(rules.VagueLocations) == 0 {
		t.Error("expected default vague locations")
	}
}

// TestLoadRules_PartialOverride verifies overridden lists replace defaults
// while absent lists keep them
func TestLoadRules_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "suspicious_keywords:\n  - crypto\n  - wire transfer\nvague_locations:\n  - somewhere\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}

	if len(rules.SuspiciousKeywords) != 2 || rules.SuspiciousKeywords[0] != "crypto" {
		t.Errorf("expected overridden suspicious keywords, got %v", rules.SuspiciousKeywords)
	}
	if len(rules.VagueLocations) != 1 || rules.VagueLocations[0] != "somewhere" {
		t.Errorf("expected overridden vague locations, got %v", rules.VagueLocations)
	}

	defaults := DefaultRules()
	if len(rules.PairKeywords) != len(defaults.PairKeywords) {
		t.Errorf("expected default pair keywords, got %v", rules.PairKeywords)
	}
	if len(rules.GenericPhrases) != len(defaults.GenericPhrases) {
		t.Errorf("expected default generic phrases, got %v", rules.GenericPhrases)
	}
}

// TestLoadRules_MissingFile verifies a missing file is an error
func TestLoadRules_MissingFile(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing rules file")
	}
}

// TestLoadRules_MalformedYAML verifies parse failures surface
func TestLoadRules_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("suspicious_keywords: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

// TestFraudEngine_CustomRules verifies overridden keywords drive the heuristic
func TestFraudEngine_CustomRules(t *testing.T) {
	rules := DefaultRules()
	rules.SuspiciousKeywords = []string{"alpha", "beta", "gamma", "delta", "epsilon"}

	fraud := NewFraudEngine(rules, nil)
	item := testReport("lost", "notebook", "stationery", "alpha beta gamma delta epsilon notebook markings", "main street cafe", "2025-03-10")

	result := fraud.ScoreItem(item, nil)
	if !containsIndicator(result.Indicators, "Multiple suspicious keywords detected (5)") {
		t.Errorf("expected custom keywords to trigger, got %v", result.Indicators)
	}
}
