package fingerprint

import (
	"math/rand"
	"testing"
)

func TestGenerateDrawsFromPools(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(1)))
	profile := gen.Generate()

	found := false
	for _, ua := range UserAgentPool() {
		if ua == profile.UserAgent {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("User agent %q not in the fixed pool", profile.UserAgent)
	}

	found = false
	for _, vp := range ViewportPool() {
		if vp == profile.Viewport {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Viewport %+v not in the fixed pool", profile.Viewport)
	}
}

func TestGenerateTemplateFields(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(2)))
	profile := gen.Generate()

	if profile.Locale != "en-US" {
		t.Errorf("Expected locale en-US, got %s", profile.Locale)
	}
	if profile.Timezone != "America/New_York" {
		t.Errorf("Expected timezone America/New_York, got %s", profile.Timezone)
	}
	if profile.Geolocation.Latitude != 40.7128 || profile.Geolocation.Longitude != -74.0060 {
		t.Errorf("Unexpected geolocation template: %+v", profile.Geolocation)
	}
	if profile.ExtraHeaders["Accept-Language"] != "en-US,en;q=0.9" {
		t.Error("Expected Accept-Language header in the template")
	}
}

func TestGenerateDeterministicUnderSeed(t *testing.T) {
	a := NewGenerator(rand.New(rand.NewSource(42))).Generate()
	b := NewGenerator(rand.New(rand.NewSource(42))).Generate()

	if a.UserAgent != b.UserAgent || a.Viewport != b.Viewport {
		t.Error("Expected identical profiles from identical seeds")
	}
}
