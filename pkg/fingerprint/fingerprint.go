package fingerprint

import (
	"math/rand"
)

// Viewport holds browser window dimensions
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Geolocation holds the spoofed position
type Geolocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Profile is a randomized-but-plausible client identity. It is generated
// once per run and must never change mid-session: a fingerprint that
// mutates under the platform's nose is itself a detection signal.
type Profile struct {
	UserAgent    string            `json:"user_agent"`
	Viewport     Viewport          `json:"viewport"`
	Locale       string            `json:"locale"`
	Timezone     string            `json:"timezone"`
	Geolocation  Geolocation       `json:"geolocation"`
	ExtraHeaders map[string]string `json:"-"`
}

// Fixed pools of realistic client identities. Drawn uniformly at random.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
}

var viewports = []Viewport{
	{Width: 1920, Height: 1080},
	{Width: 1366, Height: 768},
	{Width: 1536, Height: 864},
	{Width: 1440, Height: 900},
	{Width: 1280, Height: 720},
	{Width: 2560, Height: 1440},
}

// Generator produces fingerprint profiles from an injectable randomness
// source so selection is deterministic under a seeded source
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator backed by the given randomness source
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate draws a profile uniformly at random from the fixed pools,
// paired with the fixed locale/timezone/geolocation template
func (g *Generator) Generate() *Profile {
	return &Profile{
		UserAgent: userAgents[g.rng.Intn(len(userAgents))],
		Viewport:  viewports[g.rng.Intn(len(viewports))],
		Locale:    "en-US",
		Timezone:  "America/New_York",
		Geolocation: Geolocation{
			Latitude:  40.7128,
			Longitude: -74.0060,
		},
		ExtraHeaders: map[string]string{
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.9",
			"DNT":                       "1",
			"Upgrade-Insecure-Requests": "1",
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "none",
			"Sec-Fetch-User":            "?1",
		},
	}
}

// UserAgentPool returns the fixed pool of user agents
func UserAgentPool() []string {
	pool := make([]string, len(userAgents))
	copy(pool, userAgents)
	return pool
}

// ViewportPool returns the fixed pool of viewports
func ViewportPool() []Viewport {
	pool := make([]Viewport, len(viewports))
	copy(pool, viewports)
	return pool
}
