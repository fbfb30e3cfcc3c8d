package challenge

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"xtractor/pkg/logger"
)

// Classification is the verdict on the current page state
type Classification int

const (
	// ClassificationNone means no challenge markers are present
	ClassificationNone Classification = iota
	// ClassificationBotChallenge means the platform is demanding human
	// verification; the run must suspend until an operator resolves it
	ClassificationBotChallenge
	// ClassificationRateLimited means the platform is throttling;
	// callers back off for a randomized interval and resume
	ClassificationRateLimited
)

func (c Classification) String() string {
	switch c {
	case ClassificationBotChallenge:
		return "bot_challenge"
	case ClassificationRateLimited:
		return "rate_limited"
	default:
		return "none"
	}
}

// Selectors whose presence indicates a human-verification prompt
var botChallengeSelectors = []string{
	`iframe[title*="recaptcha"]`,
	`div[class*="captcha"]`,
	`div[id*="captcha"]`,
	`[aria-label*="captcha"]`,
}

// Page phrases that indicate a challenge, matched case-insensitively
var botChallengePhrases = []string{
	"verify you are human",
}

var rateLimitPhrases = []string{
	"rate limit",
	"too many requests",
	"please wait",
	"try again later",
}

// Monitor classifies rendered page state into challenge categories.
// Detection is purely pattern-based; the remediation policy belongs to
// the caller.
type Monitor struct {
	logger logger.Logger
}

// NewMonitor creates a challenge monitor
func NewMonitor() *Monitor {
	return &Monitor{logger: logger.GetLogger()}
}

// Inspect classifies the page. Bot-challenge markers win over rate-limit
// phrasing when both appear: an unresolved verification prompt makes any
// throttling message moot.
func (m *Monitor) Inspect(pageHTML string) Classification {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		m.logger.WithError(err).Warn("Failed to parse page for challenge inspection")
		return ClassificationNone
	}

	for _, selector := range botChallengeSelectors {
		if doc.Find(selector).Length() > 0 {
			m.logger.WarnWithFields("Bot challenge detected", map[string]interface{}{
				"marker": selector,
			})
			return ClassificationBotChallenge
		}
	}

	bodyText := strings.ToLower(doc.Text())

	for _, phrase := range botChallengePhrases {
		if strings.Contains(bodyText, phrase) {
			m.logger.WarnWithFields("Bot challenge detected", map[string]interface{}{
				"marker": phrase,
			})
			return ClassificationBotChallenge
		}
	}

	for _, phrase := range rateLimitPhrases {
		if strings.Contains(bodyText, phrase) {
			m.logger.WarnWithFields("Rate limiting detected", map[string]interface{}{
				"marker": phrase,
			})
			return ClassificationRateLimited
		}
	}

	return ClassificationNone
}
