package extractor

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"xtractor/pkg/logger"
	"xtractor/pkg/models"
)

// PostSelector matches one rendered post element in the feed. The
// pagination controller enumerates elements with it and hands each
// element's markup to Extract.
const PostSelector = `article[data-testid="tweet"]`

var (
	profileHrefPattern = regexp.MustCompile(`^/[^/]+$`)
	absoluteURLPattern = regexp.MustCompile(`^https?://`)
)

// Extractor maps one rendered post element's markup to a Post record.
// The platform's exact markup is an unstable external contract; every
// selector it depends on lives here so markup changes touch only this
// boundary.
type Extractor struct {
	logger logger.Logger
}

// New creates an extractor
func New() *Extractor {
	return &Extractor{logger: logger.GetLogger()}
}

// Extract pulls the structured fields from one element's rendered
// markup. It returns nil when the author or body text is missing; those
// are the only required fields and their absence invalidates the record.
// Per-element parse problems never produce a partially-filled Post.
func (e *Extractor) Extract(elementHTML string, collectedAt time.Time) (*models.Post, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(elementHTML))
	if err != nil {
		return nil, err
	}

	username := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if profileHrefPattern.MatchString(href) {
			username = strings.Trim(href, "/")
			return false
		}
		return true
	})

	timestamp := ""
	if timeEl := doc.Find("time").First(); timeEl.Length() > 0 {
		timestamp, _ = timeEl.Attr("datetime")
	}

	content := strings.TrimSpace(doc.Find(`div[data-testid="tweetText"]`).First().Text())

	if username == "" || content == "" {
		e.logger.DebugWithFields("Skipping element missing required fields", map[string]interface{}{
			"has_author": username != "",
			"has_body":   content != "",
		})
		return nil, nil
	}

	replies := ParseMetric(strings.TrimSpace(doc.Find(`div[data-testid="reply"]`).First().Text()))
	retweets := ParseMetric(strings.TrimSpace(doc.Find(`div[data-testid="retweet"]`).First().Text()))
	likes := ParseMetric(strings.TrimSpace(doc.Find(`div[data-testid="like"]`).First().Text()))

	var mentions []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !profileHrefPattern.MatchString(href) {
			return
		}
		text := strings.TrimSpace(s.Text())
		if strings.HasPrefix(text, "@") {
			mentions = append(mentions, text)
		}
	})

	var hashtags []string
	doc.Find(`a[href*="/hashtag/"]`).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			hashtags = append(hashtags, text)
		}
	})

	var urls []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if absoluteURLPattern.MatchString(href) && !strings.Contains(href, "twitter.com") {
			urls = append(urls, href)
		}
	})

	return &models.Post{
		Username:  username,
		Timestamp: timestamp,
		Content:   content,
		Replies:   replies,
		Retweets:  retweets,
		Likes:     likes,
		Mentions:  mentions,
		Hashtags:  hashtags,
		URLs:      urls,
		ScrapedAt: collectedAt,
	}, nil
}
