package extractor

import (
	"testing"
	"time"
)

const fullElement = `
<article data-testid="tweet">
  <a href="/trader_jane"><span>@trader_jane</span></a>
  <time datetime="2026-08-30T14:05:00.000Z">2h</time>
  <div data-testid="tweetText">Banks leading the rally today <a href="/hashtag/banknifty">#banknifty</a> watch <a href="https://charts.example.com/view/1">this chart</a></div>
  <div data-testid="reply">12</div>
  <div data-testid="retweet">1.2K</div>
  <div data-testid="like">3.4K</div>
  <a href="https://twitter.com/i/status/1">permalink</a>
</article>`

func TestExtractFullElement(t *testing.T) {
	collectedAt := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	post, err := New().Extract(fullElement, collectedAt)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if post == nil {
		t.Fatal("Expected a post, got absent")
	}

	if post.Username != "trader_jane" {
		t.Errorf("Expected username trader_jane, got %q", post.Username)
	}
	if post.Timestamp != "2026-08-30T14:05:00.000Z" {
		t.Errorf("Unexpected timestamp: %q", post.Timestamp)
	}
	if post.Replies != 12 {
		t.Errorf("Expected 12 replies, got %d", post.Replies)
	}
	if post.Retweets != 1200 {
		t.Errorf("Expected 1200 retweets, got %d", post.Retweets)
	}
	if post.Likes != 3400 {
		t.Errorf("Expected 3400 likes, got %d", post.Likes)
	}
	if len(post.Mentions) != 1 || post.Mentions[0] != "@trader_jane" {
		t.Errorf("Unexpected mentions: %v", post.Mentions)
	}
	if len(post.Hashtags) != 1 || post.Hashtags[0] != "#banknifty" {
		t.Errorf("Unexpected hashtags: %v", post.Hashtags)
	}
	if len(post.URLs) != 1 || post.URLs[0] != "https://charts.example.com/view/1" {
		t.Errorf("Expected only the external URL, got %v", post.URLs)
	}
	if !post.ScrapedAt.Equal(collectedAt) {
		t.Errorf("Expected scraped_at %v, got %v", collectedAt, post.ScrapedAt)
	}
}

func TestExtractRejectsMissingAuthor(t *testing.T) {
	html := `<article data-testid="tweet">
		<div data-testid="tweetText">orphaned body text</div>
	</article>`

	post, err := New().Extract(html, time.Now())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if post != nil {
		t.Error("Expected absent for an element with no author")
	}
}

func TestExtractRejectsMissingBody(t *testing.T) {
	html := `<article data-testid="tweet">
		<a href="/someuser">someuser</a>
		<div data-testid="like">5</div>
	</article>`

	post, err := New().Extract(html, time.Now())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if post != nil {
		t.Error("Expected absent for an element with no body text")
	}
}

func TestExtractMissingMetricsDefaultToZero(t *testing.T) {
	html := `<article data-testid="tweet">
		<a href="/someuser">someuser</a>
		<div data-testid="tweetText">no engagement rendered yet</div>
	</article>`

	post, err := New().Extract(html, time.Now())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if post == nil {
		t.Fatal("Expected a post")
	}
	if post.Replies != 0 || post.Retweets != 0 || post.Likes != 0 {
		t.Errorf("Expected zero metrics, got %d/%d/%d", post.Replies, post.Retweets, post.Likes)
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"12.3K", 12300},
		{"1.2M", 1200000},
		{"2B", 2000000000},
		{"500", 500},
		{"1,234", 1234},
		{"4.5k", 4500},
		{"", 0},
		{"Reply", 0},
	}

	for _, tt := range tests {
		if got := ParseMetric(tt.text); got != tt.want {
			t.Errorf("ParseMetric(%q): expected %d, got %d", tt.text, tt.want, got)
		}
	}
}
