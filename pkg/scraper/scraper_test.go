package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"xtractor/pkg/browser"
	"xtractor/pkg/config"
	"xtractor/pkg/fingerprint"
	"xtractor/pkg/models"
	"xtractor/pkg/pagination"
	"xtractor/pkg/session"
)

// stubDriver fakes an authenticated browser showing a static feed
type stubDriver struct {
	navigated []string
	cookies   []models.Cookie
	elements  []string
	exists    map[string]bool
	closed    bool
	navErr    func(url string) error
}

func (d *stubDriver) Navigate(_ context.Context, url string) error {
	d.navigated = append(d.navigated, url)
	if d.navErr != nil {
		return d.navErr(url)
	}
	return nil
}
func (d *stubDriver) CurrentURL(context.Context) (string, error) {
	if len(d.navigated) == 0 {
		return "about:blank", nil
	}
	return d.navigated[len(d.navigated)-1], nil
}
func (d *stubDriver) PageHTML(context.Context) (string, error) {
	return "<html><body></body></html>", nil
}
func (d *stubDriver) ElementsHTML(context.Context, string) ([]string, error) {
	return d.elements, nil
}
func (d *stubDriver) DocumentHeight(context.Context) (int, error)         { return 2000, nil }
func (d *stubDriver) ScrollBy(context.Context, int) error                 { return nil }
func (d *stubDriver) ScrollByViewportRatio(context.Context, float64) error { return nil }
func (d *stubDriver) SmoothScrollBy(context.Context, int, int) error      { return nil }
func (d *stubDriver) WheelScroll(context.Context, int) error              { return nil }
func (d *stubDriver) ScrollToTop(context.Context) error                   { return nil }
func (d *stubDriver) ScrollToBottom(context.Context) error                { return nil }
func (d *stubDriver) MouseMove(context.Context, float64, float64) error   { return nil }
func (d *stubDriver) ElementExists(_ context.Context, selector string) (bool, error) {
	return d.exists[selector], nil
}
func (d *stubDriver) ClickElement(context.Context, string) error { return nil }
func (d *stubDriver) InsertText(context.Context, string) error   { return nil }
func (d *stubDriver) PressEnter(context.Context) error           { return nil }
func (d *stubDriver) Cookies(context.Context) ([]models.Cookie, error) {
	return d.cookies, nil
}
func (d *stubDriver) SetCookies(_ context.Context, cookies []models.Cookie) error {
	d.cookies = cookies
	return nil
}
func (d *stubDriver) StorageState(context.Context) (models.StorageState, error) {
	return models.StorageState{"device_id": "stub"}, nil
}
func (d *stubDriver) RestoreStorageState(context.Context, models.StorageState) error {
	return nil
}
func (d *stubDriver) Close() error {
	d.closed = true
	return nil
}

func feedElement(user, text string) string {
	return `<article data-testid="tweet"><a href="/` + user + `">@` + user + `</a>` +
		`<time datetime="2024-01-15T12:00:00Z"></time>` +
		`<div data-testid="tweetText">` + text + `</div></article>`
}

func writeSessionFile(t *testing.T, path, userAgent string) {
	t.Helper()
	sess := session.Session{
		Cookies: []models.Cookie{
			{Name: "auth_token", Value: "stub", Domain: ".twitter.com", Path: "/"},
		},
		StorageState: models.StorageState{"device_id": "stub"},
		UserAgent:    userAgent,
		Timestamp:    time.Now(),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("Failed to marshal session: %v", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("Failed to write session file: %v", err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Session.File = filepath.Join(dir, "session.json")
	cfg.Output.BaseDirectory = filepath.Join(dir, "out")
	cfg.Scrape.RandomSeed = 1
	return cfg
}

func newTestScraper(t *testing.T, cfg *config.Config, driver *stubDriver) *Scraper {
	t.Helper()
	s := New(cfg)
	s.launch = func(config.BrowserConfig, *fingerprint.Profile) (browser.Driver, error) {
		return driver, nil
	}
	s.human.WithSleep(func(ctx context.Context, d time.Duration) error {
		return ctx.Err()
	})
	return s
}

func TestRunCollectsAndPersists(t *testing.T) {
	cfg := testConfig(t)
	writeSessionFile(t, cfg.Session.File, "TestAgent/1.0")

	driver := &stubDriver{
		elements: []string{
			feedElement("alice", "first post"),
			feedElement("bob", "second post"),
		},
		exists: map[string]bool{homeLinkSelector: true},
	}

	s := newTestScraper(t, cfg, driver)

	summary, err := s.Run(context.Background(), []models.Topic{{Tag: "golang", TargetCount: 2}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(summary.Outcomes) != 1 {
		t.Fatalf("Expected 1 outcome, got %d", len(summary.Outcomes))
	}
	outcome := summary.Outcomes[0]
	if outcome.Collected != 2 {
		t.Errorf("Expected 2 posts collected, got %d", outcome.Collected)
	}
	if outcome.Reason != pagination.StopTargetReached {
		t.Errorf("Expected target reached, got %s", outcome.Reason)
	}
	if outcome.CSVPath == "" {
		t.Fatal("Expected a CSV path in the outcome")
	}
	if _, err := os.Stat(outcome.CSVPath); err != nil {
		t.Errorf("CSV file not written: %v", err)
	}
	if _, err := os.Stat(outcome.StatsPath); err != nil {
		t.Errorf("Stats file not written: %v", err)
	}
	if !driver.closed {
		t.Error("Browser was not closed after the run")
	}

	// The stored session pins the fingerprint's user agent
	if s.profile.UserAgent != "TestAgent/1.0" {
		t.Errorf("Expected session user agent to be reused, got %s", s.profile.UserAgent)
	}
}

func TestRunNavigatesToLiveFeed(t *testing.T) {
	cfg := testConfig(t)
	writeSessionFile(t, cfg.Session.File, "TestAgent/1.0")

	driver := &stubDriver{
		elements: []string{feedElement("alice", "only post")},
		exists:   map[string]bool{homeLinkSelector: true},
	}

	s := newTestScraper(t, cfg, driver)

	if _, err := s.Run(context.Background(), []models.Topic{{Tag: "golang", TargetCount: 1}}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var feedURL string
	for _, u := range driver.navigated {
		if strings.Contains(u, "/search") {
			feedURL = u
		}
	}
	if feedURL == "" {
		t.Fatalf("No search navigation recorded: %v", driver.navigated)
	}
	if !strings.Contains(feedURL, "q=%23golang") {
		t.Errorf("Expected escaped hashtag in URL, got %s", feedURL)
	}
	if !strings.Contains(feedURL, "f=live") {
		t.Errorf("Expected chronological feed parameter, got %s", feedURL)
	}
}

func TestRunSavesSessionOnExit(t *testing.T) {
	cfg := testConfig(t)
	writeSessionFile(t, cfg.Session.File, "TestAgent/1.0")

	driver := &stubDriver{
		elements: []string{feedElement("alice", "only post")},
		exists:   map[string]bool{homeLinkSelector: true},
	}

	s := newTestScraper(t, cfg, driver)
	if _, err := s.Run(context.Background(), []models.Topic{{Tag: "golang", TargetCount: 1}}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	store := session.NewStore(cfg.Session.File, cfg.Session.MaxAge)
	saved, err := store.Load()
	if err != nil {
		t.Fatalf("Failed to load saved session: %v", err)
	}
	if saved == nil {
		t.Fatal("Expected a saved session after the run")
	}
	if saved.UserAgent != "TestAgent/1.0" {
		t.Errorf("Unexpected user agent in saved session: %s", saved.UserAgent)
	}
}

func TestRunPausesAndRetriesFailedTopic(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.MaxRetries = 2
	cfg.RateLimit.RetryDelay = time.Millisecond
	cfg.RateLimit.NavigationsPerMinute = 6000
	writeSessionFile(t, cfg.Session.File, "TestAgent/1.0")

	driver := &stubDriver{
		elements: []string{feedElement("alice", "only post")},
		exists:   map[string]bool{homeLinkSelector: true},
	}
	navFailures := 0
	driver.navErr = func(url string) error {
		if strings.Contains(url, "/search") {
			navFailures++
			return errors.New("net::ERR_CONNECTION_RESET")
		}
		return nil
	}

	s := newTestScraper(t, cfg, driver)
	pauses := 0
	s.operatorWait = func(ctx context.Context, _ string) error {
		pauses++
		driver.navErr = nil
		return nil
	}

	summary, err := s.Run(context.Background(), []models.Topic{{Tag: "golang", TargetCount: 1}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if pauses != 1 {
		t.Errorf("Expected one operator pause, got %d", pauses)
	}
	if navFailures != 2 {
		t.Errorf("Expected both navigation attempts to fail before the pause, got %d", navFailures)
	}
	if len(summary.Outcomes) != 1 {
		t.Fatalf("Expected the retried topic to produce one outcome, got %d", len(summary.Outcomes))
	}
	if summary.Outcomes[0].Collected != 1 {
		t.Errorf("Expected 1 post from the retried topic, got %d", summary.Outcomes[0].Collected)
	}
}

func TestRunEndsWhenOperatorAborts(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.MaxRetries = 1
	cfg.RateLimit.RetryDelay = time.Millisecond
	writeSessionFile(t, cfg.Session.File, "TestAgent/1.0")

	driver := &stubDriver{
		elements: []string{feedElement("alice", "only post")},
		exists:   map[string]bool{homeLinkSelector: true},
	}
	driver.navErr = func(url string) error {
		if strings.Contains(url, "/search") {
			return errors.New("net::ERR_CONNECTION_RESET")
		}
		return nil
	}

	s := newTestScraper(t, cfg, driver)
	s.operatorWait = func(ctx context.Context, _ string) error {
		return context.Canceled
	}

	if _, err := s.Run(context.Background(), []models.Topic{{Tag: "golang", TargetCount: 1}}); err == nil {
		t.Error("Expected the run to end when the operator aborts")
	}
}

func TestRunSkipsSessionSaveWithoutCookies(t *testing.T) {
	cfg := testConfig(t)

	driver := &stubDriver{
		elements: []string{feedElement("alice", "only post")},
		exists:   map[string]bool{homeLinkSelector: true},
	}

	s := newTestScraper(t, cfg, driver)
	s.operatorWait = func(context.Context, string) error { return nil }

	if _, err := s.Run(context.Background(), []models.Topic{{Tag: "golang", TargetCount: 1}}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if _, err := os.Stat(cfg.Session.File); !os.IsNotExist(err) {
		t.Errorf("Expected no session file when the browser holds no cookies, stat err: %v", err)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	cfg := testConfig(t)
	writeSessionFile(t, cfg.Session.File, "TestAgent/1.0")

	driver := &stubDriver{
		elements: []string{feedElement("alice", "only post")},
		exists:   map[string]bool{homeLinkSelector: true},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestScraper(t, cfg, driver)
	if _, err := s.Run(ctx, []models.Topic{{Tag: "golang"}}); err == nil {
		t.Error("Expected error from cancelled context")
	}
}

func TestTopicURL(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg)

	got := s.topicURL(models.Topic{Tag: "opensource"})
	want := "https://twitter.com/search?q=%23opensource&src=typed_query&f=live"
	if got != want {
		t.Errorf("topicURL: got %s, want %s", got, want)
	}
}
