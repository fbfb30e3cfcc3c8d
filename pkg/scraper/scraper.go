package scraper

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"time"

	"xtractor/pkg/auth"
	"xtractor/pkg/browser"
	"xtractor/pkg/challenge"
	"xtractor/pkg/config"
	"xtractor/pkg/dedup"
	"xtractor/pkg/extractor"
	"xtractor/pkg/fingerprint"
	"xtractor/pkg/humanize"
	"xtractor/pkg/logger"
	"xtractor/pkg/models"
	"xtractor/pkg/pagination"
	"xtractor/pkg/ratelimit"
	"xtractor/pkg/retry"
	"xtractor/pkg/session"
	"xtractor/pkg/storage"
	"xtractor/pkg/ui"
)

// Feed markup the orchestrator depends on
const (
	homeLinkSelector      = `a[data-testid="AppTabBar_Home_Link"]`
	searchInputSelector   = `input[data-testid="SearchBox_Search_Input"]`
	latestTabSelector     = `a[href*="f=live"]`
	usernameInputSelector = `input[autocomplete="username"]`
)

// TopicOutcome summarizes one topic's collection
type TopicOutcome struct {
	Topic          models.Topic
	Collected      int
	ScrollAttempts int
	Reason         pagination.StopReason
	CSVPath        string
	StatsPath      string
}

// RunSummary is the result of a full run
type RunSummary struct {
	Outcomes []TopicOutcome
	Started  time.Time
	Finished time.Time
}

// TotalCollected sums the collected posts across topics
func (r *RunSummary) TotalCollected() int {
	total := 0
	for _, o := range r.Outcomes {
		total += o.Collected
	}
	return total
}

// launchFunc abstracts browser startup so tests can substitute a fake
type launchFunc func(config.BrowserConfig, *fingerprint.Profile) (browser.Driver, error)

// Scraper orchestrates a collection run: one browser, one fingerprint,
// one session, topics processed strictly in sequence.
type Scraper struct {
	cfg       *config.Config
	profile   *fingerprint.Profile
	rng       *rand.Rand
	human     *humanize.Humanizer
	limiter   ratelimit.Limiter
	monitor   *challenge.Monitor
	extractor *extractor.Extractor
	index     *dedup.Index
	sessions  *session.Store
	output    *storage.Manager
	creds     *auth.Manager
	logger    logger.Logger

	launch launchFunc
	driver browser.Driver

	// operatorWait blocks until the operator confirms; swapped in tests
	operatorWait func(ctx context.Context, message string) error
}

// New creates a scraper from the resolved configuration
func New(cfg *config.Config) *Scraper {
	seed := cfg.Scrape.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	// Credential storage is optional; without it the operator types
	// everything at the login prompt
	creds, err := auth.NewManager()
	if err != nil {
		logger.GetLogger().WithError(err).Debug("Credential storage unavailable")
		creds = nil
	}

	s := &Scraper{
		cfg:       cfg,
		profile:   fingerprint.NewGenerator(rng).Generate(),
		rng:       rng,
		human:     humanize.New(rng),
		limiter:   ratelimit.NewNavigationLimiter(cfg.RateLimit.NavigationsPerMinute),
		monitor:   challenge.NewMonitor(),
		extractor: extractor.New(),
		index:     dedup.NewIndex(),
		sessions:  session.NewStore(cfg.Session.File, cfg.Session.MaxAge),
		output:    storage.NewManager(cfg.Output.BaseDirectory),
		creds:     creds,
		logger:    logger.GetLogger(),
		launch:    func(bc config.BrowserConfig, p *fingerprint.Profile) (browser.Driver, error) {
			return browser.Launch(bc, p)
		},
	}
	s.operatorWait = s.waitForOperator
	return s
}

// Run processes the topics in order and returns what was collected.
// A partially completed run still returns its summary; the session is
// persisted on the way out even when the context is cancelled.
func (s *Scraper) Run(ctx context.Context, topics []models.Topic) (*RunSummary, error) {
	// A stored session pins the user agent: presenting a session cookie
	// under a different identity is a detection signal
	stored, err := s.sessions.Load()
	if err != nil {
		return nil, err
	}
	if stored != nil {
		s.profile.UserAgent = stored.UserAgent
	}

	driver, err := s.launch(s.cfg.Browser, s.profile)
	if err != nil {
		return nil, err
	}
	s.driver = driver
	s.human.WithPointer(driver)
	defer func() {
		s.persistSession()
		if err := driver.Close(); err != nil {
			s.logger.WithError(err).Warn("Browser teardown failed")
		}
	}()

	if err := s.establishSession(ctx, stored); err != nil {
		return nil, err
	}
	s.persistSession()

	summary := &RunSummary{Started: time.Now()}
	first := true
	for i := 0; i < len(topics); {
		topic := topics[i]
		if err := ctx.Err(); err != nil {
			summary.Finished = time.Now()
			return summary, err
		}
		if !first {
			if err := s.cooldown(ctx); err != nil {
				summary.Finished = time.Now()
				return summary, err
			}
		}
		first = false

		outcome, err := s.collectTopic(ctx, topic)
		if outcome != nil {
			summary.Outcomes = append(summary.Outcomes, *outcome)
		}
		if err != nil {
			if ctx.Err() != nil {
				summary.Finished = time.Now()
				return summary, err
			}
			// An unhandled failure suspends the run instead of ending
			// it; only the operator aborting does that. The same topic
			// is retried once the operator resumes.
			s.logger.WithError(err).ErrorWithFields("Topic failed, suspending for operator", map[string]interface{}{
				"topic": topic.Tag,
			})
			if werr := s.recoverTopic(ctx, topic, err); werr != nil {
				summary.Finished = time.Now()
				return summary, werr
			}
			continue
		}
		i++
	}

	summary.Finished = time.Now()
	return summary, nil
}

// collectTopic navigates to one topic's feed, runs the scroll loop, and
// persists whatever was collected
func (s *Scraper) collectTopic(ctx context.Context, topic models.Topic) (*TopicOutcome, error) {
	s.index.Reset()

	if err := s.openTopicFeed(ctx, topic); err != nil {
		return nil, err
	}

	ctrl := pagination.NewController(pagination.Options{
		Driver:    s.driver,
		Extractor: s.extractor,
		Monitor:   s.monitor,
		Humanizer: s.human,
		Dedup:     s.index,
		Scrape:    s.cfg.Scrape,
		RateLimit: s.cfg.RateLimit,
		Intervene: s.awaitIntervention,
	})

	result, collectErr := ctrl.Collect(ctx, topic)
	if result == nil {
		return nil, collectErr
	}

	outcome := &TopicOutcome{
		Topic:          topic,
		Collected:      len(result.Posts),
		ScrollAttempts: result.ScrollAttempts,
		Reason:         result.Reason,
	}

	// Persist even a partial harvest
	if len(result.Posts) > 0 {
		csvPath, statsPath, err := s.output.SaveTopic(topic, result.Posts)
		if err != nil {
			s.logger.WithError(err).Error("Failed to persist topic output")
		} else {
			outcome.CSVPath = csvPath
			outcome.StatsPath = statsPath
		}
	}

	return outcome, collectErr
}

// openTopicFeed brings the page to the topic's live feed, either through
// the on-page search box or a direct URL
func (s *Scraper) openTopicFeed(ctx context.Context, topic models.Topic) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	s.logger.InfoWithFields("Opening topic feed", map[string]interface{}{
		"topic": topic.Tag,
	})

	// Vary the route: a client that always deep-links into search URLs
	// never touches the UI the way a person does
	if s.human.Chance(0.3) {
		if has, err := s.driver.ElementExists(ctx, searchInputSelector); err == nil && has {
			if err := s.searchForTopic(ctx, topic); err == nil {
				return nil
			}
			s.logger.Debug("Search box route failed, falling back to direct URL")
		}
	}

	target := s.topicURL(topic)
	return retry.Do(func() error {
		return s.driver.Navigate(ctx, target)
	}, &retry.Config{
		MaxAttempts: s.cfg.RateLimit.MaxRetries,
		Backoff:     &retry.ConstantBackoff{Delay: s.cfg.RateLimit.RetryDelay},
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      s.logger,
	})
}

// searchForTopic drives the on-page search box with human typing cadence
func (s *Scraper) searchForTopic(ctx context.Context, topic models.Topic) error {
	if err := s.driver.ClickElement(ctx, searchInputSelector); err != nil {
		return err
	}
	if err := s.typeLikeHuman(ctx, "#"+topic.Tag); err != nil {
		return err
	}
	if err := s.human.Delay(ctx, 500*time.Millisecond, 1500*time.Millisecond); err != nil {
		return err
	}
	if err := s.driver.PressEnter(ctx); err != nil {
		return err
	}
	if err := s.human.Delay(ctx, 2*time.Second, 4*time.Second); err != nil {
		return err
	}

	// Switch to the chronological feed when the tab is present
	if has, err := s.driver.ElementExists(ctx, latestTabSelector); err == nil && has {
		if err := s.driver.ClickElement(ctx, latestTabSelector); err != nil {
			return err
		}
		return s.human.Delay(ctx, time.Second, 3*time.Second)
	}
	return nil
}

// topicURL builds the direct link to the topic's chronological feed
func (s *Scraper) topicURL(topic models.Topic) string {
	query := url.QueryEscape("#" + topic.Tag)
	return fmt.Sprintf("%s/search?q=%s&src=typed_query&f=live", s.cfg.Browser.BaseURL, query)
}

// typeLikeHuman enters text one character at a time with jittered
// keystroke timing
func (s *Scraper) typeLikeHuman(ctx context.Context, text string) error {
	for _, r := range text {
		if err := s.driver.InsertText(ctx, string(r)); err != nil {
			return err
		}
		if err := s.human.Sleep(ctx, s.human.TypingDelay()); err != nil {
			return err
		}
		if pause, ok := s.human.TypingPause(); ok {
			if err := s.human.Sleep(ctx, pause); err != nil {
				return err
			}
		}
	}
	return nil
}

// cooldown idles between topics, occasionally wandering back to the home
// feed the way a person flips between tabs
func (s *Scraper) cooldown(ctx context.Context) error {
	s.logger.Debug("Cooling down before next topic")

	if err := s.human.Delay(ctx, 15*time.Second, 30*time.Second); err != nil {
		return err
	}

	if s.human.Chance(0.3) {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := s.driver.Navigate(ctx, s.cfg.Browser.BaseURL+"/home"); err != nil {
			s.logger.WithError(err).Debug("Home detour failed, continuing")
			return nil
		}
		if err := s.human.Delay(ctx, 3*time.Second, 6*time.Second); err != nil {
			return err
		}
		if err := s.human.MouseDrift(ctx); err != nil {
			return err
		}
	}
	return nil
}

// awaitIntervention suspends the run until the operator resolves a
// verification challenge in the browser window
func (s *Scraper) awaitIntervention(ctx context.Context) error {
	ui.PrintWarning("Verification challenge detected - resolve it in the browser window")
	return s.operatorWait(ctx, "Waiting for the challenge to be resolved.")
}

// recoverTopic pauses after a topic-level failure so the operator can
// repair the browser state before the topic is retried
func (s *Scraper) recoverTopic(ctx context.Context, topic models.Topic, cause error) error {
	ui.PrintError("Collection of #"+topic.Tag+" failed", cause)
	ui.PrintWarning("Check the browser window; the topic is retried after you continue")
	return s.operatorWait(ctx, "Resolve the problem, then press Enter to retry.")
}

// waitForOperator blocks on stdin but still honors cancellation
func (s *Scraper) waitForOperator(ctx context.Context, message string) error {
	done := make(chan error, 1)
	go func() {
		done <- ui.WaitForEnter(message)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// persistSession snapshots the browser's auth state to disk.
// Best-effort: failure never aborts the run.
func (s *Scraper) persistSession() {
	if s.driver == nil {
		return
	}

	// Runs during teardown too, after the run context may be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cookies, err := s.driver.Cookies(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Skipping session save, cookie read failed")
		return
	}
	if len(cookies) == 0 {
		s.logger.Debug("Skipping session save, no cookies captured yet")
		return
	}

	state, err := s.driver.StorageState(ctx)
	if err != nil {
		s.logger.WithError(err).Debug("Local storage snapshot failed")
		state = models.StorageState{}
	}

	sess := &session.Session{
		Cookies:      cookies,
		StorageState: state,
		UserAgent:    s.profile.UserAgent,
	}
	if err := s.sessions.Save(sess); err != nil {
		s.logger.WithError(err).Warn("Failed to save session")
	}
}
