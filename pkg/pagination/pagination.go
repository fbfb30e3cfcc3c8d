package pagination

import (
	"context"
	"time"

	"xtractor/pkg/browser"
	"xtractor/pkg/challenge"
	"xtractor/pkg/config"
	"xtractor/pkg/dedup"
	errs "xtractor/pkg/errors"
	"xtractor/pkg/extractor"
	"xtractor/pkg/humanize"
	"xtractor/pkg/logger"
	"xtractor/pkg/models"
)

// StopReason records why a collection pass ended
type StopReason int

const (
	// StopTargetReached means the per-topic quota was filled
	StopTargetReached StopReason = iota
	// StopConverged means the feed stopped yielding new content
	StopConverged
	// StopAttemptCeiling means the scroll attempt budget ran out
	StopAttemptCeiling
)

func (r StopReason) String() string {
	switch r {
	case StopTargetReached:
		return "target_reached"
	case StopConverged:
		return "converged"
	case StopAttemptCeiling:
		return "attempt_ceiling"
	default:
		return "unknown"
	}
}

// Result is the outcome of collecting one topic's feed
type Result struct {
	Posts          []models.Post
	ScrollAttempts int
	Reason         StopReason
}

// InterventionFunc is invoked when the platform demands human
// verification. It blocks until an operator resolves the challenge or
// the context is cancelled.
type InterventionFunc func(ctx context.Context) error

// Options wires a Controller's collaborators
type Options struct {
	Driver    browser.Driver
	Extractor *extractor.Extractor
	Monitor   *challenge.Monitor
	Humanizer *humanize.Humanizer
	Dedup     *dedup.Index
	Scrape    config.ScrapeConfig
	RateLimit config.RateLimitConfig
	Intervene InterventionFunc
}

// Controller runs the scroll loop for one feed: harvest what is
// rendered, scroll, wait like a human, harvest again, and decide between
// continuing, recovering, and stopping. It owns the convergence policy;
// the Driver only executes gestures.
type Controller struct {
	driver    browser.Driver
	extractor *extractor.Extractor
	monitor   *challenge.Monitor
	human     *humanize.Humanizer
	index     *dedup.Index
	scrape    config.ScrapeConfig
	rateLimit config.RateLimitConfig
	intervene InterventionFunc
	logger    logger.Logger
	now       func() time.Time
}

// NewController creates a pagination controller
func NewController(opts Options) *Controller {
	return &Controller{
		driver:    opts.Driver,
		extractor: opts.Extractor,
		monitor:   opts.Monitor,
		human:     opts.Humanizer,
		index:     opts.Dedup,
		scrape:    opts.Scrape,
		rateLimit: opts.RateLimit,
		intervene: opts.Intervene,
		logger:    logger.GetLogger(),
		now:       time.Now,
	}
}

// Collect scrolls the current feed until the target count is reached,
// the feed converges, or the attempt budget runs out. The page must
// already be on the topic's feed.
func (c *Controller) Collect(ctx context.Context, topic models.Topic) (*Result, error) {
	target := topic.TargetCount
	if target <= 0 {
		target = c.scrape.TargetPerTopic
	}

	result := &Result{}
	stagnant := 0

	// The page just landed on the feed; a challenge can be waiting
	// before anything renders
	if err := c.checkChallenges(ctx); err != nil {
		return nil, err
	}

	// Harvest whatever rendered before the first scroll
	if _, err := c.harvest(ctx, result, target); err != nil {
		return nil, err
	}

	lastHeight, err := c.driver.DocumentHeight(ctx)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= c.scrape.MaxScrollAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if len(result.Posts) >= target {
			result.Reason = StopTargetReached
			c.logFinish(topic, result)
			return result, nil
		}

		if attempt%c.scrape.ChallengeCheckInterval == 0 {
			if err := c.checkChallenges(ctx); err != nil {
				return result, err
			}
		}

		result.ScrollAttempts = attempt

		if err := c.scroll(ctx); err != nil {
			return result, err
		}
		if err := c.pause(ctx, attempt); err != nil {
			return result, err
		}

		added, err := c.harvest(ctx, result, target)
		if err != nil {
			return result, err
		}

		// The document height is the growth signal: new posts can all be
		// repeats, but an unchanged height means nothing more rendered
		height, err := c.driver.DocumentHeight(ctx)
		if err != nil {
			return result, err
		}
		if height != lastHeight {
			stagnant = 0
			lastHeight = height
		} else {
			stagnant++
			c.logger.DebugWithFields("Feed height unchanged after scroll", map[string]interface{}{
				"topic":    topic.Tag,
				"stagnant": stagnant,
				"attempt":  attempt,
				"height":   height,
				"added":    added,
			})
		}

		if stagnant >= c.scrape.StagnantStopThreshold {
			result.Reason = StopConverged
			c.logFinish(topic, result)
			return result, nil
		}
		if stagnant == c.scrape.StagnantRecoverThreshold {
			if err := c.recover(ctx); err != nil {
				return result, err
			}
		}

		// Occasional longer break, like a reader pausing on something
		if c.human.Chance(0.1) {
			if err := c.human.Delay(ctx, 5*time.Second, 15*time.Second); err != nil {
				return result, err
			}
		}
	}

	result.Reason = StopAttemptCeiling
	c.logFinish(topic, result)
	return result, nil
}

// harvest extracts every rendered post element, suppresses repeats, and
// appends new records up to the target. It returns the number added.
func (c *Controller) harvest(ctx context.Context, result *Result, target int) (int, error) {
	elements, err := c.driver.ElementsHTML(ctx, extractor.PostSelector)
	if err != nil {
		return 0, err
	}

	added := 0
	collectedAt := c.now()
	for _, html := range elements {
		if len(result.Posts) >= target {
			break
		}

		post, err := c.extractor.Extract(html, collectedAt)
		if err != nil {
			c.logger.WithError(err).Debug("Skipping unparseable element")
			continue
		}
		if post == nil {
			continue
		}

		key := dedup.Key(post.Username, post.Content)
		if c.index.Seen(key) {
			continue
		}
		c.index.Insert(key)
		result.Posts = append(result.Posts, *post)
		added++
	}
	return added, nil
}

// checkChallenges inspects the page and applies the remediation policy:
// rate limiting backs off for a randomized interval, a bot challenge
// suspends the run until an operator clears it. Nothing is harvested
// while either pause is in effect.
func (c *Controller) checkChallenges(ctx context.Context) error {
	html, err := c.driver.PageHTML(ctx)
	if err != nil {
		return err
	}

	switch c.monitor.Inspect(html) {
	case challenge.ClassificationRateLimited:
		backoff := c.human.Uniform(c.rateLimit.RateLimitBackoffMin, c.rateLimit.RateLimitBackoffMax)
		c.logger.WarnWithFields("Backing off for rate limit", map[string]interface{}{
			"duration": backoff.String(),
		})
		return c.human.Sleep(ctx, backoff)
	case challenge.ClassificationBotChallenge:
		if c.intervene == nil {
			return errs.New(errs.ErrorTypeChallenge, "verification challenge requires an operator")
		}
		return c.intervene(ctx)
	}
	return nil
}

// scroll performs one of several gesture variants so successive passes
// do not produce identical input traces
func (c *Controller) scroll(ctx context.Context) error {
	switch c.human.Intn(4) {
	case 0:
		return c.driver.ScrollBy(ctx, 600+c.human.Intn(400))
	case 1:
		return c.driver.ScrollByViewportRatio(ctx, 0.6+0.3*float64(c.human.Intn(10))/10)
	case 2:
		return c.driver.SmoothScrollBy(ctx, 500+c.human.Intn(400), 800+c.human.Intn(700))
	default:
		return c.driver.WheelScroll(ctx, 400+c.human.Intn(400))
	}
}

// pause waits between scrolls, slowing down as the session ages; fast
// constant-rate scrolling deep into a feed is a bot signature
func (c *Controller) pause(ctx context.Context, attempt int) error {
	switch {
	case attempt < 10:
		return c.human.Delay(ctx, 2*time.Second, 4*time.Second)
	case attempt < 30:
		return c.human.Delay(ctx, 3*time.Second, 6*time.Second)
	default:
		return c.human.Delay(ctx, 4*time.Second, 8*time.Second)
	}
}

// recover nudges a stalled feed by jumping to the top, pausing, and
// returning to the bottom, which often retriggers lazy loading
func (c *Controller) recover(ctx context.Context) error {
	c.logger.Info("Feed stalled, attempting scroll recovery")

	if err := c.driver.ScrollToTop(ctx); err != nil {
		return err
	}
	if err := c.human.Delay(ctx, time.Second, 2*time.Second); err != nil {
		return err
	}
	if err := c.driver.ScrollToBottom(ctx); err != nil {
		return err
	}
	return c.human.Delay(ctx, 2*time.Second, 3*time.Second)
}

func (c *Controller) logFinish(topic models.Topic, result *Result) {
	c.logger.InfoWithFields("Topic collection finished", map[string]interface{}{
		"topic":    topic.Tag,
		"posts":    len(result.Posts),
		"attempts": result.ScrollAttempts,
		"reason":   result.Reason.String(),
	})
}
