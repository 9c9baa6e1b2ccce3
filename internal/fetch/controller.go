package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/dolapscan/dolapscan/internal/parse"
)

// RequestKind tells the controller what the caller is fetching. It only
// affects logging; pacing and ban policy are identical for all kinds.
type RequestKind string

// Request kinds.
const (
	KindCategory RequestKind = "category"
	KindListing  RequestKind = "listing"
	KindStatus   RequestKind = "status"
)

// Executor is what the crawler and labeler see: a single entry point for
// every network request. The Controller is the only implementation outside
// of tests.
type Executor interface {
	Execute(ctx context.Context, target string, kind RequestKind) (*Result, error)
}

// blockingStatus reports whether an HTTP status is an anti-bot response.
// 404/410 are not blocking: they are an answer about the listing, and a
// valid one for ban accounting.
func blockingStatus(code int) bool {
	return code == 403 || code == 429 || code == 503
}

// transientStatus reports whether a status is worth retrying.
func transientStatus(code int) bool {
	return code >= 500 && code != 503
}

// BanSnapshot is a point-in-time view of a controller's ban state.
type BanSnapshot struct {
	// ConsecutiveBlocks is the current blocking streak.
	ConsecutiveBlocks int

	// Paused reports whether the controller refuses requests.
	Paused bool

	// PausedUntil is the cool-down expiry, zero when not paused.
	PausedUntil time.Time

	// LastIdentity is the user agent used for the most recent request.
	LastIdentity string

	// TotalRequests and TotalBlocked are lifetime counters.
	TotalRequests int
	TotalBlocked  int
}

// ControllerConfig carries the pacing, retry and ban parameters.
type ControllerConfig struct {
	// DelayMin and DelayMax bound the randomized pre-request sleep.
	DelayMin time.Duration
	DelayMax time.Duration

	// MaxRetries is the retry budget for transient failures. The total
	// attempt count is MaxRetries + 1.
	MaxRetries int

	// BackoffBase is the first retry delay, doubled per retry and capped
	// at BackoffMax.
	BackoffBase time.Duration
	BackoffMax  time.Duration

	// BanThreshold is the consecutive blocking count that pauses the
	// controller.
	BanThreshold int

	// Cooldown is how long a pause lasts.
	Cooldown time.Duration

	// Identities is the user agent pool, drawn from uniformly per request.
	Identities []string
}

// Controller is the anti-ban gateway in front of a Renderer. All request
// pacing, identity rotation, retrying and ban detection lives here so the
// crawler and labeler stay policy-free.
//
// A Controller owns its Renderer exclusively and is safe for use from a
// single goroutine. Horizontal scale-out uses one Controller per session,
// each with an independent ban budget, never a shared one.
type Controller struct {
	renderer Renderer
	cfg      ControllerConfig
	logger   *slog.Logger

	// now and sleep are replaceable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	rng *rand.Rand

	mu                sync.Mutex
	consecutiveBlocks int
	pausedUntil       time.Time
	lastIdentity      string
	totalRequests     int
	totalBlocked      int
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClock replaces the time source. Tests use a fake clock to step
// through cool-down expiry without sleeping.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.now = now
	}
}

// WithSleeper replaces the pacing/backoff sleep. Tests use a no-op sleeper.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) ControllerOption {
	return func(c *Controller) {
		c.sleep = sleep
	}
}

// WithRandSource seeds the controller's random source for deterministic
// pacing and identity draws in tests.
func WithRandSource(seed int64) ControllerOption {
	return func(c *Controller) {
		c.rng = rand.New(rand.NewSource(seed))
	}
}

// NewController creates a Controller over the given renderer.
func NewController(renderer Renderer, cfg ControllerConfig, opts ...ControllerOption) *Controller {
	c := &Controller{
		renderer: renderer,
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	c.sleep = ctxSleep
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ctxSleep sleeps for d or until the context is canceled.
func ctxSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Execute fetches target through the renderer under the full anti-ban
// policy. On a blocking response it returns a *BlockingError (or a
// *BannedError when the response tripped the threshold); the rendered
// result is returned alongside so callers can log what came back.
func (c *Controller) Execute(ctx context.Context, target string, kind RequestKind) (*Result, error) {
	if err := c.checkPaused(); err != nil {
		return nil, err
	}

	if err := c.sleep(ctx, c.pacingDelay()); err != nil {
		return nil, err
	}

	identity := c.pickIdentity()

	var lastErr error
	attempts := c.cfg.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := c.renderer.Render(ctx, target, identity)
		c.countRequest(identity)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.logger.Debug("transient render failure",
				"url", target, "kind", string(kind), "attempt", attempt, "error", err)
			if attempt < attempts {
				if serr := c.sleep(ctx, c.jitteredBackoff(attempt)); serr != nil {
					return nil, serr
				}
			}
			continue
		}

		if blockingStatus(result.StatusCode) || parse.IsChallengePage(result.HTML) {
			return c.recordBlock(target, result)
		}

		if transientStatus(result.StatusCode) {
			lastErr = fmt.Errorf("server error %d", result.StatusCode)
			c.logger.Debug("transient server error",
				"url", target, "kind", string(kind), "status", result.StatusCode, "attempt", attempt)
			if attempt < attempts {
				if serr := c.sleep(ctx, c.jitteredBackoff(attempt)); serr != nil {
					return nil, serr
				}
			}
			continue
		}

		// Any readable answer, 404 and 410 included, ends the streak.
		c.resetStreak()
		return result, nil
	}

	return nil, &FetchFailedError{URL: target, Attempts: attempts, Err: lastErr}
}

// Resume lifts a pause manually and clears the blocking streak. The
// operator uses this after verifying the site is reachable again.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pausedUntil = time.Time{}
	c.consecutiveBlocks = 0
}

// Snapshot returns the current ban state.
func (c *Controller) Snapshot() BanSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	paused := !c.pausedUntil.IsZero() && c.now().Before(c.pausedUntil)
	return BanSnapshot{
		ConsecutiveBlocks: c.consecutiveBlocks,
		Paused:            paused,
		PausedUntil:       c.pausedUntil,
		LastIdentity:      c.lastIdentity,
		TotalRequests:     c.totalRequests,
		TotalBlocked:      c.totalBlocked,
	}
}

// Close closes the underlying renderer.
func (c *Controller) Close() error {
	return c.renderer.Close()
}

// checkPaused refuses the request while the cool-down runs. An expired
// cool-down resets the streak and lets the request through.
func (c *Controller) checkPaused() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pausedUntil.IsZero() {
		return nil
	}
	if c.now().Before(c.pausedUntil) {
		return &BannedError{
			Consecutive: c.consecutiveBlocks,
			PausedUntil: c.pausedUntil,
		}
	}
	c.logger.Info("cool-down expired, resuming", "paused_until", c.pausedUntil)
	c.pausedUntil = time.Time{}
	c.consecutiveBlocks = 0
	return nil
}

// pacingDelay draws a uniform delay from [DelayMin, DelayMax].
func (c *Controller) pacingDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	spread := c.cfg.DelayMax - c.cfg.DelayMin
	if spread <= 0 {
		return c.cfg.DelayMin
	}
	return c.cfg.DelayMin + time.Duration(c.rng.Int63n(int64(spread)))
}

// pickIdentity draws a user agent from the pool.
func (c *Controller) pickIdentity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cfg.Identities) == 0 {
		return ""
	}
	return c.cfg.Identities[c.rng.Intn(len(c.cfg.Identities))]
}

// countRequest updates the lifetime counters.
func (c *Controller) countRequest(identity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
	c.lastIdentity = identity
}

// resetStreak clears the consecutive blocking counter.
func (c *Controller) resetStreak() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveBlocks = 0
}

// recordBlock increments the streak and either pauses the controller or
// reports a single blocking response.
func (c *Controller) recordBlock(target string, result *Result) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveBlocks++
	c.totalBlocked++
	challenge := parse.IsChallengePage(result.HTML)

	if c.consecutiveBlocks >= c.cfg.BanThreshold {
		c.pausedUntil = c.now().Add(c.cfg.Cooldown)
		c.logger.Warn("ban threshold reached, pausing",
			"url", target,
			"consecutive", c.consecutiveBlocks,
			"paused_until", c.pausedUntil)
		return result, &BannedError{
			URL:         target,
			Consecutive: c.consecutiveBlocks,
			PausedUntil: c.pausedUntil,
		}
	}

	c.logger.Warn("blocking response",
		"url", target,
		"status", result.StatusCode,
		"challenge", challenge,
		"consecutive", c.consecutiveBlocks)
	return result, &BlockingError{
		URL:         target,
		StatusCode:  result.StatusCode,
		Challenge:   challenge,
		Consecutive: c.consecutiveBlocks,
	}
}

// backoffDelay is the undithered retry delay for the given attempt number
// (1-based): BackoffBase doubled per retry, capped at BackoffMax. Kept pure
// so the growth schedule is directly testable; jitter is applied by
// jitteredBackoff at sleep time.
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// jitteredBackoff spreads the backoff delay over [d/2, d] so parallel
// sessions don't retry in lockstep.
func (c *Controller) jitteredBackoff(attempt int) time.Duration {
	d := backoffDelay(c.cfg.BackoffBase, c.cfg.BackoffMax, attempt)
	if d <= 0 {
		return 0
	}
	half := d / 2
	c.mu.Lock()
	defer c.mu.Unlock()
	return half + time.Duration(c.rng.Int63n(int64(half)+1))
}
