package pipeline

import (
	"log/slog"
	"strings"
	"time"

	"github.com/dolapscan/dolapscan/internal/config"
	"github.com/dolapscan/dolapscan/internal/fetch"
	"github.com/dolapscan/dolapscan/internal/registry"
)

// Session is one independent fetch lane: an executor plus the cleanup that
// releases its browser. The pipeline acquires sessions through a factory
// so tests can substitute scripted executors for real Chrome instances.
type Session struct {
	// Executor serves paced, identity-rotated requests.
	Executor fetch.Executor

	// Close releases the session's renderer and controller.
	Close func() error
}

// SessionFactory creates a fresh session. Called once per scrape session
// and once per label run.
type SessionFactory func() (*Session, error)

// Pipeline coordinates registry state, the per-cohort logs, and the fetch
// sessions for scrape and label runs.
type Pipeline struct {
	cfg        *config.Config
	registry   *registry.Registry
	newSession SessionFactory
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithSessionFactory replaces the default Chrome-backed session factory.
func WithSessionFactory(factory SessionFactory) Option {
	return func(p *Pipeline) {
		p.newSession = factory
	}
}

// WithClock replaces the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a Pipeline. The default session factory launches a headless
// Chrome renderer wrapped in an anti-ban controller configured from cfg.
func New(cfg *config.Config, reg *registry.Registry, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		registry: reg,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.newSession == nil {
		p.newSession = p.chromeSession
	}
	return p
}

// chromeSession is the production session factory: a fresh browser with a
// fresh controller, so every session starts with a clean ban budget.
func (p *Pipeline) chromeSession() (*Session, error) {
	renderer := fetch.NewChromeRenderer(p.cfg.Headless,
		fetch.WithRenderTimeout(p.cfg.Timeout))

	controller := fetch.NewController(renderer, fetch.ControllerConfig{
		DelayMin:     p.cfg.DelayMin,
		DelayMax:     p.cfg.DelayMax,
		MaxRetries:   p.cfg.MaxRetries,
		BackoffBase:  p.cfg.BackoffBase,
		BackoffMax:   p.cfg.BackoffMax,
		BanThreshold: p.cfg.BanThreshold,
		Cooldown:     p.cfg.Cooldown,
		Identities:   p.cfg.UserAgents,
	}, fetch.WithLogger(p.logger))

	return &Session{
		Executor: controller,
		Close:    controller.Close,
	}, nil
}

// absoluteURL resolves a listing path discovered on a category page against
// the configured base URL. Already-absolute URLs pass through unchanged.
func (p *Pipeline) absoluteURL(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	base := strings.TrimRight(p.cfg.BaseURL, "/")
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return base + u
}

// partition splits categories into n nearly equal contiguous groups, one
// per session. Empty groups are dropped when there are fewer categories
// than sessions.
func partition(categories []string, n int) [][]string {
	if n < 1 {
		n = 1
	}
	if n > len(categories) {
		n = len(categories)
	}
	groups := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		start := i * len(categories) / n
		end := (i + 1) * len(categories) / n
		if start < end {
			groups = append(groups, categories[start:end])
		}
	}
	return groups
}
