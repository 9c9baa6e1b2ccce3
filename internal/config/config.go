package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The pacing and retry defaults mirror what the target marketplace tolerates
// in practice; more aggressive values raise the odds of tripping the WAF.
const (
	// DefaultBaseURL is the marketplace root. All category and listing
	// paths are resolved against it.
	DefaultBaseURL = "https://dolap.com"

	// DefaultDelayMin and DefaultDelayMax bound the randomized pacing
	// sleep before every request. Uniform sampling between the two makes
	// the request cadence less mechanical than a fixed interval.
	DefaultDelayMin = 1500 * time.Millisecond
	DefaultDelayMax = 3500 * time.Millisecond

	// DefaultMaxRetries is the number of attempts for transient failures
	// (timeouts, render hiccups, 5xx). Blocking responses are never
	// retried; they feed ban detection instead.
	DefaultMaxRetries = 3

	// DefaultBackoffBase is the first retry delay; each further retry
	// doubles it. DefaultBackoffMax caps the growth.
	DefaultBackoffBase = 2 * time.Second
	DefaultBackoffMax  = 60 * time.Second

	// DefaultTimeout bounds a single page render. Cloudflare interstitials
	// can hold a navigation for several seconds, so this is generous.
	DefaultTimeout = 30 * time.Second

	// DefaultBanThreshold is the number of consecutive blocking responses
	// (403/429/503/challenge page) that flips the controller to paused.
	DefaultBanThreshold = 5

	// DefaultCooldown is how long the controller stays paused after ban
	// detection before requests are allowed again. Resuming too early
	// tends to escalate a soft ban into a hard one, which is why the
	// pause never ends on its own mid-run.
	DefaultCooldown = 30 * time.Minute

	// DefaultMaturationWindow is the wait between scraping a cohort and
	// re-checking its listings for the sold outcome.
	DefaultMaturationWindow = 7 * 24 * time.Hour

	// DefaultMaxPages limits pagination per category. Deep category pages
	// are dominated by stale listings that rarely sell within the window.
	DefaultMaxPages = 50

	// DefaultSessions is the number of independent browser sessions.
	// Each session owns its own controller, pacing budget, and ban state.
	DefaultSessions = 1

	// AppName is used for the XDG data directory path.
	AppName = "dolapscan"
)

// DefaultUserAgents is the identity pool the controller rotates through.
// Real, current desktop browser strings; a per-request pick keeps any one
// identity from accumulating a suspicious request count.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36 Edg/119.0.0.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
}

// Config holds all configuration options for dolapscan.
// It is populated from defaults, the optional .dolapscan file, and CLI
// flags, then passed through the application via dependency injection.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// BaseURL is the marketplace root URL.
	BaseURL string

	// Categories are the category slugs to crawl (e.g. "kazak", "elbise").
	Categories []string

	// DelayMin and DelayMax bound the randomized pacing sleep before each
	// request. DelayMin must not exceed DelayMax.
	DelayMin time.Duration
	DelayMax time.Duration

	// MaxRetries is the retry budget per request for transient failures.
	MaxRetries int

	// BackoffBase is the initial retry delay, doubled per attempt up to
	// BackoffMax.
	BackoffBase time.Duration
	BackoffMax  time.Duration

	// Timeout bounds every page render.
	Timeout time.Duration

	// BanThreshold is the consecutive blocking-response count that pauses
	// the controller.
	BanThreshold int

	// Cooldown is how long a paused controller refuses requests.
	Cooldown time.Duration

	// MaturationWindow is the delay between scrape and label for a cohort.
	MaturationWindow time.Duration

	// MaxPages limits pagination per category crawl.
	MaxPages int

	// Sessions is the number of independent browser sessions for the
	// scrape phase. Categories are partitioned across sessions.
	Sessions int

	// UserAgents is the identity pool. Empty falls back to the default pool.
	UserAgents []string

	// DataDir is where the registry database and per-cohort logs live.
	// Defaults to the XDG data directory.
	DataDir string

	// Headless controls whether Chrome runs without a visible window.
	// Turning it off is occasionally useful when debugging WAF behavior.
	Headless bool

	// Verbose enables slog.LevelDebug output.
	Verbose bool

	// ConfigFilePath is an explicit .dolapscan path. Empty means search
	// the current directory and then the home directory.
	ConfigFilePath string
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		BaseURL:          DefaultBaseURL,
		DelayMin:         DefaultDelayMin,
		DelayMax:         DefaultDelayMax,
		MaxRetries:       DefaultMaxRetries,
		BackoffBase:      DefaultBackoffBase,
		BackoffMax:       DefaultBackoffMax,
		Timeout:          DefaultTimeout,
		BanThreshold:     DefaultBanThreshold,
		Cooldown:         DefaultCooldown,
		MaturationWindow: DefaultMaturationWindow,
		MaxPages:         DefaultMaxPages,
		Sessions:         DefaultSessions,
		UserAgents:       append([]string(nil), DefaultUserAgents...),
		DataDir:          XDGDataDir(),
		Headless:         true,
	}
}

// XDGDataDir returns the XDG data directory for dolapscan.
// On Linux: ~/.local/share/dolapscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first error found; fixing one error often makes others
// irrelevant.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	if c.DelayMin < 0 || c.DelayMax < 0 || c.DelayMin > c.DelayMax {
		return ErrInvalidDelayBounds
	}
	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BanThreshold <= 0 {
		return ErrInvalidBanThreshold
	}
	if c.MaturationWindow <= 0 {
		return ErrInvalidMaturationWindow
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.Sessions <= 0 {
		return ErrInvalidSessions
	}
	if len(c.UserAgents) == 0 {
		return ErrEmptyIdentityPool
	}
	return nil
}
