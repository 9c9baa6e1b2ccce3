package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Result is a rendered page: the DOM after the page's JavaScript ran, plus
// the HTTP status of the document response.
type Result struct {
	// URL is the requested URL.
	URL string

	// HTML is the serialized post-render DOM.
	HTML string

	// StatusCode is the status of the main document response. 0 when the
	// status could not be observed.
	StatusCode int
}

// Renderer fetches a URL through a real browser and returns the rendered
// page. Implementations are not required to be safe for concurrent use; a
// Renderer is owned by exactly one Controller.
type Renderer interface {
	// Render navigates to url with the given user agent and returns the
	// rendered page.
	Render(ctx context.Context, url, userAgent string) (*Result, error)

	// Close releases the browser.
	Close() error
}

// ErrRendererClosed is returned by Render after Close.
var ErrRendererClosed = errors.New("renderer is closed")

// hideWebdriverScript runs before any page script and removes the
// navigator.webdriver flag that headless Chrome exposes. Fingerprinting
// scripts check it first.
const hideWebdriverScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

// scrollScript nudges the page to trigger lazy-loaded content. Category
// pages only materialize listing cards as they scroll into view.
const scrollScript = `window.scrollTo(0, document.body.scrollHeight);`

// ChromeRenderer drives one headless Chrome browser. Tabs are opened per
// render inside the same browser so the WAF clearance cookies earned by the
// first request keep working for the rest of the session.
type ChromeRenderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc

	browserCtx    context.Context
	browserCancel context.CancelFunc

	// timeout bounds a single render, navigation included.
	timeout time.Duration

	// settle is how long to wait after scrolling for lazy content.
	settle time.Duration

	mu     sync.Mutex
	closed bool
}

// ChromeRendererOption configures a ChromeRenderer.
type ChromeRendererOption func(*ChromeRenderer)

// WithRenderTimeout sets the per-render timeout.
func WithRenderTimeout(d time.Duration) ChromeRendererOption {
	return func(r *ChromeRenderer) {
		r.timeout = d
	}
}

// WithSettleDelay sets the post-scroll settle delay.
func WithSettleDelay(d time.Duration) ChromeRendererOption {
	return func(r *ChromeRenderer) {
		r.settle = d
	}
}

// NewChromeRenderer starts a browser allocator. The browser process itself
// launches lazily on the first render.
func NewChromeRenderer(headless bool, opts ...ChromeRendererOption) *ChromeRenderer {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		// Headless Chrome advertises itself through this blink feature;
		// turning it off removes the cheapest detection signal.
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1366, 768),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	r := &ChromeRenderer{
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		timeout:       30 * time.Second,
		settle:        1500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render navigates to url in a fresh tab of the shared browser and returns
// the rendered page with the document status code.
func (r *ChromeRenderer) Render(ctx context.Context, url, userAgent string) (*Result, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRendererClosed
	}
	r.mu.Unlock()

	tabCtx, tabCancel := chromedp.NewContext(r.browserCtx)
	defer tabCancel()

	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, r.timeout)
	defer timeoutCancel()

	// Stop the tab when the caller's context is canceled; chromedp contexts
	// don't inherit from the per-call ctx.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var statusCode int
	var mu sync.Mutex
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok {
			if resp.Type == network.ResourceTypeDocument {
				mu.Lock()
				statusCode = int(resp.Response.Status)
				mu.Unlock()
			}
		}
	})

	var htmlContent string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriverScript).Do(ctx)
			return err
		}),
		emulation.SetUserAgentOverride(userAgent),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(scrollScript, nil),
		chromedp.Sleep(r.settle),
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("render %s: %w", url, err)
	}

	mu.Lock()
	status := statusCode
	mu.Unlock()

	return &Result{
		URL:        url,
		HTML:       htmlContent,
		StatusCode: status,
	}, nil
}

// Close shuts the browser down. Safe to call more than once.
func (r *ChromeRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.browserCancel()
	r.allocCancel()
	return nil
}
