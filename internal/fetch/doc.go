// Package fetch retrieves rendered marketplace pages while staying under
// the site's bot-detection radar.
//
// The package has two layers. Renderer drives a real headless Chrome via
// chromedp and returns the post-JavaScript DOM; the marketplace serves its
// content client-side, so a plain HTTP GET sees an empty shell. Controller
// wraps a Renderer and is the sole network gateway for the rest of the
// application: it paces requests with randomized delays, rotates the
// browser identity per request, retries transient failures with capped
// exponential backoff, and watches for blocking responses.
//
// Ban handling is deliberately conservative. Blocking responses (403, 429,
// 503 and WAF challenge pages) are never retried; each one increments a
// consecutive-block counter, and when the counter reaches the configured
// threshold the controller pauses itself for the cool-down period. A paused
// controller refuses every request until the cool-down expires or Resume is
// called. Hammering a soft ban is the fastest way to convert it into a hard
// one.
package fetch
