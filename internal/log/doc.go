// Package log provides scrape-aware logging built on top of the standard
// slog package.
//
// This package extends slog to provide:
//   - Truncation of large HTML payloads attached to log records
//   - Masking of session cookies and other browser credentials
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// A scraper's most useful debugging attribute is the page it just fetched,
// but a rendered marketplace page easily runs past 500 KB. The ScrapeHandler
// truncates such values so a single debug line cannot flood the terminal or
// a saved log file. It also masks cookie and session attributes: the browser
// session carries Cloudflare clearance cookies that should not leak into
// logs that may be shared when reporting a problem.
//
// # Usage
//
//	logger := log.NewScrapeLogger(os.Stderr, true) // verbose=true
//
//	logger.Debug("page rendered",
//	    "url", "https://dolap.com/kazak",
//	    "html", hugePage,               // truncated to HTMLPreviewLen
//	    "cookie", "cf_clearance=abc",   // masked
//	)
//
//	slog.SetDefault(logger)
package log
