package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dolapscan/dolapscan/internal/fetch"
	"github.com/dolapscan/dolapscan/internal/parse"
)

// Crawler paginates category pages and extracts listing URLs.
type Crawler struct {
	executor fetch.Executor
	baseURL  string
	maxPages int
	logger   *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithLogger sets the crawler's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// NewCrawler creates a Crawler that requests pages through executor.
func NewCrawler(executor fetch.Executor, baseURL string, maxPages int, opts ...Option) *Crawler {
	c := &Crawler{
		executor: executor,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxPages: maxPages,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PageURL builds the category page URL for a 1-based page number. Category
// pages paginate with the sayfa query parameter.
func (c *Crawler) PageURL(category string, page int) string {
	return fmt.Sprintf("%s/%s?sayfa=%d", c.baseURL, category, page)
}

// Category crawls one category in strictly increasing page order and
// returns the deduplicated listing URLs in discovery order.
//
// The returned URL list is valid even when err is non-nil: a ban or fetch
// failure mid-crawl yields the pages collected before the halt. Callers
// check err to decide whether the crawl covered the whole category.
func (c *Crawler) Category(ctx context.Context, category string) ([]string, int, error) {
	seen := make(map[string]bool)
	all := make([]string, 0)
	pagesCrawled := 0

	for page := 1; page <= c.maxPages; page++ {
		target := c.PageURL(category, page)

		result, err := c.executor.Execute(ctx, target, fetch.KindCategory)
		if err != nil {
			var blockErr *fetch.BlockingError
			if errors.As(err, &blockErr) {
				// A single blocked page halts this category; the streak
				// is the controller's business, moving to the next page
				// of the same category would just extend it.
				c.logger.Warn("category page blocked, halting category",
					"category", category, "page", page)
				return all, pagesCrawled, err
			}
			return all, pagesCrawled, err
		}
		pagesCrawled++

		urls, err := parse.ListingURLs(result.HTML)
		if err != nil {
			return all, pagesCrawled, fmt.Errorf("parse category page %d: %w", page, err)
		}

		newCount := 0
		for _, u := range urls {
			if !seen[u] {
				seen[u] = true
				all = append(all, u)
				newCount++
			}
		}

		c.logger.Info("category page crawled",
			"category", category,
			"page", page,
			"new_urls", newCount,
			"total", len(all))

		// A page with nothing new means pagination ran off the end of
		// the results.
		if newCount == 0 {
			break
		}
	}

	c.logger.Info("category crawl complete",
		"category", category,
		"pages", pagesCrawled,
		"total_urls", len(all))
	return all, pagesCrawled, nil
}
