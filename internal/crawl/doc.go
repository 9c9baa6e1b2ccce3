// Package crawl walks marketplace category pages and collects listing URLs.
//
// The crawler owns pagination only. Every page request goes through the
// fetch controller, so pacing, identity rotation and ban detection apply
// without the crawler knowing about them. Crawling halts on the first of:
// a page yielding no new listing URLs (end of results), the configured page
// limit, or a halt error from the controller (ban, fetch failure,
// cancellation). On a halt the URLs collected so far are still returned so
// a partial crawl produces a partial scrape rather than nothing.
package crawl
