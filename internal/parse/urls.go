package parse

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// listingIDRegex matches the trailing numeric id of a listing URL slug.
// Slugs end in the listing id, e.g.
// /urun/apple-bej-telefon-kilifi-yeni-etiketli-iphonelcase-442885461.
// Six digits is the minimum observed id width; requiring it avoids matching
// size or year tokens earlier in the slug.
var listingIDRegex = regexp.MustCompile(`-(\d{6,})$`)

// ListingURLs extracts listing detail URLs from a rendered category, search
// or profile page.
//
// It collects anchors whose href contains the /urun/ listing path,
// normalizes absolute URLs down to their path, and deduplicates while
// preserving document order. Document order matters: category pages are
// sorted newest-first and the crawler's stop conditions depend on seeing
// pages in that order.
func ListingURLs(content string) ([]string, error) {
	doc, err := parseDocument(content)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	urls := make([]string, 0)

	eachElement(doc, "a", func(n *html.Node) {
		href := strings.TrimSpace(getAttr(n, "href"))
		if href == "" || !strings.Contains(href, "/urun/") {
			return
		}
		if strings.HasPrefix(href, "http") {
			u, err := url.Parse(href)
			if err != nil {
				return
			}
			href = u.Path
		}
		if !seen[href] {
			seen[href] = true
			urls = append(urls, href)
		}
	})

	return urls, nil
}

// ListingID extracts the stable numeric listing id from a listing URL.
// The id is the join key between snapshots and labels; it survives edits
// to the descriptive part of the slug. Returns false when the URL does not
// end in an id.
func ListingID(rawURL string) (string, bool) {
	m := listingIDRegex.FindStringSubmatch(strings.TrimRight(rawURL, "/"))
	if m == nil {
		return "", false
	}
	return m[1], true
}
