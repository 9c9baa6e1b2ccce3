package parse

import "strings"

// soldBadges are the renderings of the sold marker across page variants.
var soldBadges = []string{
	"Bu ürün satılmıştır",
	"SATILDI",
	"Satıldı",
}

// challengeMarkers identify a WAF interstitial instead of marketplace
// content. A challenge page can come back with HTTP 200, so the body has
// to be inspected.
var challengeMarkers = []string{
	"Attention Required",
	"cf-error",
	"Checking your browser",
	"cf-challenge",
	"Just a moment",
}

// listingPageMarkers are features a rendered listing detail page always
// has at least one of.
var listingPageMarkers = []string{
	"/urun/",
	"/profil/",
	"TL",
	"Beğeni",
}

// containsSoldBadge reports whether flattened page text carries a sold
// marker.
func containsSoldBadge(text string) bool {
	return containsAny(text, soldBadges)
}

// IsSoldPage reports whether the rendered page marks the listing as sold.
func IsSoldPage(content string) bool {
	doc, err := parseDocument(content)
	if err != nil {
		return false
	}
	return containsSoldBadge(pageText(doc))
}

// IsChallengePage reports whether the content is a bot-detection
// interstitial rather than marketplace markup. Used by the fetch
// controller: a challenge page counts as a blocking response even when
// the status code is 200.
func IsChallengePage(content string) bool {
	return containsAny(content, challengeMarkers)
}

// LooksLikeListingPage reports whether the content plausibly is a listing
// detail page. The labeler uses this to distinguish "listing still up" from
// "listing replaced by something unrecognizable", which must be labeled as
// an error rather than guessed at.
func LooksLikeListingPage(content string) bool {
	if IsChallengePage(content) {
		return false
	}
	doc, err := parseDocument(content)
	if err != nil {
		return false
	}
	text := pageText(doc)
	if containsSoldBadge(text) {
		return true
	}
	count := 0
	for _, marker := range listingPageMarkers {
		if strings.Contains(content, marker) {
			count++
		}
	}
	return count >= 2
}
