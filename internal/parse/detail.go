package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dolapscan/dolapscan/internal/model"
)

// Text patterns for field extraction. All operate on text fragments pulled
// out of the DOM, not on raw markup.
var (
	// priceRegex matches "249 TL" and "1.299,50 TL". Turkish number format:
	// "." for thousands, "," for decimals.
	priceRegex = regexp.MustCompile(`(?i)([\d.,]+)\s*TL`)

	// likeRegex matches the like counter, e.g. "32 Beğeni".
	likeRegex = regexp.MustCompile(`(\d+)\s*Beğeni`)

	// commentHeaderRegex and commentSuffixRegex match the two comment
	// counter renderings, "Yorumlar (3)" and "3 Yorum".
	commentHeaderRegex = regexp.MustCompile(`Yorumlar?\s*\((\d+)\)`)
	commentSuffixRegex = regexp.MustCompile(`(\d+)\s*Yorum`)

	// sizeRegexes match the size row of the product detail table. Clothing
	// sizes render as "S", "38" or compound "4XL / 48".
	sizeRegexes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Beden\s*:\s*(\S+)`),
		regexp.MustCompile(`(?i)Beden[:\s]+([A-Z0-9/ ]+?)\n`),
		regexp.MustCompile(`(\d{1,2}XL\s*/\s*\d{2})`),
	}

	// sellerCountRegex matches the closet size shown next to the seller
	// link, e.g. "iphonelcase (1221)".
	sellerCountRegex = regexp.MustCompile(`\((\d+)\)`)
)

// conditionBadges are the condition values the marketplace uses, ordered
// most-specific first so "Yeni ve Etiketli" wins over plain "Yeni".
var conditionBadges = []string{
	"Yeni ve Etiketli",
	"Yeni & Etiketli",
	"Az Kullanılmış",
	"Çok Kullanılmış",
	"Kullanılmış",
	"Defolu",
	"Yeni",
}

// breadcrumbSkip are links that appear inside the breadcrumb trail but are
// site chrome, not category levels.
var breadcrumbSkip = []string{"Ana Sayfa", "GİRİŞ YAP", "ÜYE OL", "Markalar"}

// conditionSlugTokens are condition words as they appear in URL slugs.
// They sit between the category segment and the seller name, so they are
// stripped from the tail when recovering the category from a slug.
var conditionSlugTokens = map[string]bool{
	"yeni":        true,
	"etiketli":    true,
	"az":          true,
	"cok":         true,
	"kullanilmis": true,
	"defolu":      true,
}

// shippingBadges are the shipping arrangement labels, checked in order.
var shippingBadges = []string{
	"Alıcı Ödemeli Kargo",
	"Alıcı Öder",
	"Ücretsiz Kargo",
	"Satıcı Öder",
	"Kargo Dahil",
}

// buyerPaysKeywords mark shipping text as buyer-paid.
var buyerPaysKeywords = []string{"Alıcı Ödemeli", "Alıcı Öder"}

// siteTitleSuffixes are stripped from the <title> text.
var siteTitleSuffixes = []string{" - Dolap.com", " | Dolap", " - dolap.com"}

// descriptionSkip marks text lines that belong to navigation or boilerplate
// rather than the seller's description.
var descriptionSkip = []string{
	"KATEGORİLER", "BENZER ÜRÜNLER", "Popüler Aramalar",
	"Dolap Hakkında", "Kategoriler", "Tanımlama bilgilerini",
	"Ödeme Seçenekleri", "Yorum Yayınlanma", "PAYLAŞ", "Dolap Avantajları",
}

// descriptionKeywords mark a line as product prose. The seller description
// is free text, so this is a recall heuristic: product nouns and the
// vocabulary sellers actually use.
var descriptionKeywords = []string{
	"kılıf", "elbise", "kazak", "mont", "pantolon", "ayakkabı",
	"çanta", "gömlek", "etek", "tshirt", "bot", "çizme",
	"kullanılmamış", "sıfır", "orjinal", "modelleri", "mevcut",
	"renk", "beden", "kargo", "yeni", "tertemiz",
}

// turkishTitle applies Turkish-aware title casing. ASCII casing mangles
// dotted/dotless i, so "bej" must go through the Turkish caser.
var turkishTitle = cases.Title(language.Turkish)

// ListingDetail parses a rendered listing detail page into a snapshot
// record.
//
// Every field is extracted independently; a failed field is recorded in the
// record's ParseErrors and extraction continues. The returned error is
// non-nil only when the HTML does not parse or when all key fields (price,
// brand, condition, seller) are missing, in which case the partial record
// is still returned for logging.
func ListingDetail(content, pageURL string, scrapedAt time.Time) (*model.ListingRecord, error) {
	doc, err := parseDocument(content)
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	record := &model.ListingRecord{
		URL:       pageURL,
		ScrapedAt: scrapedAt.UTC(),
	}
	if id, ok := ListingID(pageURL); ok {
		record.ListingID = id
	} else {
		record.AddParseError("listing_id", "no trailing numeric id in URL")
	}

	text := pageText(doc)

	record.Title = extractTitle(doc)
	if record.Title == nil {
		record.AddParseError("title", "no title tag or og:title meta")
	}

	current, original := extractPrices(text)
	record.Price = current
	record.OriginalPrice = original
	record.HasDiscount = original != nil && current != nil && *original > *current
	if record.Price == nil {
		record.AddParseError("price", "no price text found")
	}

	record.Brand = extractBrand(doc)
	if record.Brand == nil {
		record.AddParseError("brand", "no product heading found")
	}

	record.Category, record.Subcategory = extractCategoryPath(doc, pageURL)
	if record.Category == nil {
		record.AddParseError("category", "no breadcrumb trail or category slug")
	}

	record.Condition = extractCondition(text)
	if record.Condition == nil {
		record.AddParseError("condition", "no condition badge found")
	}

	record.Color = extractColor(doc, pageURL)
	record.Size = extractSize(text)

	if desc := extractDescription(text); desc != nil {
		record.DescriptionText = desc
		record.DescriptionLength = len(*desc)
		record.DescriptionWordCount = len(strings.Fields(*desc))
	}

	record.PhotoCount = extractPhotoCount(doc)

	record.LikeCount = extractCount(text, likeRegex)
	record.CommentCount = extractCount(text, commentHeaderRegex)
	if record.CommentCount == nil {
		record.CommentCount = extractCount(text, commentSuffixRegex)
	}

	if shipping := extractShipping(text); shipping != nil {
		record.ShippingInfo = shipping
		record.ShippingBuyerPays = buyerPays(*shipping)
	}

	username, closetSize := extractSeller(doc)
	record.SellerUsername = username
	record.SellerListingCount = closetSize
	if record.SellerUsername == nil {
		record.AddParseError("seller_username", "no profile link found")
	}

	record.IsSold = containsSoldBadge(text)

	if record.Price == nil && record.Brand == nil &&
		record.Condition == nil && record.SellerUsername == nil {
		return record, ErrStructuralDrift
	}
	return record, nil
}

// extractTitle pulls the listing title from <title>, stripping the site
// name suffix, falling back to the og:title meta.
func extractTitle(doc *html.Node) *string {
	var title string
	eachElement(doc, "title", func(n *html.Node) {
		if title == "" {
			title = nodeText(n)
		}
	})

	if title == "" {
		eachElement(doc, "meta", func(n *html.Node) {
			if title == "" && getAttr(n, "property") == "og:title" {
				title = strings.TrimSpace(getAttr(n, "content"))
			}
		})
	}
	if title == "" {
		return nil
	}

	for _, suffix := range siteTitleSuffixes {
		if strings.HasSuffix(title, suffix) {
			title = strings.TrimSpace(strings.TrimSuffix(title, suffix))
		}
	}
	if title == "" {
		return nil
	}
	return &title
}

// extractPrices finds price tokens in page order. When two prices appear
// and the first is higher, the first is the struck-through original and the
// second is the current asking price.
func extractPrices(text string) (current, original *float64) {
	matches := priceRegex.FindAllStringSubmatch(text, -1)

	prices := make([]float64, 0, len(matches))
	for _, m := range matches {
		if v, ok := parseTurkishNumber(m[1]); ok {
			prices = append(prices, v)
		}
	}

	switch {
	case len(prices) >= 2 && prices[0] > prices[1]:
		return &prices[1], &prices[0]
	case len(prices) >= 1:
		return &prices[0], nil
	default:
		return nil, nil
	}
}

// parseTurkishNumber converts "1.299,50" to 1299.50.
func parseTurkishNumber(raw string) (float64, bool) {
	normalized := strings.ReplaceAll(raw, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// extractBrand takes the first short heading as the brand name. Listing
// pages show the brand as the prominent heading above the price block.
func extractBrand(doc *html.Node) *string {
	var brand string
	for _, tag := range []string{"h1", "h2", "h3"} {
		if brand != "" {
			break
		}
		eachElement(doc, tag, func(n *html.Node) {
			if brand != "" {
				return
			}
			text := nodeText(n)
			if text != "" && len(text) < 50 {
				brand = text
			}
		})
	}
	if brand == "" {
		return nil
	}
	return &brand
}

// extractCategoryPath reads the category hierarchy from the breadcrumb
// trail, falling back to the category segment of the URL slug when the page
// renders without one. The trail shows
// "Ana Sayfa > Elektronik > Telefon Aksesuarı > ... > Brand"; the first two
// levels after the home link are the main category and subcategory. The
// slug fallback recovers the main category only.
func extractCategoryPath(doc *html.Node, pageURL string) (category, subcategory *string) {
	levels := breadcrumbLevels(doc)
	switch {
	case len(levels) >= 2:
		return &levels[0], &levels[1]
	case len(levels) == 1:
		return &levels[0], nil
	}

	if slug := categoryFromSlug(pageURL); slug != "" {
		return &slug, nil
	}
	return nil, nil
}

// breadcrumbLevels collects the category names from the breadcrumb
// navigation. Only links to category paths count: product and profile
// links never do, and the home/account chrome links are skipped.
func breadcrumbLevels(doc *html.Node) []string {
	container := breadcrumbContainer(doc)
	if container == nil {
		return nil
	}

	var levels []string
	eachElement(container, "a", func(n *html.Node) {
		text := nodeText(n)
		href := strings.TrimSpace(getAttr(n, "href"))
		if text == "" || href == "" || href == "/" {
			return
		}
		if strings.Contains(href, "/urun/") || strings.Contains(href, "/profil/") {
			return
		}
		for _, skip := range breadcrumbSkip {
			if text == skip {
				return
			}
		}
		levels = append(levels, text)
	})
	return levels
}

// breadcrumbContainer finds the element holding the breadcrumb trail: an
// element marked breadcrumb via class, id or aria-label, else the first
// nav element.
func breadcrumbContainer(doc *html.Node) *html.Node {
	var marked, nav *html.Node
	for _, tag := range []string{"nav", "ol", "ul", "div"} {
		eachElement(doc, tag, func(n *html.Node) {
			if marked == nil && hasBreadcrumbMarker(n) {
				marked = n
			}
			if nav == nil && n.Data == "nav" {
				nav = n
			}
		})
	}
	if marked != nil {
		return marked
	}
	return nav
}

// hasBreadcrumbMarker reports whether the element is labeled as a
// breadcrumb container in its attributes.
func hasBreadcrumbMarker(n *html.Node) bool {
	for _, key := range []string{"class", "id", "aria-label"} {
		if strings.Contains(strings.ToLower(getAttr(n, key)), "breadcrumb") {
			return true
		}
	}
	return false
}

// categoryFromSlug recovers the category from the listing URL slug. Slugs
// follow brand-colour-category...-condition-seller-id; after stripping the
// trailing id, the seller segment and any condition words, the segments
// past brand and colour are the category.
func categoryFromSlug(pageURL string) string {
	if pageURL == "" {
		return ""
	}
	slug := strings.TrimRight(pageURL, "/")
	if i := strings.LastIndex(slug, "/"); i >= 0 {
		slug = slug[i+1:]
	}
	slug = listingIDRegex.ReplaceAllString(slug, "")

	segments := strings.Split(slug, "-")
	if len(segments) < 4 {
		return ""
	}
	segments = segments[2 : len(segments)-1]
	for len(segments) > 0 && conditionSlugTokens[segments[len(segments)-1]] {
		segments = segments[:len(segments)-1]
	}
	if len(segments) == 0 {
		return ""
	}
	return turkishTitle.String(strings.Join(segments, " "))
}

// extractCondition finds the condition badge text.
func extractCondition(text string) *string {
	for _, badge := range conditionBadges {
		if strings.Contains(text, badge) {
			return &badge
		}
	}
	return nil
}

// extractColor reads the colour from a swatch image alt text, falling back
// to the URL slug. Slugs follow brand-colour-category...-seller-id, so
// after stripping the trailing id the colour is the second segment.
func extractColor(doc *html.Node, pageURL string) *string {
	var fromSwatch string
	eachElement(doc, "img", func(n *html.Node) {
		if fromSwatch != "" {
			return
		}
		src := getAttr(n, "src")
		if strings.Contains(src, "colour") || strings.Contains(src, "color") {
			if alt := strings.TrimSpace(getAttr(n, "alt")); alt != "" {
				fromSwatch = alt
			}
		}
	})
	if fromSwatch != "" {
		return &fromSwatch
	}

	if pageURL == "" {
		return nil
	}
	slug := strings.TrimRight(pageURL, "/")
	if i := strings.LastIndex(slug, "/"); i >= 0 {
		slug = slug[i+1:]
	}
	slug = listingIDRegex.ReplaceAllString(slug, "")
	segments := strings.Split(slug, "-")
	if len(segments) < 3 {
		return nil
	}
	color := turkishTitle.String(segments[1])
	return &color
}

// extractSize finds the size row for clothing listings.
func extractSize(text string) *string {
	for _, re := range sizeRegexes {
		if m := re.FindStringSubmatch(text); m != nil {
			size := strings.TrimSpace(m[1])
			if size != "" {
				return &size
			}
		}
	}
	return nil
}

// extractDescription picks the first substantial prose line that is
// neither navigation boilerplate nor too short to be a description.
func extractDescription(text string) *string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 20 {
			continue
		}
		if containsAny(line, descriptionSkip) {
			continue
		}
		if containsAny(strings.ToLower(line), descriptionKeywords) {
			return &line
		}
	}
	return nil
}

// extractPhotoCount counts distinct product images by CDN path markers.
func extractPhotoCount(doc *html.Node) int {
	seen := make(map[string]bool)
	eachElement(doc, "img", func(n *html.Node) {
		src := getAttr(n, "src")
		if src == "" {
			return
		}
		if strings.Contains(src, "product") || strings.Contains(src, "dlp_") ||
			strings.Contains(src, "dsmcdn") {
			seen[src] = true
		}
	})
	return len(seen)
}

// extractCount applies a counter regex and converts the first capture.
func extractCount(text string, re *regexp.Regexp) *int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &v
}

// extractShipping finds the shipping arrangement badge.
func extractShipping(text string) *string {
	for _, badge := range shippingBadges {
		if strings.Contains(text, badge) {
			return &badge
		}
	}
	return nil
}

// buyerPays reports whether the shipping text puts the cost on the buyer.
func buyerPays(shipping string) bool {
	return containsAny(shipping, buyerPaysKeywords)
}

// extractSeller finds the first /profil/ link, which on a listing page is
// the product's seller, and the closet size shown next to it as "(1221)".
func extractSeller(doc *html.Node) (username *string, closetSize *int) {
	var name string
	var count *int

	eachElement(doc, "a", func(n *html.Node) {
		if name != "" {
			return
		}
		href := getAttr(n, "href")
		if !strings.Contains(href, "/profil/") {
			return
		}
		parts := strings.SplitN(strings.TrimRight(href, "/"), "/profil/", 2)
		if len(parts) != 2 || parts[1] == "" {
			return
		}
		name = parts[1]

		if n.Parent != nil {
			if m := sellerCountRegex.FindStringSubmatch(nodeText(n.Parent)); m != nil {
				if v, err := strconv.Atoi(m[1]); err == nil {
					count = &v
				}
			}
		}
	})

	if name == "" {
		return nil, nil
	}
	return &name, count
}

// containsAny reports whether s contains any of the substrings.
func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
