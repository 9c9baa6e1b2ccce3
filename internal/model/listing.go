package model

import "time"

// ListingRecord is one immutable snapshot of a marketplace listing at a
// single instant. Snapshots are never merged or overwritten: the identity of
// a record is the (ListingID, ScrapedAt) pair, and distinct observations of
// the same listing are stored side by side in the snapshot log.
//
// Design decision: Optional fields use pointer types rather than zero values
// because the distinction between "seller has zero likes" and "like counter
// not found in the markup" matters downstream. A missing field is nil and the
// reason is recorded in ParseErrors; it is never an empty string or zero.
type ListingRecord struct {
	// ListingID is the stable numeric identifier extracted from the
	// trailing segment of the listing URL. It survives edits to the
	// descriptive slug portion and is the join key for labels.
	ListingID string `json:"listing_id"`

	// URL is the listing detail page URL (path form, e.g. /urun/...-12345678).
	URL string `json:"url"`

	// ScrapedAt is when this snapshot was observed, in UTC.
	ScrapedAt time.Time `json:"scraped_at"`

	// Title is the listing title, typically "Brand Category".
	Title *string `json:"title"`

	// Price is the current asking price in TL.
	Price *float64 `json:"price"`

	// OriginalPrice is the pre-discount price when a strikethrough price is
	// shown, nil otherwise.
	OriginalPrice *float64 `json:"original_price"`

	// HasDiscount reports whether OriginalPrice is present and above Price.
	HasDiscount bool `json:"has_discount"`

	// Brand is the brand name shown in the product heading.
	Brand *string `json:"brand"`

	// Category and Subcategory come from the breadcrumb hierarchy.
	Category    *string `json:"category"`
	Subcategory *string `json:"subcategory"`

	// Condition is the condition badge text (e.g. "Az Kullanılmış").
	Condition *string `json:"condition"`

	// Size is the clothing size when present.
	Size *string `json:"size"`

	// Color is the colour, from the swatch label or the URL slug.
	Color *string `json:"color"`

	// DescriptionText is the seller's free-text description.
	// Length and word count are derived at parse time so downstream
	// consumers don't re-tokenize.
	DescriptionText      *string `json:"description_text"`
	DescriptionLength    int     `json:"description_length"`
	DescriptionWordCount int     `json:"description_word_count"`

	// PhotoCount is the number of distinct product photos.
	PhotoCount int `json:"photo_count"`

	// LikeCount and CommentCount are engagement counters.
	LikeCount    *int `json:"like_count"`
	CommentCount *int `json:"comment_count"`

	// ShippingInfo is the raw shipping badge text; ShippingBuyerPays is
	// derived from it.
	ShippingInfo     *string `json:"shipping_info"`
	ShippingBuyerPays bool   `json:"shipping_buyer_pays"`

	// SellerUsername and SellerListingCount identify the seller and the
	// size of their closet at scrape time.
	SellerUsername     *string `json:"seller_username"`
	SellerListingCount *int    `json:"seller_listing_count"`

	// IsSold reports whether the sold badge was present when this snapshot
	// was taken. Listings already sold at scrape time are still recorded.
	IsSold bool `json:"is_sold"`

	// ParseErrors maps field names to the reason extraction failed.
	// A partially parsed record is still a valid record.
	ParseErrors map[string]string `json:"parse_errors,omitempty"`
}

// AddParseError records a field-level extraction failure without aborting
// the record. Later errors for the same field overwrite earlier ones.
func (r *ListingRecord) AddParseError(field, reason string) {
	if r.ParseErrors == nil {
		r.ParseErrors = make(map[string]string)
	}
	r.ParseErrors[field] = reason
}

// HasParseErrors reports whether any field failed to extract.
func (r *ListingRecord) HasParseErrors() bool {
	return len(r.ParseErrors) > 0
}
