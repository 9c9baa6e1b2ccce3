// Package parse extracts structured data from rendered Dolap.com pages.
//
// All functions are pure: they take already-rendered HTML (the DOM after
// the browser has executed the page's JavaScript) and return values without
// touching the network or the clock.
//
// Field extraction is deliberately forgiving. The marketplace ships markup
// changes without notice, so a single unparseable field must not discard an
// otherwise usable snapshot. ListingDetail extracts every field
// independently and records failures per field in the record's ParseErrors
// map; it returns an error only when the document does not parse at all or
// when every key field is missing, which indicates the page structure has
// drifted and the parser needs updating.
//
// Missing optional fields are nil pointers, never empty strings or zeroes.
package parse
