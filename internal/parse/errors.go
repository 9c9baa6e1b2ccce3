package parse

import "errors"

// ErrStructuralDrift is returned by ListingDetail when none of the key
// fields (price, brand, condition, seller) could be extracted from a page
// that was expected to be a listing. One missing field is a page quirk;
// all of them missing means the marketplace changed its markup and the
// extraction heuristics need updating. The partially built record is still
// returned alongside the error so callers can log what was seen.
var ErrStructuralDrift = errors.New("page structure drift: no key fields extracted")
