// Package labeler re-visits cohort listings after the maturation window
// and records what became of them.
//
// Classification is strictly ordered. A 404 or 410 wins first: the page is
// gone and nothing else can be read from it. Next the sold badge: a sold
// listing's page still looks like a listing page, so the badge must be
// checked before the looks-like-a-listing test. Then a recognizable
// listing page means the item is still up for sale. Anything else, fetch
// failures included, is labeled error rather than guessed at; error labels
// are kept out of training data and can be retried later.
//
// Labeling is resumable. Already-labeled listings are skipped, so a run
// that dies from a ban picks up where it stopped.
package labeler
