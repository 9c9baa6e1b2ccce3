// Package store persists cohort data as append-only JSONL logs.
//
// Each cohort owns a directory under the data dir holding listings.jsonl
// (one snapshot per line), labels.jsonl (one label per line) and meta.yaml
// (an audit mirror of the registry row). Records are only ever appended:
// one complete JSON document per line, flushed and fsynced before the
// append reports success, so a crash can at worst leave a torn final line.
// Opening a store scans the existing log, builds the dedupe index from it
// and tolerates exactly that torn line, which is what makes scrape and
// label runs safely re-runnable.
//
// Deduplication is identity-based. A snapshot's identity is the
// (listing_id, scraped_at) pair: the same listing observed at two times is
// two records, the same observation appended twice is one. A label's
// identity is the listing_id alone, since a cohort labels each listing
// once.
package store
