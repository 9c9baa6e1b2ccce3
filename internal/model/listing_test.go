package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// TestListingRecordParseErrors tests field-level error accumulation.
func TestListingRecordParseErrors(t *testing.T) {
	t.Parallel()

	r := &ListingRecord{ListingID: "442885461"}
	if r.HasParseErrors() {
		t.Error("fresh record should have no parse errors")
	}

	r.AddParseError("price", "no price text found")
	r.AddParseError("brand", "no heading found")
	r.AddParseError("price", "ambiguous price text") // overwrites

	if !r.HasParseErrors() {
		t.Error("expected parse errors")
	}
	if len(r.ParseErrors) != 2 {
		t.Errorf("expected 2 errored fields, got %d", len(r.ParseErrors))
	}
	if r.ParseErrors["price"] != "ambiguous price text" {
		t.Errorf("expected later error to win, got %q", r.ParseErrors["price"])
	}
}

// TestListingRecordJSON tests that missing fields serialize as null and
// parse_errors is omitted when empty.
func TestListingRecordJSON(t *testing.T) {
	t.Parallel()

	price := 249.0
	r := &ListingRecord{
		ListingID: "442885461",
		URL:       "/urun/apple-bej-telefon-kilifi-442885461",
		ScrapedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Price:     &price,
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	s := string(data)

	if !strings.Contains(s, `"brand":null`) {
		t.Errorf("missing brand should serialize as null: %s", s)
	}
	if !strings.Contains(s, `"price":249`) {
		t.Errorf("price should serialize as a number: %s", s)
	}
	if strings.Contains(s, "parse_errors") {
		t.Errorf("empty parse_errors should be omitted: %s", s)
	}

	var back ListingRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.Brand != nil {
		t.Error("expected nil brand after round trip")
	}
	if back.Price == nil || *back.Price != 249.0 {
		t.Error("expected price to survive round trip")
	}
}

// TestListingStatusValid tests the status value set.
func TestListingStatusValid(t *testing.T) {
	t.Parallel()

	for _, s := range []ListingStatus{StatusActive, StatusSold, StatusRemovedUnsold, StatusError} {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if ListingStatus("pending").Valid() {
		t.Error("expected unknown status to be invalid")
	}
}

// TestRunSummaryCountStatus tests label counting and the error tally.
func TestRunSummaryCountStatus(t *testing.T) {
	t.Parallel()

	s := NewRunSummary(PhaseLabel, "20260301", time.Now())
	s.CountStatus(StatusSold)
	s.CountStatus(StatusSold)
	s.CountStatus(StatusActive)
	s.CountStatus(StatusError)

	if s.LabelsAppended != 4 {
		t.Errorf("expected 4 labels, got %d", s.LabelsAppended)
	}
	if s.StatusCounts[StatusSold] != 2 {
		t.Errorf("expected 2 sold, got %d", s.StatusCounts[StatusSold])
	}
	if s.Errors != 1 {
		t.Errorf("expected 1 error, got %d", s.Errors)
	}
	if !s.Succeeded() {
		t.Error("run without ban should be a success")
	}

	s.Banned = true
	if s.Succeeded() {
		t.Error("banned run should not be a success")
	}
}
