package core

import (
	"testing"
	"time"
)

func TestWhenFormat(t *testing.T) {
	ts := time.Date(2024, 3, 1, 18, 30, 5, 7*int(time.Millisecond), time.UTC)
	when := NewWhen(ts)
	if string(when) != "2024-03-01..18:30:05:007" {
		t.Errorf("unexpected timestamp format: %s", when)
	}
	if when.DateKey() != "2024-03-01" {
		t.Errorf("unexpected date key: %s", when.DateKey())
	}
	back, err := when.Time()
	if err != nil {
		t.Fatalf("Time() failed: %v", err)
	}
	if !back.Equal(ts) {
		t.Errorf("round trip mismatch: %v != %v", back, ts)
	}
}

func TestParseWhen(t *testing.T) {
	valid := []string{
		"2024-03-01..18:30:05:007",
		"1999-12-31..23:59:59:999",
	}
	for _, s := range valid {
		if _, err := ParseWhen(s); err != nil {
			t.Errorf("ParseWhen(%q) failed: %v", s, err)
		}
	}
	invalid := []string{
		"",
		"2024-03-01",
		"2024-03-01 18:30:05",
		"2024-03-01..18:30:05",
		"2024-03-01..18:30:05.007",
		"2024-13-01..18:30:05:007",
		"2024-03-01..18:30:05:a07",
		"2024-03-01..18:30:05:0a7",
		"2024-03-01..18:30:05:1x1",
	}
	for _, s := range invalid {
		if _, err := ParseWhen(s); err == nil {
			t.Errorf("ParseWhen(%q) should have failed", s)
		}
	}
}

func TestWhenOrdering(t *testing.T) {
	// Lexicographic order must equal chronological order.
	earlier := When("2024-03-01..18:30:05:007")
	later := When("2024-03-01..18:30:05:008")
	nextDay := When("2024-03-02..00:00:00:000")
	if !earlier.Before(later) || !later.Before(nextDay) {
		t.Error("timestamps do not order chronologically")
	}
	if later.Before(earlier) {
		t.Error("Before is not antisymmetric")
	}
}

func TestResultValid(t *testing.T) {
	for _, r := range []Result{WhiteWins, Draw, BlackWins} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	for _, r := range []Result{"", "white", "WHITE_WINS", "stalemate"} {
		if r.Valid() {
			t.Errorf("%q should be invalid", r)
		}
	}
}

func TestFormatID(t *testing.T) {
	if id := FormatID(7); id != "0000000007" {
		t.Errorf("unexpected id format: %s", id)
	}
	if id := FormatID(1234567890); id != "1234567890" {
		t.Errorf("unexpected id format: %s", id)
	}
	n, err := ParseID("0000000042")
	if err != nil || n != 42 {
		t.Errorf("ParseID round trip failed: %d, %v", n, err)
	}
	if _, err := ParseID("42"); err == nil {
		t.Error("short id should fail to parse")
	}
}

func TestPlayerDates(t *testing.T) {
	p := NewPlayer("alice")
	p.AddDate("blitz", "2024-03-02")
	p.AddDate("blitz", "2024-03-01")
	p.AddDate("blitz", "2024-03-02") // duplicate
	p.AddDate("classical", "2024-03-05")

	dates := p.Dates["blitz"]
	if len(dates) != 2 || dates[0] != "2024-03-01" || dates[1] != "2024-03-02" {
		t.Errorf("dates not sorted and deduplicated: %v", dates)
	}
	if !p.HasDate("blitz", "2024-03-01") {
		t.Error("HasDate missed an existing date")
	}
	if p.HasDate("blitz", "2024-03-03") {
		t.Error("HasDate reported a missing date")
	}

	p.RemoveDate("blitz", "2024-03-01")
	if p.HasDate("blitz", "2024-03-01") {
		t.Error("RemoveDate left the date behind")
	}
	p.RemoveDate("blitz", "2024-03-03") // no-op
	if len(p.Dates["blitz"]) != 1 {
		t.Errorf("unexpected dates after removal: %v", p.Dates["blitz"])
	}
}
