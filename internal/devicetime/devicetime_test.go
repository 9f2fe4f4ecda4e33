package devicetime

import (
	"errors"
	"testing"
	"time"
)

func TestParseCompactAndReadableAgree(t *testing.T) {
	compact, err := Parse("20251125T145710")
	if err != nil {
		t.Fatalf("compact parse failed: %v", err)
	}
	readable, err := Parse("2025-11-25 14:57:10")
	if err != nil {
		t.Fatalf("readable parse failed: %v", err)
	}
	if !compact.Equal(readable) {
		t.Fatalf("compact %v != readable %v", compact, readable)
	}
	want := time.Date(2025, time.November, 25, 14, 57, 10, 0, time.Local)
	if !compact.Equal(want) {
		t.Fatalf("got %v, want %v", compact, want)
	}
}

func TestParseFields(t *testing.T) {
	got, err := Parse("20240229T000001")
	if err != nil {
		t.Fatalf("leap day parse failed: %v", err)
	}
	if got.Year() != 2024 || got.Month() != time.February || got.Day() != 29 {
		t.Fatalf("wrong date: %v", got)
	}
}

func TestParseFallbackLayouts(t *testing.T) {
	for _, s := range []string{
		"2025-11-25T14:57:10Z",
		"2025-11-25T14:57:10",
		"2025-11-25",
	} {
		if _, err := Parse(s); err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", s, err)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"not a date",
		"20251325T145710",  // month 13
		"2025-11-25",       // ok via fallback, excluded below
		"20251125 145710",  // missing T
		"2025/11/25 14:57", // unsupported separator
	}
	for _, s := range cases {
		if s == "2025-11-25" {
			continue
		}
		_, err := Parse(s)
		if err == nil {
			t.Errorf("Parse(%q) expected error", s)
			continue
		}
		if !errors.Is(err, ErrUnrecognizedFormat) {
			t.Errorf("Parse(%q) error not ErrUnrecognizedFormat: %v", s, err)
		}
	}
}
