package wire

import "testing"

func TestParseTimestampStripsFractionalSuffix(t *testing.T) {
	got, err := ParseTimestamp("2018-06-01T12:00:00.500")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	want, err := ParseTimestamp("2018-06-01T12:00:00")
	if err != nil {
		t.Fatalf("ParseTimestamp (no fraction): %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v (fractional suffix should be discarded)", got, want)
	}
}

func TestParseTimestampNoFraction(t *testing.T) {
	got, err := ParseTimestamp("2018-06-01T12:00:00")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if got.Year() != 2018 || got.Month() != 6 || got.Day() != 1 {
		t.Fatalf("unexpected parsed time: %v", got)
	}
}

func TestParseTimestampTooShortWithDot(t *testing.T) {
	if _, err := ParseTimestamp("a.b"); err == nil {
		t.Fatal("expected error for too-short timestamp containing a dot")
	}
}

func TestFormatTimestampRoundTrip(t *testing.T) {
	ts, err := ParseTimestamp("2018-06-01T12:00:00")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if got := FormatTimestamp(ts); got != "2018-06-01T12:00:00" {
		t.Fatalf("FormatTimestamp = %q, want 2018-06-01T12:00:00", got)
	}
}
