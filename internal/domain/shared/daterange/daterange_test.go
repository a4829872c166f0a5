package daterange

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewRejectsInvertedRange(t *testing.T) {
	if _, err := New(date(2026, 1, 13), date(2026, 1, 10)); err != ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := New(date(2026, 1, 10), date(2026, 1, 10)); err != ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange for zero nights, got %v", err)
	}
}

func TestNights(t *testing.T) {
	dr, err := New(date(2026, 1, 10), date(2026, 1, 13))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dr.Nights() != 3 {
		t.Fatalf("expected 3 nights, got %d", dr.Nights())
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	booked, _ := New(date(2026, 1, 10), date(2026, 1, 13))

	overlapping, _ := New(date(2026, 1, 12), date(2026, 1, 14))
	if !booked.Overlaps(overlapping) {
		t.Fatal("expected 12-14 to overlap 10-13")
	}

	// checkout day is free for the next guest's check-in
	backToBack, _ := New(date(2026, 1, 13), date(2026, 1, 15))
	if booked.Overlaps(backToBack) {
		t.Fatal("expected 13-15 not to overlap 10-13")
	}

	before, _ := New(date(2026, 1, 5), date(2026, 1, 10))
	if booked.Overlaps(before) {
		t.Fatal("expected 5-10 not to overlap 10-13")
	}
}

func TestContainsDate(t *testing.T) {
	dr, _ := New(date(2026, 1, 10), date(2026, 1, 13))
	if !dr.ContainsDate(date(2026, 1, 10)) {
		t.Fatal("check-in day should be contained")
	}
	if !dr.ContainsDate(date(2026, 1, 12)) {
		t.Fatal("night inside the range should be contained")
	}
	if dr.ContainsDate(date(2026, 1, 13)) {
		t.Fatal("checkout day should not be contained")
	}
}

func TestDayTruncatesToUTCDate(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	stamp := time.Date(2026, 3, 15, 2, 30, 0, 0, loc)
	got := Day(stamp)
	want := date(2026, 3, 14)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
