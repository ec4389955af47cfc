package repository

import (
	"testing"
	"time"
)

func TestWindowStarts(t *testing.T) {
	now := time.Date(2026, time.March, 15, 18, 30, 45, 0, time.UTC)

	day, week, month := WindowStarts(now)

	if want := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC); !day.Equal(want) {
		t.Errorf("day start = %v, want %v", day, want)
	}
	if want := now.Add(-7 * 24 * time.Hour); !week.Equal(want) {
		t.Errorf("week start = %v, want %v", week, want)
	}
	if want := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC); !month.Equal(want) {
		t.Errorf("month start = %v, want %v", month, want)
	}
}

func TestWindowStartsNormalizesZone(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*3600)
	// 02:00 on March 2 in UTC+5 is still March 1 in UTC; windows are
	// defined over UTC.
	now := time.Date(2026, time.March, 2, 2, 0, 0, 0, zone)

	day, _, month := WindowStarts(now)

	if want := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC); !day.Equal(want) {
		t.Errorf("day start = %v, want %v", day, want)
	}
	if want := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC); !month.Equal(want) {
		t.Errorf("month start = %v, want %v", month, want)
	}
}
