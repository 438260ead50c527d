package timeparse

import (
	"math"
	"testing"
	"time"
)

func TestParseInstantFormats(t *testing.T) {
	want := time.Date(2026, 1, 2, 10, 30, 15, 0, time.UTC)
	cases := []string{
		"2026-01-02 10:30:15",
		"02/01/2026 10:30:15",
		"02-01-2026 10:30:15",
		"2026-01-02T10:30:15Z",
		"2026-01-02T10:30:15",
		" 2026-01-02 10:30:15 ",
	}
	for _, in := range cases {
		got, ok := ParseInstantStrict(in)
		if !ok {
			t.Fatalf("expected %q to parse", in)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseInstant(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseInstantFraction(t *testing.T) {
	got := ParseInstant("2026-01-02 10:30:15.250000")
	if got.Nanosecond() != 250000000 {
		t.Fatalf("expected fractional seconds, got %v", got)
	}
}

func TestParseInstantUnparsableIsMin(t *testing.T) {
	for _, in := range []string{"", "ontem", "2026-13-45 99:99:99"} {
		if got := ParseInstant(in); !got.Equal(MinInstant) {
			t.Fatalf("expected MinInstant for %q, got %v", in, got)
		}
	}
	if !ParseInstant("2000-01-01 00:00:00").After(MinInstant) {
		t.Fatalf("parsable instants must sort after MinInstant")
	}
}

func TestParseInstantReparseIsStable(t *testing.T) {
	for _, in := range []string{"2026-01-02 10:30:15", "31/12/2025 23:59:59", "01-06-2024 00:00:01"} {
		first := ParseInstant(in)
		if again := ParseInstant(FormatInstant(first)); !again.Equal(first) {
			t.Fatalf("reparse of %q changed instant: %v vs %v", in, first, again)
		}
		if again := ParseInstant(first.Format(time.RFC3339)); !again.Equal(first) {
			t.Fatalf("iso reparse of %q changed instant: %v vs %v", in, first, again)
		}
	}
}

func TestInstantOf(t *testing.T) {
	native := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	if !InstantOf(native).Equal(native) {
		t.Fatalf("native time must pass through")
	}
	if !InstantOf(nil).Equal(MinInstant) || !InstantOf(42).Equal(MinInstant) {
		t.Fatalf("nil and unsupported values must be MinInstant")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in   interface{}
		want int
		ok   bool
	}{
		{"08:15", 8*60 + 15, true},
		{" 8 : 15 : 30", 8*60 + 15, true},
		{"23:59:59.999", 23*60 + 59, true},
		{"25:70", 1*60 + 10, true},
		{"2026-01-02 14:05:00", 14*60 + 5, true},
		{"02/01/2026 14:05", 14*60 + 5, true},
		{0.5, 720, true},
		{"0.25", 360, true},
		{0.99999, 0, true},
		{1.5, 0, false},
		{time.Date(2026, 1, 1, 13, 45, 0, 0, time.UTC), 13*60 + 45, true},
		{"", 0, false},
		{nil, 0, false},
		{"sem horário", 0, false},
		{"NaN", 0, false},
		{"nan", 0, false},
		{"Inf", 0, false},
		{math.NaN(), 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseTimeOfDay(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParseTimeOfDay(%v) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestComparePeriod(t *testing.T) {
	if got := ComparePeriod("11:59"); got != "AM" {
		t.Fatalf("expected AM, got %q", got)
	}
	if got := ComparePeriod("12:00"); got != "PM" {
		t.Fatalf("expected PM, got %q", got)
	}
	for _, in := range []string{"x", "NaN", "nan"} {
		if got := ComparePeriod(in); got != "" {
			t.Fatalf("ComparePeriod(%q): expected empty period, got %q", in, got)
		}
	}
}

func TestCompareTimes(t *testing.T) {
	if c, ok := CompareTimes("10:00", "09:00"); !ok || c != 1 {
		t.Fatalf("expected 1, got %d %v", c, ok)
	}
	if c, ok := CompareTimes("2026-01-01 09:00:00", "09:00"); !ok || c != 0 {
		t.Fatalf("expected 0, got %d %v", c, ok)
	}
	if c, ok := CompareTimes("08:00", "09:00"); !ok || c != -1 {
		t.Fatalf("expected -1, got %d %v", c, ok)
	}
	if _, ok := CompareTimes("", "09:00"); ok {
		t.Fatalf("expected incomparable")
	}
	if _, ok := CompareTimes("NaN", "09:00"); ok {
		t.Fatalf("NaN must not be comparable")
	}
}

func TestDaysSince(t *testing.T) {
	now := time.Now()
	n := now.Local()
	ago := time.Date(n.Year(), n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second(), 0, time.UTC).Add(-72*time.Hour - time.Minute)
	days, ok := DaysSince(FormatInstant(ago), now)
	if !ok || days != 3 {
		t.Fatalf("expected 3 days, got %d %v", days, ok)
	}

	future := time.Date(n.Year(), n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second(), 0, time.UTC).Add(48 * time.Hour)
	if days, ok := DaysSince(FormatInstant(future), now); !ok || days != 0 {
		t.Fatalf("future instants clamp to 0, got %d", days)
	}
	if _, ok := DaysSince("nunca", now); ok {
		t.Fatalf("expected unparsable")
	}
}
