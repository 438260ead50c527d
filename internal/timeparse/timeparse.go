// Package timeparse turns the assorted time representations found in
// spreadsheet exports into comparable values.
//
// Two null policies coexist. ParseInstant never fails: unparsable input maps
// to MinInstant so that such rows always lose a "most recent wins"
// comparison. ParseTimeOfDay and CompareTimes report ok=false instead, and
// callers decide what an incomparable value means.
package timeparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// InstantLayout is the canonical layout used when cells are stored.
const InstantLayout = "2006-01-02 15:04:05"

// MinInstant orders before every parsable instant.
var MinInstant = time.Time{}

var instantLayouts = []string{
	InstantLayout,
	"02/01/2006 15:04:05",
	"02-01-2006 15:04:05",
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04",
}

var clockPattern = regexp.MustCompile(`^(\d{1,2})\s*:\s*(\d{2})(?:\s*:\s*(\d{2}))?(?:\.\d+)?`)

// ParseInstantStrict parses s with the supported layouts. Fractional
// seconds after the seconds field are accepted by every layout.
func ParseInstantStrict(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MinInstant, false
	}
	head := s
	if len(head) > 26 {
		head = head[:26]
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, head, time.UTC); err == nil {
			return t, true
		}
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return MinInstant, false
}

// ParseInstant is ParseInstantStrict with MinInstant for unparsable input.
func ParseInstant(s string) time.Time {
	t, _ := ParseInstantStrict(s)
	return t
}

// InstantOf accepts native times as well as strings.
func InstantOf(v interface{}) time.Time {
	switch x := v.(type) {
	case nil:
		return MinInstant
	case time.Time:
		return x.UTC()
	case *time.Time:
		if x == nil {
			return MinInstant
		}
		return x.UTC()
	case string:
		return ParseInstant(x)
	default:
		return MinInstant
	}
}

// FormatInstant renders t in InstantLayout.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(InstantLayout)
}

// ParseTimeOfDay returns minutes since midnight.
func ParseTimeOfDay(v interface{}) (int, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case time.Time:
		return x.Hour()*60 + x.Minute(), true
	case float64:
		return fromSerial(x)
	case float32:
		return fromSerial(float64(x))
	case int:
		return fromSerial(float64(x))
	case string:
		return parseClock(x)
	default:
		return 0, false
	}
}

func fromSerial(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v < 0 || v >= 1 {
		return 0, false
	}
	return int(math.Round(v*1440)) % 1440, true
}

func parseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if m, ok := fromSerial(f); ok {
			return m, true
		}
	}
	if m := clockPattern.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		return (h%24)*60 + mi%60, true
	}
	head := s
	if len(head) > 19 {
		head = head[:19]
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, head); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}
	return 0, false
}

// ComparePeriod classifies v as "AM" or "PM"; "" when unparsable.
func ComparePeriod(v interface{}) string {
	m, ok := ParseTimeOfDay(v)
	if !ok {
		return ""
	}
	if m/60 < 12 {
		return "AM"
	}
	return "PM"
}

// CompareTimes compares two times of day.
func CompareTimes(a, b interface{}) (int, bool) {
	ma, ok := ParseTimeOfDay(a)
	if !ok {
		return 0, false
	}
	mb, ok := ParseTimeOfDay(b)
	if !ok {
		return 0, false
	}
	switch {
	case ma < mb:
		return -1, true
	case ma > mb:
		return 1, true
	default:
		return 0, true
	}
}

// DaysSince returns the whole days elapsed between s and now, never
// negative. Stored instants carry no zone and are read as local wall clock.
// ok is false when s does not parse.
func DaysSince(s string, now time.Time) (int, bool) {
	t, ok := ParseInstantStrict(s)
	if !ok {
		return 0, false
	}
	n := now.Local()
	wall := time.Date(n.Year(), n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second(), n.Nanosecond(), time.UTC)
	days := int(math.Floor(wall.Sub(t).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return days, true
}

// Today returns the local calendar date as YYYY-MM-DD.
func Today(now time.Time) string {
	return now.Local().Format("2006-01-02")
}
