package monitor

import (
	"math"
	"strings"
	"time"

	"github.com/Sabale88/IchilovTest/internal/clinical"
)

// Hospital exports mix date and time encodings freely, so every temporal
// column goes through a fixed-priority parse chain. All values are naive
// wall-clock instants; the engine runs on a single clock with no zones.

// dateLayouts in priority order. Non-padded elements accept 1 or 2 digits.
var dateLayouts = []string{
	"2.1.2006",
	"2006-1-2",
	"1/2/2006",
}

// resolveDate normalizes a date column to midnight UTC. The boolean is false
// when the value is null or no layout matches; that is data quality, not an
// error.
func resolveDate(v clinical.Temporal) (time.Time, bool) {
	switch v.Kind {
	case clinical.TemporalNative:
		t := v.Time
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	case clinical.TemporalText:
		s := strings.TrimSpace(v.Text)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
			}
		}
	}
	return time.Time{}, false
}

// resolveClock normalizes a time column to clock components. Tries 24-hour
// H:M:S, then H:M, then the 12-hour forms with an AM/PM suffix.
func resolveClock(v clinical.Temporal) (hour, min, sec int, ok bool) {
	switch v.Kind {
	case clinical.TemporalNative:
		h, m, s := v.Time.Clock()
		return h, m, s, true
	case clinical.TemporalText:
		s := strings.TrimSpace(v.Text)
		for _, layout := range []string{"15:4:5", "15:4"} {
			if t, err := time.Parse(layout, s); err == nil {
				h, m, sc := t.Clock()
				return h, m, sc, true
			}
		}
		// The meridian layouts are case sensitive, so fold first.
		upper := strings.ToUpper(s)
		for _, layout := range []string{"3:4:5 PM", "3:4 PM"} {
			if t, err := time.Parse(layout, upper); err == nil {
				h, m, sc := t.Clock()
				return h, m, sc, true
			}
		}
	}
	return 0, 0, 0, false
}

// combine joins a date column and a time column into one timestamp at second
// precision. An unresolved date makes the whole result unresolved; an
// unresolved or absent time substitutes midnight.
func combine(dateV, timeV clinical.Temporal) (time.Time, bool) {
	d, ok := resolveDate(dateV)
	if !ok {
		return time.Time{}, false
	}
	h, m, s, ok := resolveClock(timeV)
	if !ok {
		return d, true
	}
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, s, 0, time.UTC), true
}

// hoursBetween returns end minus start in hours, rounded to 2 decimal places.
// Sign is preserved; a nil start yields nil.
func hoursBetween(start *time.Time, end time.Time) *float64 {
	if start == nil {
		return nil
	}
	hours := math.Round(end.Sub(*start).Seconds()/3600.0*100) / 100
	return &hours
}

// maxTimestamp returns the latest non-nil timestamp, or nil if all are nil.
func maxTimestamp(values ...*time.Time) *time.Time {
	var max *time.Time
	for _, v := range values {
		if v == nil {
			continue
		}
		if max == nil || v.After(*max) {
			max = v
		}
	}
	return max
}

// ageAt computes whole years between a birth date and a reference instant.
// A birthday falling on the reference date counts as already passed.
func ageAt(birth, ref time.Time) int {
	age := ref.Year() - birth.Year()
	if int(ref.Month()) < int(birth.Month()) ||
		(ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		age--
	}
	return age
}

// isActive reports whether an admission still counts as active: no resolvable
// release timestamp, or a release within the grace window (boundary inclusive).
func isActive(adm clinical.AdmissionRecord, now time.Time, grace time.Duration) bool {
	release, ok := combine(adm.ReleaseDate, adm.ReleaseTime)
	if !ok {
		return true
	}
	return now.Sub(release) <= grace
}

// Display formats consumed downstream, bit-exact.
const (
	dateFormat      = "02.01.2006"
	clockFormat     = "15:04"
	timestampFormat = "02.01.2006 15:04:05"
)

// formatDateValue renders a date column as DD.MM.YYYY, nil when unresolved.
func formatDateValue(v clinical.Temporal) *string {
	d, ok := resolveDate(v)
	if !ok {
		return nil
	}
	s := d.Format(dateFormat)
	return &s
}

// formatClockValue renders a time column as HH:MM, nil when unresolved.
func formatClockValue(v clinical.Temporal) *string {
	h, m, _, ok := resolveClock(v)
	if !ok {
		return nil
	}
	s := time.Date(0, 1, 1, h, m, 0, 0, time.UTC).Format(clockFormat)
	return &s
}

func formatTimestamp(t time.Time) string {
	return t.Format(timestampFormat)
}
