package settlement

import (
	"regexp"
	"time"
)

var datePrefixPattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)

// fallback layouts tried for inputs that are not plain YYYY-MM-DD dates.
var dateFallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	time.RFC1123,
	time.RFC1123Z,
}

// NormalizeDate converts an externally supplied date string into an instant
// anchored at noon UTC, so that date-only values survive storage and
// comparison without drifting to an adjacent calendar day across timezone
// offsets. A strict YYYY-MM-DD prefix wins over everything else: the calendar
// day named in the string is the day that is kept, regardless of any time or
// offset suffix. Inputs without such a prefix are parsed with a set of
// fallback layouts and re-anchored at noon UTC of the parsed UTC day.
//
// Empty input returns ErrEmptyDate and unparseable input returns
// ErrUnparseableDate; callers decide whether an empty date may degrade to the
// current instant.
func NormalizeDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, ErrEmptyDate
	}

	if m := datePrefixPattern.FindStringSubmatch(value); m != nil {
		parsed, err := time.Parse("2006-01-02", m[0])
		if err == nil {
			return noonUTC(parsed), nil
		}
		// Prefix looked like a date but named an impossible one (e.g. month 13);
		// fall through to the general layouts.
	}

	for _, layout := range dateFallbackLayouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return noonUTC(parsed.UTC()), nil
	}

	return time.Time{}, ErrUnparseableDate
}

func noonUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
}

// DaysInclusive counts the calendar days between start and end including both
// endpoints. Partial days are rounded up before the inclusive day is added.
func DaysInclusive(start, end time.Time) int {
	diff := end.Sub(start)
	if diff < 0 {
		diff = -diff
	}
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return days + 1
}

// DaysInMonthOf returns the number of calendar days in the month containing t.
// Proration always divides by the start month's length, not the end month's.
func DaysInMonthOf(t time.Time) int {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}
