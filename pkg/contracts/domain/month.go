package domain

import (
	"fmt"
	"strconv"
	"time"
)

// MonthKey identifies a calendar month. Its canonical text form is the
// three-letter month abbreviation followed by the four-digit year, e.g. "Jan2014".
type MonthKey struct {
	Year  int
	Month time.Month
}

// Default aggregation window bounds
var (
	DefaultWindowStart = MonthKey{Year: 2014, Month: time.January}
	DefaultWindowEnd   = MonthKey{Year: 2024, Month: time.November}
)

var monthAbbrevs = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// MonthOf returns the month key that contains t
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// String returns the canonical form, e.g. "Jan2014"
func (k MonthKey) String() string {
	return fmt.Sprintf("%s%04d", k.Month.String()[:3], k.Year)
}

// Before reports whether k is earlier than other
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// Next returns the following month
func (k MonthKey) Next() MonthKey {
	if k.Month == time.December {
		return MonthKey{Year: k.Year + 1, Month: time.January}
	}
	return MonthKey{Year: k.Year, Month: k.Month + 1}
}

// IsZero reports whether k is the zero value
func (k MonthKey) IsZero() bool {
	return k.Year == 0 && k.Month == 0
}

// ParseMonthKey parses the canonical form ("Jan2014").
func ParseMonthKey(s string) (MonthKey, error) {
	if len(s) != 7 {
		return MonthKey{}, fmt.Errorf("invalid month key %q", s)
	}
	month, ok := monthAbbrevs[s[:3]]
	if !ok {
		return MonthKey{}, fmt.Errorf("invalid month key %q: unknown month %q", s, s[:3])
	}
	year, err := strconv.Atoi(s[3:])
	if err != nil || year < 1000 {
		return MonthKey{}, fmt.Errorf("invalid month key %q: bad year", s)
	}
	return MonthKey{Year: year, Month: month}, nil
}

// ParseYearMonth parses a "2006-01" style bound as used in configuration.
func ParseYearMonth(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("invalid year-month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// MonthRange enumerates every month from start to end inclusive.
// It returns nil when end is before start.
func MonthRange(start, end MonthKey) []MonthKey {
	if end.Before(start) {
		return nil
	}
	var keys []MonthKey
	for k := start; !end.Before(k); k = k.Next() {
		keys = append(keys, k)
	}
	return keys
}

// DefaultMonths returns the Jan2014..Nov2024 sequence
func DefaultMonths() []MonthKey {
	return MonthRange(DefaultWindowStart, DefaultWindowEnd)
}

// MonthSet indexes a month sequence for membership checks
type MonthSet map[MonthKey]int

// NewMonthSet maps each key to its position in months
func NewMonthSet(months []MonthKey) MonthSet {
	set := make(MonthSet, len(months))
	for i, k := range months {
		set[k] = i
	}
	return set
}

// Contains reports whether k is part of the set
func (s MonthSet) Contains(k MonthKey) bool {
	_, ok := s[k]
	return ok
}
